package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/pinlock/internal/app"
)

func (c *CLI) newLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Resolve the manifest and write the lockfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			allow, _ := cmd.Flags().GetBool("allow-conflicts")
			accept, _ := cmd.Flags().GetBool("accept")
			return c.app.Lock(cmd.Context(), cmd.OutOrStdout(), app.LockOptions{
				AllowConflicts: allow,
				Accept:         accept,
			})
		},
	}
	cmd.Flags().Bool("allow-conflicts", false, "Write the lockfile even if it carries unresolved conflicts")
	cmd.Flags().BoolP("accept", "a", false, "Accept the manifest as the resolution of recorded conflicts")
	return cmd
}

func (c *CLI) newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <lockfile> <lockfile>...",
		Short: "Merge lockfiles written by different replicas",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			allow, _ := cmd.Flags().GetBool("allow-conflicts")
			return c.app.Merge(cmd.Context(), cmd.OutOrStdout(), app.MergeOptions{
				Output:         output,
				Inputs:         args,
				AllowConflicts: allow,
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Lockfile to write (default: the configured lockfile)")
	cmd.Flags().Bool("allow-conflicts", false, "Succeed even if the merge produced conflicts")
	return cmd
}
