package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/pinlock/internal/app"
)

func (c *CLI) newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List stored lockfile snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.History(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (c *CLI) newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <digest>",
		Short: "Write a stored snapshot back to the lockfile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return c.app.Restore(cmd.Context(), args[0], output)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Path to write (default: the configured lockfile)")
	return cmd
}

func (c *CLI) newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent runs that wrote a lockfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return c.app.Audit(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntP("limit", "n", app.DefaultAuditLimit, "Number of runs to show")
	return cmd
}
