package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/pinlock/internal/app"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <package>...",
		Short: "Show the locked resolution of packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Resolve(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}
}

func (c *CLI) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List locked packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			if freeze, _ := cmd.Flags().GetBool("freeze"); freeze {
				format = app.FormatFreeze
			}
			return c.app.List(cmd.Context(), cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().StringP("format", "f", app.FormatTable, "Output format: table or freeze")
	cmd.Flags().Bool("freeze", false, "Shorthand for --format=freeze")
	return cmd
}

func (c *CLI) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report cycles and install order of the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Check(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (c *CLI) newAffectedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "affected <package>",
		Short: "List packages that transitively depend on a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Affected(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func (c *CLI) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [lockfile]",
		Short: "Check the integrity of a lockfile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return c.app.Verify(cmd.Context(), cmd.OutOrStdout(), path)
		},
	}
}

func (c *CLI) newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <archive|dir>",
		Short: "Compute package integrity digests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Hash(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}
