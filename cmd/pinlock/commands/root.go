// Package commands implements the CLI commands for pinlock.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/pinlock/internal/app"
	"go.trai.ch/pinlock/internal/build"
)

// CLI represents the command line interface for pinlock.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Configure(o app.Overrides) error
	Lock(ctx context.Context, w io.Writer, opts app.LockOptions) error
	Resolve(ctx context.Context, w io.Writer, names []string) error
	List(ctx context.Context, w io.Writer, format string) error
	Check(ctx context.Context, w io.Writer) error
	Merge(ctx context.Context, w io.Writer, opts app.MergeOptions) error
	Verify(ctx context.Context, w io.Writer, path string) error
	Affected(ctx context.Context, w io.Writer, name string) error
	History(ctx context.Context, w io.Writer) error
	Restore(ctx context.Context, prefix, path string) error
	Audit(ctx context.Context, w io.Writer, limit int) error
	Hash(ctx context.Context, w io.Writer, path string) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "pinlock",
		Short:         "A binary lockfile engine with mergeable history",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("lockfile", "l", "", "Lockfile to read and write (default from settings)")
	flags.StringP("manifest", "m", "", "Manifest to load instead of searching upward")
	flags.String("policy", "", "Cycle policy: error, warn, or break")
	flags.Int("replica", 0, "Replica id of this writer, 0 to 7")
	flags.Bool("json-logs", false, "Write logs as JSON")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	rootCmd.PersistentPreRunE = c.configure

	rootCmd.AddCommand(c.newLockCmd())
	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newMergeCmd())
	rootCmd.AddCommand(c.newVerifyCmd())
	rootCmd.AddCommand(c.newAffectedCmd())
	rootCmd.AddCommand(c.newHistoryCmd())
	rootCmd.AddCommand(c.newRestoreCmd())
	rootCmd.AddCommand(c.newAuditCmd())
	rootCmd.AddCommand(c.newHashCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// configure passes flags the user set explicitly on to the app.
func (c *CLI) configure(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	var o app.Overrides
	if flags.Changed("lockfile") {
		v, _ := flags.GetString("lockfile")
		o.Lockfile = &v
	}
	if flags.Changed("manifest") {
		v, _ := flags.GetString("manifest")
		o.Manifest = &v
	}
	if flags.Changed("policy") {
		v, _ := flags.GetString("policy")
		o.Policy = &v
	}
	if flags.Changed("replica") {
		v, _ := flags.GetInt("replica")
		o.Replica = &v
	}
	if flags.Changed("json-logs") {
		v, _ := flags.GetBool("json-logs")
		o.JSONLogs = &v
	}
	return c.app.Configure(o)
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
