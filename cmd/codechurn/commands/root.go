// Package commands implements the codechurn CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

// globalOptions are the root persistent flags.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
	logJSON    bool
}

// NewRootCommand builds the codechurn command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "codechurn",
		Short: "Per-commit, per-language line churn for git repositories",
		Long: `codechurn walks the commits of one or more git repositories inside a date
range and reports lines added and removed per commit and language.

Commands:
  extract   Extract churn tables and write them to xlsx, json, yaml or an HTML plot
  upload    Upload a produced file to a collector endpoint
  version   Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default .codechurn.yaml in . or $HOME)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging and per-language summary")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors and skip the summary")
	pf.BoolVar(&opts.logJSON, "log-json", false, "log as JSON")

	root.AddCommand(newExtractCommand(opts))
	root.AddCommand(newUploadCommand(opts))
	root.AddCommand(newVersionCommand())

	return root
}
