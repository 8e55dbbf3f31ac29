// Package cli implements the attendance command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chrissnell/attendance/internal/log"
	"github.com/chrissnell/attendance/pkg/rules"
)

type globalOptions struct {
	rulesPath    string
	rulesBackend string
	debug        bool

	cache *rules.Cache
}

// rules loads the configured rule set through the per-backend cache.
func (o *globalOptions) rules() (*rules.RuleConfig, error) {
	if o.cache == nil {
		o.cache = rules.NewBackendCache(o.rulesBackend)
	}

	cfg, err := o.cache.Get(o.rulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %s: %w", o.rulesPath, err)
	}
	return cfg, nil
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "attendance",
		Short: "Turn access-control swipe logs into per-shift attendance records",
		Long: `attendance reads raw swipe logs, keeps successful swipes by configured users,
collapses repeated swipes into bursts, assigns them to shifts (including night
shifts that cross midnight) and writes check-in, break and check-out times with
lateness statuses.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(opts.debug)
		},
	}

	root.PersistentFlags().StringVar(&opts.rulesPath, "rules", "rule.yaml", "Path to rule source (YAML file or SQLite database)")
	root.PersistentFlags().StringVar(&opts.rulesBackend, "rules-backend", rules.BackendYAML, "Rule backend type: 'yaml' or 'sqlite'")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Turn on debugging output")

	root.AddCommand(
		newProcessCommand(opts),
		newConvertCommand(),
		newValidateCommand(opts),
		newSummaryCommand(opts),
		newInitRulesCommand(),
		newVersionCommand(version),
	)
	return root
}

// Execute runs the CLI with os.Args and reports errors on stderr.
func Execute(version string) int {
	return run(NewRootCommand(version), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	log.Sync()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "attendance %s\n", version)
			return err
		},
	}
}
