package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chrissnell/attendance/internal/attendance"
	"github.com/chrissnell/attendance/internal/log"
	"github.com/chrissnell/attendance/internal/summary"
	"github.com/chrissnell/attendance/internal/swipelog"
	"github.com/chrissnell/attendance/pkg/rules"
)

func newConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert INPUT.csv OUTPUT.xlsx",
		Short: "Convert a raw CSV export into the spreadsheet layout process reads",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := swipelog.ConvertCSV(args[0], args[1])
			if err != nil {
				return err
			}
			log.Infof("converted %d rows from %s", n, args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %d rows to %s\n", n, args[1])
			return nil
		},
	}
}

func newValidateCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [INPUT]",
		Short: "Check the rule source and, optionally, an input file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(global.rulesPath); err != nil {
				return fmt.Errorf("rules file: %w", err)
			}
			cfg, err := global.rules()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rules OK: %d shifts, %d users\n", len(cfg.Shifts), len(cfg.ValidUsers))

			if len(args) == 1 {
				if err := swipelog.CheckPath(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Input OK: %s\n", args[0])
			}
			return nil
		},
	}
}

func newSummaryCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary INPUT",
		Short: "Print per-person punctuality statistics for a swipe log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.rules()
			if err != nil {
				return err
			}
			swipes, err := swipelog.ReadFile(args[0])
			if err != nil {
				return err
			}

			result, err := attendance.NewProcessor(cfg, log.GetSugaredLogger()).Run(swipes)
			if err != nil {
				return err
			}
			if len(result.Records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), result.Status)
				return nil
			}
			return summary.Render(cmd.OutOrStdout(), summary.Summarize(result.Records, cfg))
		},
	}
}

func newInitRulesCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-rules [PATH]",
		Short: "Write the default rule set as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "rule.yaml"
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if err := rules.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default rules to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
