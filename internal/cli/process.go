package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chrissnell/attendance/internal/attendance"
	"github.com/chrissnell/attendance/internal/export"
	"github.com/chrissnell/attendance/internal/log"
	"github.com/chrissnell/attendance/internal/swipelog"
)

type processOptions struct {
	format      string
	overwrite   bool
	sqliteOut   string
	postgresDSN string
}

func newProcessCommand(global *globalOptions) *cobra.Command {
	opts := &processOptions{}

	cmd := &cobra.Command{
		Use:   "process INPUT OUTPUT",
		Short: "Process a swipe log into attendance records",
		Long: `Process reads a swipe log (.xlsx or .csv) and writes one attendance record per
shift instance to OUTPUT. The output format follows OUTPUT's extension unless
--format is given. An existing OUTPUT is never overwritten unless --overwrite is
set; a free name is chosen instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, global, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "Output format: xlsx, csv, json or msgpack (default: from OUTPUT extension)")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "Replace OUTPUT if it exists")
	cmd.Flags().StringVar(&opts.sqliteOut, "sqlite-out", "", "Also append the run to this SQLite database")
	cmd.Flags().StringVar(&opts.postgresDSN, "postgres-dsn", "", "Also append the run to this Postgres database")
	return cmd
}

func runProcess(cmd *cobra.Command, global *globalOptions, opts *processOptions, input, output string) error {
	logger := log.GetSugaredLogger()

	cfg, err := global.rules()
	if err != nil {
		return err
	}
	logger.Infof("loaded rules: %d shifts, %d users", len(cfg.Shifts), len(cfg.ValidUsers))

	swipes, err := swipelog.ReadFile(input)
	if err != nil {
		return err
	}
	logger.Infof("read %d rows from %s", len(swipes), input)

	format := opts.format
	if format == "" {
		if format, err = export.FormatFromPath(output); err != nil {
			return err
		}
	}

	now := time.Now()
	if !opts.overwrite {
		renamed, err := export.AvailablePath(output, now)
		if err != nil {
			return err
		}
		if renamed != output {
			logger.Infof("output file exists, writing to %s instead", renamed)
		}
		output = renamed
	}

	result, err := attendance.NewProcessor(cfg, logger).Run(swipes)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}
	if result.Status != "" {
		fmt.Fprintln(cmd.OutOrStdout(), result.Status)
	}

	writers, err := openWriters(format, output, opts)
	if err != nil {
		return err
	}
	defer writers.Close()

	run := export.NewRun(input, now)
	if err := writers.Write(cmd.Context(), run, result.Records); err != nil {
		return err
	}

	logger.Infow("run complete",
		"run_id", run.ID,
		"records", result.Stats.Records,
		"instances", result.Stats.Instances,
		"bursts", result.Stats.Bursts,
		"orphans", result.Stats.Orphans,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(result.Records), output)
	return nil
}

func openWriters(format, output string, opts *processOptions) (export.Multi, error) {
	primary, err := export.NewFileWriter(format, output)
	if err != nil {
		return nil, err
	}
	writers := export.Multi{primary}

	if opts.sqliteOut != "" {
		w, err := export.NewSQLiteWriter(opts.sqliteOut, log.GetSugaredLogger())
		if err != nil {
			writers.Close()
			return nil, err
		}
		writers = append(writers, w)
	}

	if opts.postgresDSN != "" {
		w, err := export.NewPostgresWriter(opts.postgresDSN, log.GetZapLogger())
		if err != nil {
			writers.Close()
			return nil, err
		}
		writers = append(writers, w)
	}

	return writers, nil
}
