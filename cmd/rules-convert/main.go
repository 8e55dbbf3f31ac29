// rules-convert copies a rule set between the YAML and SQLite backends.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/chrissnell/attendance/pkg/rules"
)

type options struct {
	yamlFile   string
	sqliteFile string
	force      bool
	dryRun     bool
	reverse    bool
}

func main() {
	opts := options{}
	flag.StringVar(&opts.yamlFile, "yaml", "", "Path to YAML rule file (required)")
	flag.StringVar(&opts.sqliteFile, "sqlite", "", "Path to SQLite rule database (required)")
	flag.BoolVar(&opts.force, "force", false, "Overwrite an existing target")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Show what would be done without executing")
	flag.BoolVar(&opts.reverse, "reverse", false, "Export the SQLite database to YAML instead")
	flag.Parse()

	if opts.yamlFile == "" || opts.sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <rule.yaml> -sqlite <rules.db> [-reverse]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := convert(os.Stdout, opts, logger.Sugar()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func convert(out io.Writer, opts options, logger *zap.SugaredLogger) error {
	source, target := opts.yamlFile, opts.sqliteFile
	if opts.reverse {
		source, target = target, source
	}

	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("source does not exist: %s", source)
	}
	if _, err := os.Stat(target); err == nil && !opts.force {
		return fmt.Errorf("target already exists: %s (use -force to overwrite)", target)
	}

	fmt.Fprintf(out, "Converting rules...\n")
	fmt.Fprintf(out, "  Source: %s\n", source)
	fmt.Fprintf(out, "  Target: %s\n", target)

	src, err := loadSource(opts, logger)
	if err != nil {
		return err
	}

	// Refuse to carry an invalid rule set into the other backend.
	cfg, err := src.Build()
	if err != nil {
		return fmt.Errorf("source rules are invalid: %w", err)
	}
	printSummary(out, cfg)

	if opts.dryRun {
		fmt.Fprintln(out, "DRY RUN complete - nothing written")
		return nil
	}

	if opts.reverse {
		err = writeYAML(target, src)
	} else {
		err = writeSQLite(target, src, opts.force, logger)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Conversion completed successfully!\n")
	if !opts.reverse {
		fmt.Fprintf(out, "Use it with: attendance --rules-backend sqlite --rules %s\n", target)
	}
	return nil
}

func loadSource(opts options, logger *zap.SugaredLogger) (*rules.Source, error) {
	if !opts.reverse {
		return rules.NewYAMLProvider(opts.yamlFile).LoadSource()
	}

	p, err := rules.NewSQLiteProvider(opts.sqliteFile)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	if err := p.Migrate(logger); err != nil {
		return nil, fmt.Errorf("failed to migrate rules database: %w", err)
	}
	return p.LoadSource()
}

func writeSQLite(path string, src *rules.Source, force bool, logger *zap.SugaredLogger) error {
	if force {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	p, err := rules.NewSQLiteProvider(path)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.Migrate(logger); err != nil {
		return fmt.Errorf("failed to migrate rules database: %w", err)
	}
	if err := p.SaveSource(src); err != nil {
		return fmt.Errorf("failed to save rules: %w", err)
	}
	return nil
}

func writeYAML(path string, src *rules.Source) error {
	data, err := yaml.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func printSummary(out io.Writer, cfg *rules.RuleConfig) {
	fmt.Fprintf(out, "\nRule Summary:\n")
	fmt.Fprintf(out, "Status filter: %s\n", cfg.StatusFilter)
	fmt.Fprintf(out, "Burst threshold: %s\n", cfg.BurstThreshold)
	fmt.Fprintf(out, "Shifts (%d):\n", len(cfg.Shifts))
	for _, s := range cfg.Shifts {
		fmt.Fprintf(out, "  - %s (%s)\n", s.Code, s.DisplayName)
	}
	fmt.Fprintf(out, "Users: %d\n\n", len(cfg.ValidUsers))
}
