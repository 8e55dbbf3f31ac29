// Package migrate applies versioned SQL schema migrations to SQLite
// databases used for rule storage and attendance export.
package migrate

import (
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Latest targets the highest available migration version.
const Latest = -1

// Migration is one numbered schema change with its rollback.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Source supplies migrations and records which version a database is at.
type Source interface {
	Migrations() ([]Migration, error)
	EnsureTable(db *sql.DB) error
	Version(db *sql.DB) (int, error)
	SetVersion(tx *sql.Tx, version int) error
}

// Migrator moves a database between schema versions.
type Migrator struct {
	db     *sql.DB
	source Source
	logger *zap.SugaredLogger
}

// step is a single migration applied in one direction.
type step struct {
	migration Migration
	up        bool
}

// NewMigrator creates a migrator. A nil logger discards output.
func NewMigrator(db *sql.DB, source Source, logger *zap.SugaredLogger) *Migrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Migrator{db: db, source: source, logger: logger}
}

// MigrateUp applies every pending migration.
func (m *Migrator) MigrateUp() error {
	return m.MigrateTo(Latest)
}

// MigrateDown rolls back to target, which must be below the current version.
func (m *Migrator) MigrateDown(target int) error {
	current, err := m.Version()
	if err != nil {
		return err
	}
	if target >= current {
		return fmt.Errorf("target version %d must be less than current version %d", target, current)
	}
	return m.MigrateTo(target)
}

// MigrateTo applies or rolls back migrations until the database is at target.
func (m *Migrator) MigrateTo(target int) error {
	current, err := m.Version()
	if err != nil {
		return err
	}

	migrations, err := m.sorted()
	if err != nil {
		return err
	}
	if target == Latest {
		target = 0
		if len(migrations) > 0 {
			target = migrations[len(migrations)-1].Version
		}
	}

	for _, s := range plan(migrations, current, target) {
		if err := m.apply(s); err != nil {
			return err
		}
	}
	return nil
}

// Version returns the schema version recorded in the database.
func (m *Migrator) Version() (int, error) {
	if err := m.source.EnsureTable(m.db); err != nil {
		return 0, fmt.Errorf("failed to create migration table: %w", err)
	}
	v, err := m.source.Version(m.db)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return v, nil
}

// Pending returns the migrations above the current version in apply order.
func (m *Migrator) Pending() ([]Migration, error) {
	current, err := m.Version()
	if err != nil {
		return nil, err
	}
	migrations, err := m.sorted()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mig := range migrations {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

func (m *Migrator) sorted() ([]Migration, error) {
	migrations, err := m.source.Migrations()
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations: %w", err)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// plan lists the steps from current to target. migrations must be sorted
// ascending; rollbacks run newest first.
func plan(migrations []Migration, current, target int) []step {
	var steps []step
	if target >= current {
		for _, mig := range migrations {
			if mig.Version > current && mig.Version <= target {
				steps = append(steps, step{migration: mig, up: true})
			}
		}
		return steps
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		mig := migrations[i]
		if mig.Version > target && mig.Version <= current {
			steps = append(steps, step{migration: mig})
		}
	}
	return steps
}

func (m *Migrator) apply(s step) error {
	stmt, direction, version := s.migration.Down, "down", s.migration.Version-1
	if s.up {
		stmt, direction, version = s.migration.Up, "up", s.migration.Version
	}
	if stmt == "" {
		return fmt.Errorf("migration %d has no %s SQL", s.migration.Version, direction)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("migration %d %s failed: %w", s.migration.Version, direction, err)
	}
	if err := m.source.SetVersion(tx, version); err != nil {
		return fmt.Errorf("failed to update migration version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", s.migration.Version, err)
	}

	m.logger.Debugw("applied migration", "version", s.migration.Version, "name", s.migration.Name, "direction", direction)
	return nil
}
