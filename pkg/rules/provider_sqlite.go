package rules

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/chrissnell/attendance/pkg/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteProvider implements Provider for SQLite rule databases
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite rules provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Migrate brings the rules schema up to date
func (s *SQLiteProvider) Migrate(logger *zap.SugaredLogger) error {
	provider := migrate.NewFSProvider(migrationFS, "migrations", "rules_schema_migrations")
	return migrate.NewMigrator(s.db, provider, logger).MigrateUp()
}

// LoadSource reads the unparsed rule set from the database
func (s *SQLiteProvider) LoadSource() (*Source, error) {
	src := &Source{Users: make(map[string]User)}

	err := s.db.QueryRow(`SELECT status_filter, burst_threshold FROM rule_settings WHERE id = 1`).
		Scan(&src.StatusFilter, &src.BurstThreshold)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: rule settings missing from %s", ErrInvalidRules, s.dbPath)
		}
		return nil, fmt.Errorf("failed to query rule settings: %w", err)
	}

	if err := s.loadUsers(src); err != nil {
		return nil, err
	}
	if err := s.loadShifts(src); err != nil {
		return nil, err
	}

	return src, nil
}

// LoadRules loads and validates the rule set
func (s *SQLiteProvider) LoadRules() (*RuleConfig, error) {
	src, err := s.LoadSource()
	if err != nil {
		return nil, err
	}
	return src.Build()
}

func (s *SQLiteProvider) loadUsers(src *Source) error {
	rows, err := s.db.Query(`SELECT username, output_name, output_id FROM users ORDER BY username`)
	if err != nil {
		return fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var u User
		if err := rows.Scan(&name, &u.DisplayName, &u.DisplayID); err != nil {
			return fmt.Errorf("failed to scan user row: %w", err)
		}
		src.Users[name] = u
	}

	return rows.Err()
}

func (s *SQLiteProvider) loadShifts(src *Source) error {
	query := `
		SELECT code, display_name, check_in_range, check_out_range, break_range,
		       shift_start, check_in_on_time, check_in_late,
		       break_checkpoint, break_in_cutoff, midpoint, minimum_break_gap,
		       break_end, break_in_on_time, break_in_late,
		       grace_period, crosses_midnight
		FROM shifts
		ORDER BY position
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ss ShiftSource
		var displayName, checkInOnTime, checkInLate, checkpoint, cutoff sql.NullString
		var breakInOnTime, breakInLate, grace sql.NullString
		var crosses sql.NullBool

		err := rows.Scan(
			&ss.Code, &displayName, &ss.CheckInRange, &ss.CheckOutRange, &ss.BreakRange,
			&ss.ShiftStart, &checkInOnTime, &checkInLate,
			&checkpoint, &cutoff, &ss.Midpoint, &ss.MinimumBreakGap,
			&ss.BreakEnd, &breakInOnTime, &breakInLate,
			&grace, &crosses,
		)
		if err != nil {
			return fmt.Errorf("failed to scan shift row: %w", err)
		}

		// Convert nullable fields to empty strings if NULL
		ss.DisplayName = displayName.String
		ss.CheckInOnTime = checkInOnTime.String
		ss.CheckInLate = checkInLate.String
		ss.BreakCheckpoint = checkpoint.String
		ss.BreakInCutoff = cutoff.String
		ss.BreakInOnTime = breakInOnTime.String
		ss.BreakInLate = breakInLate.String
		ss.GracePeriod = grace.String
		if crosses.Valid {
			v := crosses.Bool
			ss.CrossesMidnight = &v
		}

		src.Shifts = append(src.Shifts, ss)
	}

	return rows.Err()
}

// SaveSource replaces the stored rule set with src in a single transaction
func (s *SQLiteProvider) SaveSource(src *Source) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"shifts", "users", "rule_settings"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	_, err = tx.Exec(`INSERT INTO rule_settings (id, status_filter, burst_threshold) VALUES (1, ?, ?)`,
		src.StatusFilter, src.BurstThreshold)
	if err != nil {
		return fmt.Errorf("failed to insert rule settings: %w", err)
	}

	for name, u := range src.Users {
		_, err := tx.Exec(`INSERT INTO users (username, output_name, output_id) VALUES (?, ?, ?)`,
			name, u.DisplayName, u.DisplayID)
		if err != nil {
			return fmt.Errorf("failed to insert user %s: %w", name, err)
		}
	}

	insertShift := `
		INSERT INTO shifts (
			code, position, display_name, check_in_range, check_out_range, break_range,
			shift_start, check_in_on_time, check_in_late,
			break_checkpoint, break_in_cutoff, midpoint, minimum_break_gap,
			break_end, break_in_on_time, break_in_late,
			grace_period, crosses_midnight
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, ss := range src.Shifts {
		var crosses sql.NullBool
		if ss.CrossesMidnight != nil {
			crosses = sql.NullBool{Bool: *ss.CrossesMidnight, Valid: true}
		}

		_, err := tx.Exec(insertShift,
			ss.Code, i, nullString(ss.DisplayName), ss.CheckInRange, ss.CheckOutRange, ss.BreakRange,
			ss.ShiftStart, nullString(ss.CheckInOnTime), nullString(ss.CheckInLate),
			nullString(ss.BreakCheckpoint), nullString(ss.BreakInCutoff), ss.Midpoint, ss.MinimumBreakGap,
			ss.BreakEnd, nullString(ss.BreakInOnTime), nullString(ss.BreakInLate),
			nullString(ss.GracePeriod), crosses,
		)
		if err != nil {
			return fmt.Errorf("failed to insert shift %s: %w", ss.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rules: %w", err)
	}
	return nil
}

// IsReadOnly returns false since rules can be written through SaveSource
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
