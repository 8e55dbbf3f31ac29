package export

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/attendance/internal/attendance"
	"github.com/chrissnell/attendance/pkg/migrate"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteWriter appends runs to a SQLite database. Each run keeps its own
// records so repeated processing of the same input never overwrites history.
type SQLiteWriter struct {
	db     *sql.DB
	path   string
	logger *zap.SugaredLogger
}

// NewSQLiteWriter opens (creating if needed) the database at path and
// migrates it to the current schema.
func NewSQLiteWriter(path string, logger *zap.SugaredLogger) (*SQLiteWriter, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	provider := migrate.NewFSProvider(migrationFS, "migrations", "export_schema_migrations")
	if err := migrate.NewMigrator(db, provider, logger).MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", path, err)
	}

	return &SQLiteWriter{db: db, path: path, logger: logger}, nil
}

// Write stores the run and its records in one transaction.
func (w *SQLiteWriter) Write(ctx context.Context, run Run, records []attendance.Record) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, processed_at, record_count) VALUES (?, ?, ?, ?)`,
		run.ID, run.Source, run.ProcessedAt.Format(time.RFC3339), len(records))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO attendance_records (
		run_id, position, shift_date, employee_id, name, shift, shift_code,
		check_in, check_in_status, break_out, break_in, break_in_status, check_out
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		row := RowOf(r)
		_, err := stmt.ExecContext(ctx,
			run.ID, i, row.Date, row.ID, row.Name, row.Shift, r.ShiftCode,
			nullString(row.CheckIn), nullString(row.CheckInStatus),
			nullString(row.BreakOut), nullString(row.BreakIn), nullString(row.BreakInStatus),
			nullString(row.CheckOut))
		if err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}

	w.logger.Infof("stored %d records for run %s in %s", len(records), run.ID, w.path)
	return nil
}

// Rows reads back the records of one run in their original order.
func (w *SQLiteWriter) Rows(ctx context.Context, runID string) ([]Row, error) {
	rows, err := w.db.QueryContext(ctx, `SELECT
		shift_date, employee_id, name, shift,
		check_in, check_in_status, break_out, break_in, break_in_status, check_out
		FROM attendance_records WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r                                         Row
			checkIn, checkInStatus, breakOut, breakIn sql.NullString
			breakInStatus, checkOut                   sql.NullString
		)
		if err := rows.Scan(&r.Date, &r.ID, &r.Name, &r.Shift,
			&checkIn, &checkInStatus, &breakOut, &breakIn, &breakInStatus, &checkOut); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.CheckIn, r.CheckInStatus = checkIn.String, checkInStatus.String
		r.BreakOut, r.BreakIn, r.BreakInStatus = breakOut.String, breakIn.String, breakInStatus.String
		r.CheckOut = checkOut.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

// nullString stores blank values as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
