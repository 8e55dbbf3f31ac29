package export

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/attendance/internal/attendance"
)

// RunModel is the Postgres row for one processing run.
type RunModel struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	Source      string    `gorm:"not null"`
	ProcessedAt time.Time `gorm:"not null"`
	RecordCount int       `gorm:"not null"`
}

func (RunModel) TableName() string { return "attendance_runs" }

// RecordModel is the Postgres row for one attendance record.
type RecordModel struct {
	RunID         string    `gorm:"primaryKey;type:uuid"`
	Position      int       `gorm:"primaryKey"`
	ShiftDate     time.Time `gorm:"type:date;not null;index:idx_attendance_employee_date"`
	EmployeeID    string    `gorm:"not null;index:idx_attendance_employee_date"`
	Name          string    `gorm:"not null"`
	Shift         string    `gorm:"not null"`
	ShiftCode     string    `gorm:"not null"`
	CheckIn       *string
	CheckInStatus *string
	BreakOut      *string
	BreakIn       *string
	BreakInStatus *string
	CheckOut      *string
}

func (RecordModel) TableName() string { return "attendance_records" }

// PostgresWriter appends runs to a Postgres database through gorm.
type PostgresWriter struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewPostgresWriter connects to dsn and migrates the attendance tables. gorm
// logs through zapLogger at warn level.
func NewPostgresWriter(dsn string, zapLogger *zap.Logger) (*PostgresWriter, error) {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}

	dbLogger := logger.New(
		zap.NewStdLog(zapLogger),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	sugar := zapLogger.Sugar()
	sugar.Info("connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to create a Postgres connection: %w", err)
	}

	if err := db.AutoMigrate(&RunModel{}, &RecordModel{}); err != nil {
		closeGorm(db)
		return nil, fmt.Errorf("failed to migrate attendance tables: %w", err)
	}
	sugar.Info("Postgres connection successful")

	return &PostgresWriter{db: db, logger: sugar}, nil
}

// Write stores the run and its records in one transaction.
func (w *PostgresWriter) Write(ctx context.Context, run Run, records []attendance.Record) error {
	runRow, recordRows := Models(run, records)

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&runRow).Error; err != nil {
			return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
		}
		if len(recordRows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(recordRows, 500).Error; err != nil {
			return fmt.Errorf("failed to insert records: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.logger.Infof("stored %d records for run %s in Postgres", len(records), run.ID)
	return nil
}

// Close releases the connection pool.
func (w *PostgresWriter) Close() error {
	return closeGorm(w.db)
}

// Models converts a run to its gorm rows.
func Models(run Run, records []attendance.Record) (RunModel, []RecordModel) {
	runRow := RunModel{
		ID:          run.ID,
		Source:      run.Source,
		ProcessedAt: run.ProcessedAt,
		RecordCount: len(records),
	}

	rows := make([]RecordModel, len(records))
	for i, r := range records {
		row := RowOf(r)
		rows[i] = RecordModel{
			RunID:         run.ID,
			Position:      i,
			ShiftDate:     r.Date,
			EmployeeID:    r.ID,
			Name:          r.Name,
			Shift:         r.Shift,
			ShiftCode:     r.ShiftCode,
			CheckIn:       optional(row.CheckIn),
			CheckInStatus: optional(row.CheckInStatus),
			BreakOut:      optional(row.BreakOut),
			BreakIn:       optional(row.BreakIn),
			BreakInStatus: optional(row.BreakInStatus),
			CheckOut:      optional(row.CheckOut),
		}
	}
	return runRow, rows
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func closeGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
