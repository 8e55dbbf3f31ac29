// Package export writes attendance records to spreadsheets, flat files and
// databases.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/attendance/internal/attendance"
	"github.com/chrissnell/attendance/internal/sheet"
)

// Output formats accepted by NewFileWriter.
const (
	FormatXLSX    = "xlsx"
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatMsgPack = "msgpack"
)

// ErrUnknownFormat is returned for an output format no writer handles.
var ErrUnknownFormat = errors.New("unknown output format")

// Writer is a destination for one run's records.
type Writer interface {
	Write(ctx context.Context, run Run, records []attendance.Record) error
	Close() error
}

// Run identifies one processing run across every destination it is written to.
type Run struct {
	ID          string
	Source      string
	ProcessedAt time.Time
}

// NewRun stamps a run of source with a fresh ID.
func NewRun(source string, now time.Time) Run {
	return Run{
		ID:          uuid.NewString(),
		Source:      source,
		ProcessedAt: now.UTC().Truncate(time.Second),
	}
}

// Columns is the output layout shared by every tabular writer.
var Columns = []sheet.Column{
	{Title: "Date", Width: 12},
	{Title: "ID", Width: 10},
	{Title: "Name", Width: 20},
	{Title: "Shift", Width: 12},
	{Title: "Check-in", Width: 12},
	{Title: "Check-in Status", Width: 14},
	{Title: "Break Time Out", Width: 12},
	{Title: "Break Time In", Width: 12},
	{Title: "Break Time In Status", Width: 14},
	{Title: "Check Out Record", Width: 12},
}

// Row is the text form of a record. Blank times and statuses are empty strings.
type Row struct {
	Date          string `json:"date"`
	ID            string `json:"id"`
	Name          string `json:"name"`
	Shift         string `json:"shift"`
	CheckIn       string `json:"check_in"`
	CheckInStatus string `json:"check_in_status"`
	BreakOut      string `json:"break_out"`
	BreakIn       string `json:"break_in"`
	BreakInStatus string `json:"break_in_status"`
	CheckOut      string `json:"check_out"`
}

// DateLayout formats record dates in text outputs.
const DateLayout = "2006-01-02"

// RowOf flattens a record.
func RowOf(r attendance.Record) Row {
	return Row{
		Date:          r.Date.Format(DateLayout),
		ID:            r.ID,
		Name:          r.Name,
		Shift:         r.Shift,
		CheckIn:       r.CheckIn.String(),
		CheckInStatus: string(r.CheckInStatus),
		BreakOut:      r.BreakOut.String(),
		BreakIn:       r.BreakIn.String(),
		BreakInStatus: string(r.BreakInStatus),
		CheckOut:      r.CheckOut.String(),
	}
}

// Values returns the row's cells in Columns order.
func (r Row) Values() []string {
	return []string{
		r.Date, r.ID, r.Name, r.Shift,
		r.CheckIn, r.CheckInStatus,
		r.BreakOut, r.BreakIn, r.BreakInStatus,
		r.CheckOut,
	}
}

func rowsOf(records []attendance.Record) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = RowOf(r)
	}
	return rows
}

// FormatFromPath infers the output format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case FormatXLSX, FormatCSV, FormatJSON:
		return ext, nil
	case "msgpack", "mpk":
		return FormatMsgPack, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// NewFileWriter returns the writer for format that writes to path.
func NewFileWriter(format, path string) (Writer, error) {
	switch format {
	case FormatXLSX:
		return NewXLSXWriter(path), nil
	case FormatCSV:
		return NewCSVWriter(path), nil
	case FormatJSON, FormatMsgPack:
		return NewEncodedWriter(format, path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// AvailablePath returns path if nothing exists there. Otherwise it tries
// <stem>_YYYYMMDD_HHMMSS<ext> for now, then <stem>_1<ext>, <stem>_2<ext>, ...
func AvailablePath(path string, now time.Time) (string, error) {
	free, err := isFree(path)
	if err != nil || free {
		return path, err
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	candidate := fmt.Sprintf("%s_%s%s", stem, now.Format("20060102_150405"), ext)
	if free, err := isFree(candidate); err != nil || free {
		return candidate, err
	}

	for n := 1; ; n++ {
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
		if free, err := isFree(candidate); err != nil || free {
			return candidate, err
		}
	}
}

func isFree(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	return false, err
}
