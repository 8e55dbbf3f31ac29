// Package swipelog reads access-control swipe logs from spreadsheet and CSV
// exports and converts raw CSV dumps into the spreadsheet layout.
package swipelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/chrissnell/attendance/internal/attendance"
	"github.com/chrissnell/attendance/pkg/rules"
)

var (
	// ErrUnsupportedFormat is returned for files that are not .xlsx, .xls or .csv.
	ErrUnsupportedFormat = errors.New("unsupported swipe log format")
	// ErrMissingColumns is returned when the header lacks a required column.
	ErrMissingColumns = errors.New("missing required columns")
)

// RequiredColumns must appear in the header row of every swipe log.
var RequiredColumns = []string{"ID", "Name", "Date", "Time", "Status"}

// Extensions lists the accepted input file extensions.
var Extensions = []string{".xlsx", ".xls", ".csv"}

// CheckPath verifies that path exists and has an accepted extension.
func CheckPath(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, e := range Extensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedFormat, path, strings.Join(Extensions, ", "))
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input file %q is a directory", path)
	}
	return nil
}

// ReadFile reads every swipe from a spreadsheet or CSV file. Spreadsheets
// are read from their first sheet.
func ReadFile(path string) ([]attendance.Swipe, error) {
	if err := CheckPath(path); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls workbook %q, save it as .xlsx", ErrUnsupportedFormat, path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	}
	return ReadXLSX(path)
}

// ReadCSV reads swipes from CSV data whose first row is the header.
func ReadCSV(r io.Reader) ([]attendance.Swipe, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return fromRows(rows, nil)
}

// ReadXLSX reads swipes from the first sheet of a workbook. Date and time
// cells stored as spreadsheet serial numbers are converted to text.
func ReadXLSX(path string) ([]attendance.Swipe, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows, serialCell)
}

// fromRows maps header-matched rows to swipes. convert, when set, rewrites
// the date and time cells before they are stored.
func fromRows(rows [][]string, convert func(column, value string) string) ([]attendance.Swipe, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s (file is empty)", ErrMissingColumns, strings.Join(RequiredColumns, ", "))
	}

	index, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	cell := func(row []string, column string) string {
		i := index[column]
		if i >= len(row) {
			return ""
		}
		v := strings.TrimSpace(row[i])
		if convert != nil {
			v = convert(column, v)
		}
		return v
	}

	swipes := make([]attendance.Swipe, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		swipes = append(swipes, attendance.Swipe{
			Person: cell(row, "Name"),
			Date:   cell(row, "Date"),
			Time:   cell(row, "Time"),
			Status: cell(row, "Status"),
		})
	}
	return swipes, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return index, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// serialCell renders numeric Date and Time cells. Text cells pass through.
func serialCell(column, value string) string {
	if column != "Date" && column != "Time" {
		return value
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial < 0 {
		return value
	}

	if column == "Time" {
		// Only the fraction of a day matters for a time cell.
		secs := int(math.Round((serial - math.Floor(serial)) * 86400))
		return rules.NewTimeOfDay(0, 0, secs).String()
	}

	ts, err := excelize.ExcelDateToTime(math.Floor(serial), false)
	if err != nil {
		return value
	}
	return ts.Format("2006.01.02")
}
