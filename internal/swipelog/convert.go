package swipelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/chrissnell/attendance/internal/sheet"
)

// ConvertSheet is the name of the sheet ConvertCSV writes.
const ConvertSheet = "Data"

// ErrTooFewColumns is returned when a CSV row cannot supply every extracted column.
var ErrTooFewColumns = errors.New("CSV has too few columns")

// convertColumns maps source CSV column indexes to the output layout.
var convertColumns = []struct {
	source int
	column sheet.Column
}{
	{0, sheet.Column{Title: "ID", Width: 15}},
	{1, sheet.Column{Title: "Name", Width: 15}},
	{2, sheet.Column{Title: "Date", Width: 15}},
	{3, sheet.Column{Title: "Time", Width: 15}},
	{4, sheet.Column{Title: "Type", Width: 15}},
	{6, sheet.Column{Title: "Status", Width: 15}},
}

// ConvertCSV extracts columns 1-5 and 7 of a raw CSV export into an xlsx
// workbook with the ID, Name, Date, Time, Type, Status header the processor
// reads. The CSV's own header row is replaced. It returns the number of data
// rows written.
func ConvertCSV(inPath, outPath string) (int, error) {
	if err := checkConvertPaths(inPath, outPath); err != nil {
		return 0, err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return 0, fmt.Errorf("error opening %s: %w", inPath, err)
	}
	defer in.Close()

	f, err := sheet.NewWorkbook(ConvertSheet)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := convert(in, f)
	if err != nil {
		return 0, err
	}

	if err := f.SaveAs(outPath); err != nil {
		return 0, fmt.Errorf("error saving %s: %w", outPath, err)
	}
	return n, nil
}

func checkConvertPaths(inPath, outPath string) error {
	if ext := filepath.Ext(inPath); !strings.EqualFold(ext, ".csv") {
		return fmt.Errorf("%w: input must be .csv, got %q", ErrUnsupportedFormat, ext)
	}
	if _, err := os.Stat(inPath); err != nil {
		return fmt.Errorf("input file: %w", err)
	}

	if ext := filepath.Ext(outPath); !strings.EqualFold(ext, ".xlsx") {
		return fmt.Errorf("%w: output must be .xlsx, got %q", ErrUnsupportedFormat, ext)
	}
	if _, err := os.Stat(filepath.Dir(outPath)); err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	return nil
}

func convert(r io.Reader, f *excelize.File) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	need := 0
	columns := make([]sheet.Column, len(convertColumns))
	for i, c := range convertColumns {
		columns[i] = c.column
		if c.source+1 > need {
			need = c.source + 1
		}
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, errors.New("CSV file is empty")
	}
	if err != nil {
		return 0, fmt.Errorf("error reading CSV header: %w", err)
	}
	if len(header) < need {
		return 0, fmt.Errorf("%w: found %d, need at least %d", ErrTooFewColumns, len(header), need)
	}

	if err := sheet.WriteHeader(f, ConvertSheet, columns); err != nil {
		return 0, err
	}

	n := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("error reading CSV row %d: %w", n+2, err)
		}
		if len(record) < need {
			return n, fmt.Errorf("%w: row %d has %d fields", ErrTooFewColumns, n+2, len(record))
		}

		values := make([]interface{}, len(convertColumns))
		for i, c := range convertColumns {
			values[i] = record[c.source]
		}

		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return n, err
		}
		if err := f.SetSheetRow(ConvertSheet, cell, &values); err != nil {
			return n, fmt.Errorf("error writing row %d: %w", n+2, err)
		}
		n++
	}

	return n, nil
}
