// Package sheet holds the spreadsheet formatting shared by every xlsx the
// tools write.
package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// HeaderColor is the fill behind header cells.
const HeaderColor = "4472C4"

// Column is one output column.
type Column struct {
	Title string
	Width float64
}

// WriteHeader writes a bold white-on-blue header row to sheetName and sets
// column widths.
func WriteHeader(f *excelize.File, sheetName string, columns []Column) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{HeaderColor}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}

	titles := make([]interface{}, len(columns))
	for i, c := range columns {
		titles[i] = c.Title

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, c.Width); err != nil {
			return fmt.Errorf("error setting width of column %s: %w", name, err)
		}
	}

	if err := f.SetSheetRow(sheetName, "A1", &titles); err != nil {
		return fmt.Errorf("error writing header row: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetName, "A1", last, style)
}

// NewWorkbook returns a workbook whose only sheet is named sheetName.
func NewWorkbook(sheetName string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("error naming sheet %q: %w", sheetName, err)
	}
	return f, nil
}
