package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"

	"github.com/chrissnell/attendance/internal/attendance"
	"github.com/chrissnell/attendance/internal/sheet"
)

// SheetName is the worksheet the xlsx writer fills.
const SheetName = "Attendance"

// XLSXWriter writes records to a formatted workbook.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates a writer for path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write replaces the workbook at the writer's path.
func (w *XLSXWriter) Write(_ context.Context, _ Run, records []attendance.Record) error {
	f, err := sheet.NewWorkbook(SheetName)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := sheet.WriteHeader(f, SheetName, Columns); err != nil {
		return err
	}

	dateFormat := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return fmt.Errorf("error creating date style: %w", err)
	}

	for i, r := range records {
		row := RowOf(r)
		values := make([]interface{}, 0, len(Columns))
		values = append(values, r.Date)
		for _, v := range row.Values()[1:] {
			values = append(values, v)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+2, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, dateStyle); err != nil {
			return err
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("error saving %s: %w", w.path, err)
	}
	return nil
}

// Close is a no-op; every Write is self-contained.
func (w *XLSXWriter) Close() error {
	return nil
}

// CSVWriter writes records as CSV with the spreadsheet's header.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a writer for path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

func (w *CSVWriter) Write(_ context.Context, _ Run, records []attendance.Record) error {
	return writeFile(w.path, func(out io.Writer) error {
		return WriteCSV(out, records)
	})
}

func (w *CSVWriter) Close() error {
	return nil
}

// WriteCSV writes the header and one line per record to out.
func WriteCSV(out io.Writer, records []attendance.Record) error {
	cw := csv.NewWriter(out)

	header := make([]string, len(Columns))
	for i, c := range Columns {
		header[i] = c.Title
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(RowOf(r).Values()); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Document is the JSON and MessagePack representation of a run.
type Document struct {
	RunID       string `json:"run_id"`
	Source      string `json:"source"`
	ProcessedAt string `json:"processed_at"`
	Records     []Row  `json:"records"`
}

// NewDocument builds the encoded form of a run.
func NewDocument(run Run, records []attendance.Record) Document {
	return Document{
		RunID:       run.ID,
		Source:      run.Source,
		ProcessedAt: run.ProcessedAt.Format("2006-01-02T15:04:05Z07:00"),
		Records:     rowsOf(records),
	}
}

// EncodedWriter writes a Document as JSON or MessagePack.
type EncodedWriter struct {
	format string
	path   string
}

// NewEncodedWriter creates a writer for FormatJSON or FormatMsgPack.
func NewEncodedWriter(format, path string) *EncodedWriter {
	return &EncodedWriter{format: format, path: path}
}

func (w *EncodedWriter) Write(_ context.Context, run Run, records []attendance.Record) error {
	doc := NewDocument(run, records)
	return writeFile(w.path, func(out io.Writer) error {
		return Encode(out, w.format, doc)
	})
}

func (w *EncodedWriter) Close() error {
	return nil
}

// Encode writes data in format. MessagePack uses the json struct tags so
// both encodings share field names.
func Encode(out io.Writer, format string, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatMsgPack:
		enc := msgpack.NewEncoder(out)
		enc.SetCustomStructTag("json")
		return enc.Encode(data)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode reads data written by Encode.
func Decode(in io.Reader, format string, v any) error {
	switch format {
	case FormatJSON:
		return json.NewDecoder(in).Decode(v)
	case FormatMsgPack:
		dec := msgpack.NewDecoder(in)
		dec.SetCustomStructTag("json")
		return dec.Decode(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func writeFile(path string, fill func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("error closing %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return bw.Flush()
}
