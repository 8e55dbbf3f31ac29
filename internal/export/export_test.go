package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/chrissnell/attendance/internal/attendance"
	"github.com/chrissnell/attendance/pkg/rules"
)

// sampleRecords runs the real pipeline so records carry genuine blank and
// set times.
func sampleRecords(t *testing.T) []attendance.Record {
	t.Helper()
	cfg, err := rules.DefaultSource().Build()
	require.NoError(t, err)

	var swipes []attendance.Swipe
	add := func(person, date string, clocks ...string) {
		for _, c := range clocks {
			swipes = append(swipes, attendance.Swipe{Person: person, Date: date, Time: c, Status: "Success"})
		}
	}
	add("Capone", "2025.11.03", "21:55:28")
	add("Capone", "2025.11.04", "02:00:35", "02:44:51", "06:03:14")
	add("Silver_Bui", "2025.11.03", "06:00:00", "10:08:00")

	res, err := attendance.NewProcessor(cfg, nil).Run(swipes)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	return res.Records
}

var wantRows = []Row{
	{
		Date: "2025-11-03", ID: "TPL0002", Name: "Pham Tan Phat", Shift: "Night",
		CheckIn: "21:55:28", CheckInStatus: "On Time",
		BreakOut: "02:00:35", BreakIn: "02:44:51", BreakInStatus: "Late",
		CheckOut: "06:03:14",
	},
	{
		Date: "2025-11-03", ID: "TPL0001", Name: "Bui Duc Toan", Shift: "Morning",
		CheckIn: "06:00:00", CheckInStatus: "On Time",
		BreakOut: "10:08:00",
	},
}

func testRun() Run {
	return Run{
		ID:          "6f1c2a58-3d0e-4a8b-9a57-1f0e8d7c2b11",
		Source:      "swipes.xlsx",
		ProcessedAt: time.Date(2025, 11, 5, 8, 30, 0, 0, time.UTC),
	}
}

func TestRowOf(t *testing.T) {
	records := sampleRecords(t)
	if diff := cmp.Diff(wantRows, rowsOf(records)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, wantRows[0].Values(), len(Columns))
}

func TestNewRun(t *testing.T) {
	now := time.Date(2025, 11, 5, 8, 30, 0, 123, time.FixedZone("ICT", 7*3600))
	a, b := NewRun("in.xlsx", now), NewRun("in.xlsx", now)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, 36)
	assert.Equal(t, time.UTC, a.ProcessedAt.Location())
	assert.Zero(t, a.ProcessedAt.Nanosecond())
}

func TestXLSXWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	w, err := NewFileWriter(FormatXLSX, path)
	require.NoError(t, err)
	require.NoError(t, w.Write(context.Background(), testRun(), sampleRecords(t)))
	require.NoError(t, w.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := make([]string, len(Columns))
	for i, c := range Columns {
		header[i] = c.Title
	}
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "2025-11-03", rows[1][0])
	assert.Equal(t, "02:44:51", rows[1][7])
	assert.Equal(t, "Late", rows[1][8])

	width, err := f.GetColWidth(SheetName, "C")
	require.NoError(t, err)
	assert.Equal(t, 20.0, width)

	styleID, err := f.GetCellStyle(SheetName, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	assert.True(t, style.Font.Bold)
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords(t)))

	want := "Date,ID,Name,Shift,Check-in,Check-in Status,Break Time Out,Break Time In,Break Time In Status,Check Out Record\n" +
		"2025-11-03,TPL0002,Pham Tan Phat,Night,21:55:28,On Time,02:00:35,02:44:51,Late,06:03:14\n" +
		"2025-11-03,TPL0001,Bui Duc Toan,Morning,06:00:00,On Time,10:08:00,,,\n"
	assert.Equal(t, want, buf.String())

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, NewCSVWriter(path).Write(context.Background(), testRun(), sampleRecords(t)))
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(onDisk))
}

func TestEncodedWriters(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords(t)

	for _, format := range []string{FormatJSON, FormatMsgPack} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "out."+format)
			w, err := NewFileWriter(format, path)
			require.NoError(t, err)
			require.NoError(t, w.Write(context.Background(), testRun(), records))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			var doc Document
			require.NoError(t, Decode(f, format, &doc))
			assert.Equal(t, NewDocument(testRun(), records), doc)
			assert.Equal(t, "2025-11-05T08:30:00Z", doc.ProcessedAt)
		})
	}
}

func TestJSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatJSON, wantRows[1]))
	assert.Contains(t, buf.String(), `"check_in": "06:00:00"`)
	assert.Contains(t, buf.String(), `"break_in": ""`)
}

func TestSQLiteWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.db")
	ctx := context.Background()

	w, err := NewSQLiteWriter(path, zap.NewNop().Sugar())
	require.NoError(t, err)

	first, second := testRun(), testRun()
	second.ID = "0b8d1c8e-5f7a-4a4e-8f0e-2a8c7b5d9e33"

	require.NoError(t, w.Write(ctx, first, sampleRecords(t)))
	require.NoError(t, w.Write(ctx, second, sampleRecords(t)[:1]))
	assert.Error(t, w.Write(ctx, first, nil), "run IDs are unique")

	got, err := w.Rows(ctx, first.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(wantRows, got); diff != "" {
		t.Errorf("stored rows mismatch (-want +got):\n%s", diff)
	}

	got, err = w.Rows(ctx, second.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// Reopening an existing database does not re-run migrations.
	require.NoError(t, w.Close())
	w, err = NewSQLiteWriter(path, nil)
	require.NoError(t, err)
	defer w.Close()
	got, err = w.Rows(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestModels(t *testing.T) {
	run := testRun()
	runRow, rows := Models(run, sampleRecords(t))

	assert.Equal(t, RunModel{ID: run.ID, Source: run.Source, ProcessedAt: run.ProcessedAt, RecordCount: 2}, runRow)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[1].Position)
	assert.Equal(t, "C", rows[0].ShiftCode)
	require.NotNil(t, rows[0].BreakInStatus)
	assert.Equal(t, "Late", *rows[0].BreakInStatus)
	assert.Nil(t, rows[1].BreakIn)
	assert.Nil(t, rows[1].CheckOut)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"out.xlsx", FormatXLSX},
		{"OUT.CSV", FormatCSV},
		{"out.json", FormatJSON},
		{"out.mpk", FormatMsgPack},
		{"out.msgpack", FormatMsgPack},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := FormatFromPath("out.txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = NewFileWriter("txt", "out.txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestAvailablePath(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 11, 4, 9, 30, 15, 0, time.UTC)
	path := filepath.Join(dir, "output.xlsx")

	got, err := AvailablePath(path, now)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	touch := func(p string) {
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	touch(path)
	got, err = AvailablePath(path, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "output_20251104_093015.xlsx"), got)

	touch(got)
	touch(filepath.Join(dir, "output_1.xlsx"))
	got, err = AvailablePath(path, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "output_2.xlsx"), got)
}

type failingWriter struct {
	writes int
	err    error
}

func (f *failingWriter) Write(context.Context, Run, []attendance.Record) error {
	f.writes++
	return f.err
}

func (f *failingWriter) Close() error { return f.err }

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	bad, good := &failingWriter{err: boom}, &failingWriter{}

	m := Multi{bad, good}
	err := m.Write(context.Background(), testRun(), nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, good.writes, "later writers still run")
	assert.ErrorIs(t, m.Close(), boom)
}
