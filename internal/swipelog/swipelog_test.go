package swipelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chrissnell/attendance/internal/attendance"
)

const sampleCSV = "\ufeffID, Name,Date,Time,Status,Door\n" +
	"1,Silver_Bui,2025.11.03,05:55:00,Success,Main\n" +
	",,,,,\n" +
	"2,Capone,2025.11.03,21:55:28,Failed\n"

func TestReadCSV(t *testing.T) {
	swipes, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []attendance.Swipe{
		{Person: "Silver_Bui", Date: "2025.11.03", Time: "05:55:00", Status: "Success"},
		{Person: "Capone", Date: "2025.11.03", Time: "21:55:28", Status: "Failed"},
	}, swipes)
}

func TestReadCSVMissingColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("ID,Name,When\n1,a,b\n"))
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "Date, Time, Status")

	_, err = ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestCheckPath(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "log.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))

	assert.NoError(t, CheckPath(csvPath))
	assert.ErrorIs(t, CheckPath(filepath.Join(dir, "log.txt")), ErrUnsupportedFormat)
	assert.ErrorIs(t, CheckPath(filepath.Join(dir, "missing.xlsx")), os.ErrNotExist)

	_, err := ReadFile(filepath.Join(dir, "missing.xls"))
	assert.Error(t, err)
}

func TestReadXLSXSerialCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"ID", "Name", "Date", "Time", "Status"},
		{1, "Capone", time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC), 0.913518518518, "Success"},
		{2, "Capone", "2025.11.04", "02:00:35", "Success"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	swipes, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []attendance.Swipe{
		{Person: "Capone", Date: "2025.11.03", Time: "21:55:28", Status: "Success"},
		{Person: "Capone", Date: "2025.11.04", Time: "02:00:35", Status: "Success"},
	}, swipes)
}

func TestConvertCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.csv")
	out := filepath.Join(dir, "log.xlsx")

	raw := "No,User,Day,Clock,Kind,Door,Result\n" +
		"1,Silver_Bui,2025.11.03,05:55:00,In,Main,Success\n" +
		"2,Capone,2025.11.03,21:55:28,In,Side,Success\n"
	require.NoError(t, os.WriteFile(in, []byte(raw), 0o644))

	n, err := ConvertCSV(in, out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ConvertSheet}, f.GetSheetList())
	got, err := f.GetRows(ConvertSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "Name", "Date", "Time", "Type", "Status"},
		{"1", "Silver_Bui", "2025.11.03", "05:55:00", "In", "Success"},
		{"2", "Capone", "2025.11.03", "21:55:28", "In", "Success"},
	}, got)

	// The converted workbook is directly readable as a swipe log.
	swipes, err := ReadFile(out)
	require.NoError(t, err)
	require.Len(t, swipes, 2)
	assert.Equal(t, "Capone", swipes[1].Person)
}

func TestConvertCSVErrors(t *testing.T) {
	dir := t.TempDir()
	narrow := filepath.Join(dir, "narrow.csv")
	require.NoError(t, os.WriteFile(narrow, []byte("a,b,c\n1,2,3\n"), 0o644))
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	tests := []struct {
		name    string
		in, out string
		is      error
	}{
		{name: "wrong input extension", in: filepath.Join(dir, "raw.txt"), out: filepath.Join(dir, "o.xlsx"), is: ErrUnsupportedFormat},
		{name: "missing input", in: filepath.Join(dir, "missing.csv"), out: filepath.Join(dir, "o.xlsx"), is: os.ErrNotExist},
		{name: "wrong output extension", in: narrow, out: filepath.Join(dir, "o.csv"), is: ErrUnsupportedFormat},
		{name: "missing output directory", in: narrow, out: filepath.Join(dir, "nope", "o.xlsx"), is: os.ErrNotExist},
		{name: "too few columns", in: narrow, out: filepath.Join(dir, "o.xlsx"), is: ErrTooFewColumns},
		{name: "empty input", in: empty, out: filepath.Join(dir, "o.xlsx")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConvertCSV(tt.in, tt.out)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}
