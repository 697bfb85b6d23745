package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Workbook describes a single-sheet spreadsheet fixture
type Workbook struct {
	Sheet   string
	Headers []string
	Rows    [][]any
}

// Bytes renders the workbook as xlsx bytes. Cell values are written with
// excelize's type handling, so time.Time becomes a date-formatted serial.
func (w Workbook) Bytes(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if w.Sheet != "" && w.Sheet != sheet {
		if err := f.SetSheetName(sheet, w.Sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
		sheet = w.Sheet
	}

	for c, h := range w.Headers {
		setCell(t, f, sheet, c+1, 1, h)
	}
	for r, row := range w.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			setCell(t, f, sheet, c+1, r+2, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteFile saves the workbook under dir and returns its path
func (w Workbook) WriteFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, w.Bytes(t), 0644); err != nil {
		t.Fatalf("write workbook file: %v", err)
	}
	return path
}

func setCell(t *testing.T, f *excelize.File, sheet string, col, row int, v any) {
	t.Helper()
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		t.Fatalf("cell name: %v", err)
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		t.Fatalf("set %s: %v", cell, err)
	}
}
