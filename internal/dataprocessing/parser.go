package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/Antonpb/alfaapp/internal/errors"
	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// LoadOptions tunes how an uploaded file is read
type LoadOptions struct {
	// Sheet selects a worksheet by name. Empty means the first sheet.
	Sheet string
}

// Loader reads uploaded spreadsheets into a Dataset.
// The first row is the header; column names are kept exactly as written.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load parses r according to its container format
func (l *Loader) Load(ctx context.Context, r io.Reader, format domain.FileFormat, opts LoadOptions) (*domain.Dataset, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case domain.FormatXLSX:
		rows, err = l.readWorkbook(ctx, r, opts.Sheet)
	case domain.FormatCSV:
		rows, err = readCSV(r)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported file format %q", format), nil)
	}
	if err != nil {
		return nil, err
	}

	ds := buildDataset(rows)
	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("format", string(format)),
		slog.Int("columns", len(ds.Columns)),
		slog.Int("records", ds.Len()))
	return ds, nil
}

func (l *Loader) readWorkbook(ctx context.Context, r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("workbook has no sheets", nil)
	}
	if sheet == "" {
		sheet = sheets[0]
	}

	// Raw values keep dates as serial numbers and numbers unformatted.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).WithContext("sheet", sheet)
	}
	l.logger.DebugContext(ctx, "worksheet read",
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))
	return rows, nil
}

// buildDataset turns raw rows into a Dataset. Blank header cells become
// "Unnamed: <index>" and repeated names get a ".N" suffix.
func buildDataset(rows [][]string) *domain.Dataset {
	ds := &domain.Dataset{}
	if len(rows) == 0 {
		return ds
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	header := rows[0]
	seen := make(map[string]int, width)
	ds.Columns = make([]string, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		ds.Columns[i] = name
	}

	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec := make(domain.Record, width)
		for i, col := range ds.Columns {
			if i < len(row) {
				rec[col] = cellValue(row[i])
			} else {
				rec[col] = domain.Value{}
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cellValue types a raw cell. Only plain finite numbers become numbers;
// localized numerals stay text and are interpreted later by Value.Float.
func cellValue(raw string) domain.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Value{}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return domain.NumberValue(f)
	}
	return domain.TextValue(raw)
}
