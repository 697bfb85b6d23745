package domain

import (
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the dynamic type held by a Value
type ValueKind int

const (
	ValueEmpty ValueKind = iota
	ValueNumber
	ValueText
	ValueTime
)

// Value is a single typed spreadsheet cell
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
	Time time.Time
}

// NumberValue wraps a float64
func NumberValue(f float64) Value { return Value{Kind: ValueNumber, Num: f} }

// TextValue wraps a string
func TextValue(s string) Value { return Value{Kind: ValueText, Text: s} }

// TimeValue wraps a time.Time
func TimeValue(t time.Time) Value { return Value{Kind: ValueTime, Time: t} }

// IsEmpty reports whether the cell held nothing
func (v Value) IsEmpty() bool { return v.Kind == ValueEmpty }

// Float returns the numeric interpretation of the value.
// Text cells are parsed leniently, accepting both 1234.5 and the Danish 1.234,5.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case ValueNumber:
		return v.Num, true
	case ValueText:
		return ParseNumber(v.Text)
	}
	return 0, false
}

// String renders the value for previews and CSV export
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueText:
		return v.Text
	case ValueTime:
		return v.Time.Format("2006-01-02")
	}
	return ""
}

// MarshalJSON emits numbers as JSON numbers, everything else as strings or null
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return []byte(strconv.FormatFloat(v.Num, 'f', -1, 64)), nil
	case ValueEmpty:
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(v.String())), nil
}

// ParseNumber parses a numeric string, tolerating thousands separators and a
// decimal comma. An empty or non-numeric string is not a number.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if strings.Contains(s, ",") {
		danish := strings.ReplaceAll(s, ".", "")
		danish = strings.Replace(danish, ",", ".", 1)
		if f, err := strconv.ParseFloat(danish, 64); err == nil {
			return f, true
		}
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Record maps column names to cell values
type Record map[string]Value

// Dataset is an ordered table of records with exact column names
type Dataset struct {
	Columns []string
	Records []Record
}

// HasColumn reports whether a column is present by exact name
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column name if it is not already present
func (d *Dataset) AddColumn(name string) {
	if !d.HasColumn(name) {
		d.Columns = append(d.Columns, name)
	}
}

// Len returns the number of records
func (d *Dataset) Len() int { return len(d.Records) }

// Head returns up to n records in column order, as used by previews
func (d *Dataset) Head(n int) []Record {
	if n > len(d.Records) {
		n = len(d.Records)
	}
	if n < 0 {
		n = 0
	}
	return d.Records[:n]
}

// Preview is a JSON friendly rendering of the first rows of a Dataset
type Preview struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
	Total   int       `json:"total_rows"`
}

// NewPreview builds a Preview of the first n records
func NewPreview(d *Dataset, n int) Preview {
	head := d.Head(n)
	rows := make([][]Value, 0, len(head))
	for _, rec := range head {
		row := make([]Value, len(d.Columns))
		for i, col := range d.Columns {
			row[i] = rec[col]
		}
		rows = append(rows, row)
	}
	return Preview{
		Columns: append([]string(nil), d.Columns...),
		Rows:    rows,
		Total:   d.Len(),
	}
}

// FileFormat is the container format of an uploaded dataset
type FileFormat string

const (
	FormatXLSX FileFormat = "xlsx"
	FormatCSV  FileFormat = "csv"
)
