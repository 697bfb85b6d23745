package exporter

import (
	"strconv"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// formatFloat formats a float64 value for CSV output without trailing zeros
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatValue formats a cell for CSV output. Dates use ISO 8601 so the file
// sorts and re-imports cleanly.
func formatValue(v domain.Value) string {
	switch v.Kind {
	case domain.ValueNumber:
		return formatFloat(v.Num)
	case domain.ValueTime:
		return v.Time.Format("2006-01-02")
	case domain.ValueText:
		return v.Text
	}
	return ""
}
