package domain

import (
	"fmt"
	"strings"
)

// SourceKind is the declared schema family of an uploaded dataset
type SourceKind string

const (
	// SourceUnselected means the user has not picked a data source yet
	SourceUnselected SourceKind = ""
	// SourceTransactions are transaction records exported from Resights
	SourceTransactions SourceKind = "transactions"
	// SourceRentLevels are rent-level records exported from ReData
	SourceRentLevels SourceKind = "rent_levels"
)

// sourceAliases maps every accepted spelling to its SourceKind.
// Keys are lower-cased and trimmed before lookup.
var sourceAliases = map[string]SourceKind{
	"transactions":          SourceTransactions,
	"resights":              SourceTransactions,
	"resights (handler)":    SourceTransactions,
	"rent_levels":           SourceRentLevels,
	"rentlevels":            SourceRentLevels,
	"redata":                SourceRentLevels,
	"redata (lejeniveauer)": SourceRentLevels,
}

// ParseSourceKind resolves a user supplied selector into a SourceKind.
// The empty string and the "-- Vælg --" placeholder map to SourceUnselected
// without an error; callers decide whether unselected is acceptable.
func ParseSourceKind(s string) (SourceKind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" || key == "-- vælg --" || key == "unselected" {
		return SourceUnselected, nil
	}
	if kind, ok := sourceAliases[key]; ok {
		return kind, nil
	}
	return SourceUnselected, fmt.Errorf("unknown source kind %q", s)
}

// IsSelected reports whether a concrete source kind was chosen
func (k SourceKind) IsSelected() bool {
	return k == SourceTransactions || k == SourceRentLevels
}

// DisplayName returns the label shown to users
func (k SourceKind) DisplayName() string {
	switch k {
	case SourceTransactions:
		return "Resights (handler)"
	case SourceRentLevels:
		return "ReData (lejeniveauer)"
	default:
		return "-- Vælg --"
	}
}

// SchemaVersion names one column mapping of a SourceKind
type SchemaVersion string

// SchemaVersionLatest resolves to the newest registered version of a kind
const SchemaVersionLatest SchemaVersion = "latest"

// PlotKind is the visual form of a PlotArtifact
type PlotKind string

const (
	PlotScatter      PlotKind = "scatter"
	PlotScatterTrend PlotKind = "scatter_trend"
	PlotHistogram    PlotKind = "histogram"
)

// PlotStyle is the configurable presentation for schemas that allow a choice
type PlotStyle string

const (
	PlotStyleDefault   PlotStyle = ""
	PlotStyleTrend     PlotStyle = "trend"
	PlotStyleHistogram PlotStyle = "histogram"
)

// ParsePlotStyle validates a plot style selector
func ParsePlotStyle(s string) (PlotStyle, error) {
	switch PlotStyle(strings.ToLower(strings.TrimSpace(s))) {
	case PlotStyleDefault:
		return PlotStyleDefault, nil
	case PlotStyleTrend:
		return PlotStyleTrend, nil
	case PlotStyleHistogram:
		return PlotStyleHistogram, nil
	}
	return PlotStyleDefault, fmt.Errorf("unknown plot style %q", s)
}
