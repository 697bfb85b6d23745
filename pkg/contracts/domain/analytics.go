package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// MetricValue is an optional per-record metric. Undefined values are excluded
// from statistics and plots rather than treated as zero.
type MetricValue struct {
	Value   float64
	Defined bool
}

// DefinedMetric wraps a concrete metric value. NaN and infinities stay undefined.
func DefinedMetric(v float64) MetricValue {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return MetricValue{}
	}
	return MetricValue{Value: v, Defined: true}
}

// UndefinedMetric is the zero MetricValue
func UndefinedMetric() MetricValue { return MetricValue{} }

// MeanStatistic is the rounded mean of the per-area metric
type MeanStatistic struct {
	Metric  string
	Value   float64
	Defined bool
	Count   int
}

// Rounded returns the value rounded to two decimals
func (m MeanStatistic) Rounded() float64 {
	return math.Round(m.Value*100) / 100
}

// Display renders the statistic the way it is shown to users
func (m MeanStatistic) Display() string {
	if !m.Defined {
		return "undefined"
	}
	return strconv.FormatFloat(m.Rounded(), 'f', 2, 64)
}

// MarshalJSON renders an undefined mean as null, never as 0 or NaN
func (m MeanStatistic) MarshalJSON() ([]byte, error) {
	out := struct {
		Metric  string   `json:"metric"`
		Mean    *float64 `json:"mean"`
		Display string   `json:"display"`
		Defined bool     `json:"defined"`
		Count   int      `json:"count"`
	}{
		Metric:  m.Metric,
		Display: m.Display(),
		Defined: m.Defined,
		Count:   m.Count,
	}
	if m.Defined {
		r := m.Rounded()
		out.Mean = &r
	}
	return json.Marshal(out)
}

// DropStats counts records excluded while deriving fields
type DropStats struct {
	InvalidDate     int `json:"invalid_date"`
	MissingMetric   int `json:"missing_metric"`
	UndefinedMetric int `json:"undefined_metric"`
	InvalidGeo      int `json:"invalid_geo"`
}

// Dropped returns the number of records removed from the working dataset
func (d DropStats) Dropped() int {
	return d.InvalidDate + d.MissingMetric
}
