package dataprocessing

import (
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// dateLayouts are the textual date formats seen in Resights exports
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02.01.2006",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// DeriveOptions tunes field derivation
type DeriveOptions struct {
	// LabelColumn, when present in the dataset, labels map markers
	LabelColumn string
}

// Observation is the derived view of one kept record
type Observation struct {
	Metric domain.MetricValue
	X      domain.MetricValue
	Date   time.Time
	Point  domain.MaybeGeoPoint
	Label  string
}

// Enriched is the output of Derive
type Enriched struct {
	Schema       Schema
	Dataset      *domain.Dataset
	Observations []Observation
	Drops        domain.DropStats
}

// MetricValues returns the defined metric values in record order
func (e *Enriched) MetricValues() []float64 {
	out := make([]float64, 0, len(e.Observations))
	for _, o := range e.Observations {
		if o.Metric.Defined {
			out = append(out, o.Metric.Value)
		}
	}
	return out
}

// GeoPoints returns the present points in record order
func (e *Enriched) GeoPoints() []domain.LabeledPoint {
	var out []domain.LabeledPoint
	for _, o := range e.Observations {
		if o.Point.Present {
			out = append(out, domain.LabeledPoint{GeoPoint: o.Point.Point, Label: o.Label})
		}
	}
	return out
}

// Derive computes the derived fields of a validated dataset. The input is
// never modified; the enriched dataset holds copies of the kept records.
func Derive(ds *domain.Dataset, s Schema, opts DeriveOptions) *Enriched {
	out := &domain.Dataset{Columns: append([]string(nil), ds.Columns...)}
	if s.Derived() {
		out.AddColumn(s.MetricColumn)
	}

	// Uploaded coordinates win over the centroid and are never overwritten
	useLatLon := s.LatColumn != "" && ds.HasColumn(s.LatColumn) && ds.HasColumn(s.LonColumn)
	useCentroid := !useLatLon && s.CentroidColumn != "" && ds.HasColumn(s.CentroidColumn)
	if useCentroid {
		out.AddColumn(ColLat)
		out.AddColumn(ColLng)
	}
	labelled := opts.LabelColumn != "" && ds.HasColumn(opts.LabelColumn)

	e := &Enriched{Schema: s, Dataset: out}
	for _, src := range ds.Records {
		rec := make(domain.Record, len(out.Columns))
		for k, v := range src {
			rec[k] = v
		}
		var obs Observation

		if s.DateColumn != "" {
			t, ok := ParseDate(rec[s.DateColumn])
			if !ok {
				e.Drops.InvalidDate++
				continue
			}
			obs.Date = t
			rec[s.DateColumn] = domain.TimeValue(t)
		}

		obs.Metric = metricFor(rec, s)
		if !obs.Metric.Defined {
			if s.DateColumn != "" {
				e.Drops.MissingMetric++
				continue
			}
			e.Drops.UndefinedMetric++
		}
		if s.Derived() {
			if obs.Metric.Defined {
				rec[s.MetricColumn] = domain.NumberValue(obs.Metric.Value)
			} else {
				rec[s.MetricColumn] = domain.Value{}
			}
		}

		if s.XColumn != "" {
			if x, ok := rec[s.XColumn].Float(); ok {
				obs.X = domain.DefinedMetric(x)
			}
		}

		switch {
		case useCentroid:
			if p, err := ParsePoint(rec[s.CentroidColumn].String()); err == nil {
				obs.Point = domain.SomePoint(p)
				rec[ColLat] = domain.NumberValue(p.Lat)
				rec[ColLng] = domain.NumberValue(p.Lon)
			} else {
				e.Drops.InvalidGeo++
				rec[ColLat] = domain.Value{}
				rec[ColLng] = domain.Value{}
			}
		case useLatLon:
			if p, err := pointFromColumns(rec[s.LatColumn], rec[s.LonColumn]); err == nil {
				obs.Point = domain.SomePoint(p)
			} else {
				e.Drops.InvalidGeo++
			}
		}

		if labelled && obs.Point.Present {
			obs.Label = strings.TrimSpace(rec[opts.LabelColumn].String())
		}

		out.Records = append(out.Records, rec)
		e.Observations = append(e.Observations, obs)
	}
	return e
}

func metricFor(rec domain.Record, s Schema) domain.MetricValue {
	if s.Ratio != nil {
		num, ok1 := rec[s.Ratio.Numerator].Float()
		den, ok2 := rec[s.Ratio.Denominator].Float()
		if !ok1 || !ok2 || den == 0 {
			return domain.UndefinedMetric()
		}
		return domain.DefinedMetric(num / den)
	}
	v, ok := rec[s.MetricColumn].Float()
	if !ok {
		return domain.UndefinedMetric()
	}
	return domain.DefinedMetric(v)
}

// ParseDate interprets a cell as a date. Numbers are Excel serial dates
// (1900 system); text is tried against the known layouts.
func ParseDate(v domain.Value) (time.Time, bool) {
	switch v.Kind {
	case domain.ValueTime:
		return v.Time, true
	case domain.ValueNumber:
		return excelSerial(v.Num)
	case domain.ValueText:
		s := strings.TrimSpace(v.Text)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		if f, ok := domain.ParseNumber(s); ok {
			return excelSerial(f)
		}
	}
	return time.Time{}, false
}

func excelSerial(f float64) (time.Time, bool) {
	if f <= 0 || !finite(f) {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
