package dataprocessing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// Column names as they appear in Resights and ReData exports
const (
	ColArea            = "Areal"
	ColSalePrice       = "Salgspris"
	ColPricePerM2      = "Pris_pr_m2"
	ColTradeDate       = "Handelsdato"
	ColUnitPricePerM2  = "Pris pr. m2 (enhedsareal)"
	ColRentPerM2       = "Leje/m2"
	ColRentPerM2Legacy = "Leje_m2"
	ColCentroid        = "Centroid"
	ColLat             = "Lat"
	ColLng             = "Lng"
)

var (
	// ErrUnselectedSource is returned when no source kind has been chosen
	ErrUnselectedSource = errors.New("no data source selected")
	// ErrUnknownSchemaVersion is returned for a version the registry does not know
	ErrUnknownSchemaVersion = errors.New("unknown schema version")
)

// Ratio derives a metric column as Numerator / Denominator
type Ratio struct {
	Numerator   string
	Denominator string
}

// Schema is one versioned column mapping of a SourceKind
type Schema struct {
	Kind    domain.SourceKind
	Version domain.SchemaVersion
	Latest  bool

	Required []string
	Optional []string

	// MetricColumn holds the per-area metric, either read directly or
	// written by Derive when Ratio is set.
	MetricColumn string
	Ratio        *Ratio
	MetricLabel  string

	// DateColumn marks a dated schema: records without a parseable date
	// or metric are dropped.
	DateColumn string
	// XColumn is the numeric x axis for undated scatters.
	XColumn string

	CentroidColumn string
	LatColumn      string
	LonColumn      string

	DefaultPlot  domain.PlotKind
	AllowedPlots []domain.PlotKind
	Title        string
}

// Derived reports whether the metric is computed rather than read
func (s Schema) Derived() bool { return s.Ratio != nil }

// PlotFor picks the plot kind for a configured style. Styles the schema
// does not allow fall back to its default plot.
func (s Schema) PlotFor(style domain.PlotStyle) domain.PlotKind {
	want := s.DefaultPlot
	switch style {
	case domain.PlotStyleTrend:
		want = domain.PlotScatterTrend
	case domain.PlotStyleHistogram:
		want = domain.PlotHistogram
	}
	for _, k := range s.AllowedPlots {
		if k == want {
			return want
		}
	}
	return s.DefaultPlot
}

// Registry holds the known schemas per source kind
type Registry struct {
	schemas map[domain.SourceKind][]Schema
}

// NewRegistry builds a registry. Exactly one schema per kind must be latest.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[domain.SourceKind][]Schema)}
	for _, s := range schemas {
		for _, existing := range r.schemas[s.Kind] {
			if existing.Version == s.Version {
				return nil, fmt.Errorf("duplicate schema %s/%s", s.Kind, s.Version)
			}
		}
		r.schemas[s.Kind] = append(r.schemas[s.Kind], s)
	}
	for kind, list := range r.schemas {
		latest := 0
		for _, s := range list {
			if s.Latest {
				latest++
			}
		}
		if latest != 1 {
			return nil, fmt.Errorf("source %s needs exactly one latest schema, has %d", kind, latest)
		}
	}
	return r, nil
}

// DefaultRegistry returns the built-in Resights and ReData mappings
func DefaultRegistry() *Registry {
	r, err := NewRegistry(builtinSchemas()...)
	if err != nil {
		panic(err)
	}
	return r
}

func builtinSchemas() []Schema {
	areaRatio := &Ratio{Numerator: ColSalePrice, Denominator: ColArea}
	return []Schema{
		{
			Kind:         domain.SourceTransactions,
			Version:      "v1",
			Required:     []string{ColArea, ColSalePrice},
			MetricColumn: ColPricePerM2,
			Ratio:        areaRatio,
			MetricLabel:  "Gennemsnitlig pris pr. m²",
			XColumn:      ColArea,
			DefaultPlot:  domain.PlotScatter,
			AllowedPlots: []domain.PlotKind{domain.PlotScatter},
			Title:        "Pris pr. m² vs. Areal",
		},
		{
			Kind:           domain.SourceTransactions,
			Version:        "v2",
			Latest:         true,
			Required:       []string{ColTradeDate, ColUnitPricePerM2},
			Optional:       []string{ColCentroid, ColLat, ColLng},
			MetricColumn:   ColUnitPricePerM2,
			MetricLabel:    "Gennemsnitlig pris pr. m²",
			DateColumn:     ColTradeDate,
			CentroidColumn: ColCentroid,
			LatColumn:      ColLat,
			LonColumn:      ColLng,
			DefaultPlot:    domain.PlotScatterTrend,
			AllowedPlots:   []domain.PlotKind{domain.PlotScatterTrend},
			Title:          "Pris pr. m² over tid",
		},
		{
			Kind:         domain.SourceRentLevels,
			Version:      "v1",
			Required:     []string{ColRentPerM2Legacy},
			MetricColumn: ColRentPerM2Legacy,
			MetricLabel:  "Gennemsnitlig leje pr. m²",
			DefaultPlot:  domain.PlotHistogram,
			AllowedPlots: []domain.PlotKind{domain.PlotHistogram},
			Title:        "Fordeling af lejeniveauer (kr./m²)",
		},
		{
			Kind:         domain.SourceRentLevels,
			Version:      "v2",
			Required:     []string{ColArea, ColSalePrice},
			Optional:     []string{ColLat, ColLng},
			MetricColumn: ColPricePerM2,
			Ratio:        areaRatio,
			MetricLabel:  "Gennemsnitlig pris pr. m²",
			XColumn:      ColArea,
			LatColumn:    ColLat,
			LonColumn:    ColLng,
			DefaultPlot:  domain.PlotScatter,
			AllowedPlots: []domain.PlotKind{domain.PlotScatter},
			Title:        "Pris pr. m² vs. Areal",
		},
		{
			Kind:         domain.SourceRentLevels,
			Version:      "v3",
			Latest:       true,
			Required:     []string{ColArea, ColRentPerM2},
			Optional:     []string{ColLat, ColLng},
			MetricColumn: ColRentPerM2,
			MetricLabel:  "Gennemsnitlig leje pr. m²",
			XColumn:      ColArea,
			LatColumn:    ColLat,
			LonColumn:    ColLng,
			DefaultPlot:  domain.PlotScatterTrend,
			AllowedPlots: []domain.PlotKind{domain.PlotScatterTrend, domain.PlotHistogram},
			Title:        "Leje pr. m² vs. Areal",
		},
	}
}

// Resolve finds the schema for a kind and version. The empty version and
// "latest" both resolve to the latest schema; no other fallback happens.
func (r *Registry) Resolve(kind domain.SourceKind, version domain.SchemaVersion) (Schema, error) {
	if !kind.IsSelected() {
		return Schema{}, ErrUnselectedSource
	}
	list, ok := r.schemas[kind]
	if !ok {
		return Schema{}, fmt.Errorf("%w: no schemas for %s", ErrUnknownSchemaVersion, kind)
	}
	v := domain.SchemaVersion(strings.ToLower(strings.TrimSpace(string(version))))
	for _, s := range list {
		if (v == "" || v == domain.SchemaVersionLatest) && s.Latest {
			return s, nil
		}
		if s.Version == v {
			return s, nil
		}
	}
	return Schema{}, fmt.Errorf("%w: %s/%s", ErrUnknownSchemaVersion, kind, version)
}

// List returns every schema ordered by kind then version
func (r *Registry) List() []Schema {
	var out []Schema
	for _, list := range r.schemas {
		out = append(out, list...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Version < out[j].Version
	})
	return out
}

// Detect resolves the schema and checks the dataset against it
func (r *Registry) Detect(ds *domain.Dataset, kind domain.SourceKind, version domain.SchemaVersion) (ValidationResult, error) {
	s, err := r.Resolve(kind, version)
	if err != nil {
		return ValidationResult{}, err
	}
	return Detect(ds, s), nil
}

// ValidationResult is the outcome of schema detection
type ValidationResult struct {
	Valid          bool
	Schema         Schema
	MissingColumns []string
}

// Detect checks that every required column is present by exact name.
// Optional columns never affect validity.
func Detect(ds *domain.Dataset, s Schema) ValidationResult {
	var missing []string
	for _, col := range s.Required {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return ValidationResult{
		Valid:          len(missing) == 0,
		Schema:         s,
		MissingColumns: missing,
	}
}

// Message is the user facing explanation of an invalid result
func (v ValidationResult) Message() string {
	if v.Valid || len(v.MissingColumns) == 0 {
		return ""
	}
	quoted := make([]string, len(v.MissingColumns))
	for i, c := range v.MissingColumns {
		quoted[i] = "'" + c + "'"
	}
	if len(quoted) == 1 {
		return fmt.Sprintf("Kolonnen %s mangler i data.", quoted[0])
	}
	head := strings.Join(quoted[:len(quoted)-1], ", ")
	return fmt.Sprintf("Kolonnerne %s og %s mangler i data.", head, quoted[len(quoted)-1])
}
