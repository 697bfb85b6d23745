// Package geomap renders clustered marker maps as standalone HTML pages.
package geomap

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

//go:embed map.html.tmpl
var pageTemplate string

// DefaultTileURL is the OpenStreetMap tile server
const DefaultTileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"

// Options controls the rendered page
type Options struct {
	Title   string
	TileURL string
	Zoom    int
}

// Mapper renders MapArtifacts
type Mapper struct {
	opts Options
	tmpl *template.Template
}

// NewMapper creates a Mapper
func NewMapper(opts Options) *Mapper {
	if opts.TileURL == "" {
		opts.TileURL = DefaultTileURL
	}
	if opts.Title == "" {
		opts.Title = "Kort"
	}
	if opts.Zoom <= 0 {
		opts.Zoom = 11
	}
	return &Mapper{
		opts: opts,
		tmpl: template.Must(template.New("map").Parse(pageTemplate)),
	}
}

type pageData struct {
	Title   string
	TileURL string
	Zoom    int
	Center  domain.GeoPoint
	Points  template.JS
	Markers int
}

// Render builds a map of the valid points. When no point survives
// filtering, ok is false and no artifact is produced.
func (m *Mapper) Render(points []domain.LabeledPoint) (art *domain.MapArtifact, ok bool, err error) {
	fc, mp := collect(points)
	if len(mp) == 0 {
		return nil, false, nil
	}

	center, _ := planar.CentroidArea(mp)
	raw, err := fc.MarshalJSON()
	if err != nil {
		return nil, false, fmt.Errorf("marshal geojson: %w", err)
	}

	data := pageData{
		Title:   m.opts.Title,
		TileURL: m.opts.TileURL,
		Zoom:    m.opts.Zoom,
		Center:  domain.GeoPoint{Lat: center.Lat(), Lon: center.Lon()},
		Points:  template.JS(raw),
		Markers: len(mp),
	}
	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, data); err != nil {
		return nil, false, fmt.Errorf("render map: %w", err)
	}

	return &domain.MapArtifact{
		Center:  data.Center,
		Markers: data.Markers,
		HTML:    buf.Bytes(),
	}, true, nil
}

func collect(points []domain.LabeledPoint) (*geojson.FeatureCollection, orb.MultiPoint) {
	fc := geojson.NewFeatureCollection()
	var mp orb.MultiPoint
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		pt := orb.Point{p.Lon, p.Lat}
		f := geojson.NewFeature(pt)
		if p.Label != "" {
			f.Properties["label"] = p.Label
		}
		fc.Append(f)
		mp = append(mp, pt)
	}
	return fc, mp
}
