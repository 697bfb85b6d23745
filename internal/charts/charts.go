// Package charts renders analysis plots to PNG with gonum/plot.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Antonpb/alfaapp/internal/dataprocessing"
	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// ErrNoData is returned when nothing can be plotted
var ErrNoData = errors.New("no plottable observations")

var (
	pointColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	trendColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	barColor   = color.RGBA{R: 31, G: 119, B: 180, A: 160}
)

// Options controls plot geometry
type Options struct {
	WidthCM  float64
	HeightCM float64
	Bins     int
}

// DefaultOptions matches the configured defaults
func DefaultOptions() Options {
	return Options{WidthCM: 16, HeightCM: 10, Bins: 20}
}

// Renderer draws PlotArtifacts. It holds no state between calls, so the
// same observations always produce the same image.
type Renderer struct {
	opts Options
}

// NewRenderer creates a Renderer, filling unset options with defaults
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.WidthCM <= 0 {
		opts.WidthCM = def.WidthCM
	}
	if opts.HeightCM <= 0 {
		opts.HeightCM = def.HeightCM
	}
	if opts.Bins <= 0 {
		opts.Bins = def.Bins
	}
	return &Renderer{opts: opts}
}

// Render draws the requested plot kind for an enriched dataset
func (r *Renderer) Render(e *dataprocessing.Enriched, kind domain.PlotKind) (*domain.PlotArtifact, error) {
	var (
		p      *plot.Plot
		points int
		err    error
	)
	switch kind {
	case domain.PlotScatter, domain.PlotScatterTrend:
		p, points, err = r.scatter(e, kind == domain.PlotScatterTrend)
	case domain.PlotHistogram:
		p, points, err = r.histogram(e)
	default:
		return nil, fmt.Errorf("unsupported plot kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	png, err := r.encode(p)
	if err != nil {
		return nil, err
	}
	return &domain.PlotArtifact{
		Kind:   kind,
		Title:  p.Title.Text,
		XLabel: p.X.Label.Text,
		YLabel: p.Y.Label.Text,
		Points: points,
		PNG:    png,
	}, nil
}

func (r *Renderer) scatter(e *dataprocessing.Enriched, withTrend bool) (*plot.Plot, int, error) {
	pts := dataprocessing.ScatterPoints(e)
	if len(pts) == 0 {
		return nil, 0, ErrNoData
	}

	xys := make(plotter.XYs, len(pts))
	xmin, xmax := math.Inf(1), math.Inf(-1)
	for i, pt := range pts {
		xys[i].X, xys[i].Y = pt.X, pt.Y
		xmin = math.Min(xmin, pt.X)
		xmax = math.Max(xmax, pt.X)
	}

	p := plot.New()
	p.Title.Text = e.Schema.Title
	p.Y.Label.Text = e.Schema.MetricColumn
	if e.Schema.DateColumn != "" {
		p.X.Label.Text = e.Schema.DateColumn
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	} else {
		p.X.Label.Text = e.Schema.XColumn
	}
	p.Add(plotter.NewGrid())

	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, 0, fmt.Errorf("scatter: %w", err)
	}
	s.GlyphStyle.Color = pointColor
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)

	if withTrend {
		if trend := dataprocessing.LinearTrend(pts); trend.OK {
			line := plotter.NewFunction(trend.At)
			line.XMin, line.XMax = xmin, xmax
			line.Color = trendColor
			line.Width = vg.Points(1.5)
			p.Add(line)
			p.Legend.Add("Lineær trend", line)
			p.Legend.Top = true
		}
	}
	return p, len(pts), nil
}

func (r *Renderer) histogram(e *dataprocessing.Enriched) (*plot.Plot, int, error) {
	values := e.MetricValues()
	if len(values) == 0 {
		return nil, 0, ErrNoData
	}

	p := plot.New()
	p.Title.Text = e.Schema.Title
	p.X.Label.Text = e.Schema.MetricColumn
	p.Y.Label.Text = "Tæthed"
	p.Add(plotter.NewGrid())

	h, err := plotter.NewHist(plotter.Values(values), r.opts.Bins)
	if err != nil {
		return nil, 0, fmt.Errorf("histogram: %w", err)
	}
	h.Normalize(1)
	h.FillColor = barColor
	p.Add(h)

	if kde := dataprocessing.NewKDE(values); kde != nil {
		xmin, xmax := plotter.Range(plotter.Values(values))
		pad := 3 * kde.Bandwidth()
		curve := plotter.NewFunction(kde.Density)
		curve.XMin, curve.XMax = xmin-pad, xmax+pad
		curve.Color = trendColor
		curve.Width = vg.Points(1.5)
		p.Add(curve)
	}
	return p, len(values), nil
}

func (r *Renderer) encode(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(vg.Length(r.opts.WidthCM)*vg.Centimeter, vg.Length(r.opts.HeightCM)*vg.Centimeter, "png")
	if err != nil {
		return nil, fmt.Errorf("png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
