package dataprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// Mean computes the mean of the defined metric values. With no qualifying
// records the statistic is undefined, never zero.
func Mean(e *Enriched) domain.MeanStatistic {
	values := e.MetricValues()
	st := domain.MeanStatistic{Metric: e.Schema.MetricColumn, Count: len(values)}
	if len(values) == 0 {
		return st
	}
	m := stat.Mean(values, nil)
	if !finite(m) {
		return st
	}
	st.Value = m
	st.Defined = true
	return st
}

// XY is one plotted observation
type XY struct {
	X, Y float64
}

// ScatterPoints returns the plottable observations for a schema. Dated
// schemas use Unix seconds on the x axis and are ordered chronologically.
func ScatterPoints(e *Enriched) []XY {
	var pts []XY
	for _, o := range e.Observations {
		if !o.Metric.Defined {
			continue
		}
		switch {
		case e.Schema.DateColumn != "":
			pts = append(pts, XY{X: float64(o.Date.Unix()), Y: o.Metric.Value})
		case o.X.Defined:
			pts = append(pts, XY{X: o.X.Value, Y: o.Metric.Value})
		}
	}
	if e.Schema.DateColumn != "" {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	}
	return pts
}

// Trend is an ordinary least squares line y = Alpha + Beta*x
type Trend struct {
	Alpha, Beta float64
	OK          bool
}

// At evaluates the line
func (t Trend) At(x float64) float64 { return t.Alpha + t.Beta*x }

// LinearTrend fits a line through the points. Fewer than two distinct x
// values give no trend.
func LinearTrend(pts []XY) Trend {
	if len(pts) < 2 {
		return Trend{}
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	distinct := false
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
		if p.X != pts[0].X {
			distinct = true
		}
	}
	if !distinct {
		return Trend{}
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if !finite(alpha) || !finite(beta) {
		return Trend{}
	}
	return Trend{Alpha: alpha, Beta: beta, OK: true}
}

// KDE is a Gaussian kernel density estimate
type KDE struct {
	samples   []float64
	bandwidth float64
}

// NewKDE builds an estimate using Scott's rule for the bandwidth. It
// returns nil when the samples have no spread.
func NewKDE(samples []float64) *KDE {
	if len(samples) < 2 {
		return nil
	}
	sd := stat.StdDev(samples, nil)
	if !finite(sd) || sd == 0 {
		return nil
	}
	bw := sd * math.Pow(float64(len(samples)), -0.2)
	return &KDE{samples: append([]float64(nil), samples...), bandwidth: bw}
}

// Bandwidth returns the kernel width
func (k *KDE) Bandwidth() float64 { return k.bandwidth }

// Density evaluates the estimate at x
func (k *KDE) Density(x float64) float64 {
	kernel := distuv.Normal{Mu: 0, Sigma: k.bandwidth}
	sum := 0.0
	for _, s := range k.samples {
		sum += kernel.Prob(x - s)
	}
	return sum / float64(len(k.samples))
}
