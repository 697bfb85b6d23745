package dataprocessing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

func TestMean_RentLevelsScenario(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{ColArea, ColRentPerM2},
		Records: []domain.Record{
			{ColArea: domain.NumberValue(100), ColRentPerM2: domain.NumberValue(1000)},
			{ColArea: domain.NumberValue(200), ColRentPerM2: domain.NumberValue(1500)},
			{ColArea: domain.NumberValue(300), ColRentPerM2: domain.NumberValue(2000)},
		},
	}
	e := Derive(ds, mustResolve(t, domain.SourceRentLevels, "latest"), DeriveOptions{})

	m := Mean(e)
	assert.True(t, m.Defined)
	assert.Equal(t, 3, m.Count)
	assert.Equal(t, "1500.00", m.Display())

	pts := ScatterPoints(e)
	assert.Equal(t, []XY{{100, 1000}, {200, 1500}, {300, 2000}}, pts)

	trend := LinearTrend(pts)
	require.True(t, trend.OK)
	assert.InDelta(t, 5.0, trend.Beta, 1e-9)
	assert.InDelta(t, 500.0, trend.Alpha, 1e-9)
	assert.InDelta(t, 1750.0, trend.At(250), 1e-9)
}

func TestMean_TransactionsOverDatedRecords(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{ColTradeDate, ColUnitPricePerM2},
		Records: []domain.Record{
			{ColTradeDate: domain.TextValue("2024-03-01"), ColUnitPricePerM2: domain.NumberValue(10000.333)},
			{ColTradeDate: domain.TextValue("2024-01-01"), ColUnitPricePerM2: domain.NumberValue(20000)},
			{ColTradeDate: domain.TextValue("ukendt"), ColUnitPricePerM2: domain.NumberValue(1000000)},
		},
	}
	e := Derive(ds, mustResolve(t, domain.SourceTransactions, "latest"), DeriveOptions{})

	m := Mean(e)
	require.True(t, m.Defined)
	assert.Equal(t, 15000.17, m.Rounded())
	assert.Equal(t, 2, m.Count)

	pts := ScatterPoints(e)
	require.Len(t, pts, 2)
	assert.Less(t, pts[0].X, pts[1].X, "points are chronological")
	assert.Equal(t, 20000.0, pts[0].Y)
}

func TestMean_Undefined(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{ColArea, ColSalePrice},
		Records: []domain.Record{
			{ColArea: domain.NumberValue(0), ColSalePrice: domain.NumberValue(100)},
		},
	}
	e := Derive(ds, mustResolve(t, domain.SourceRentLevels, "v2"), DeriveOptions{})

	m := Mean(e)
	assert.False(t, m.Defined)
	assert.Equal(t, 0, m.Count)
	assert.Equal(t, "undefined", m.Display())
	assert.Empty(t, ScatterPoints(e))
}

func TestMean_Idempotent(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{ColRentPerM2Legacy},
		Records: []domain.Record{
			{ColRentPerM2Legacy: domain.NumberValue(812.4)},
			{ColRentPerM2Legacy: domain.NumberValue(1022.9)},
		},
	}
	s := mustResolve(t, domain.SourceRentLevels, "v1")

	first := Mean(Derive(ds, s, DeriveOptions{}))
	second := Mean(Derive(ds, s, DeriveOptions{}))
	assert.Equal(t, first, second)
}

func TestLinearTrend_Degenerate(t *testing.T) {
	assert.False(t, LinearTrend(nil).OK)
	assert.False(t, LinearTrend([]XY{{1, 2}}).OK)
	assert.False(t, LinearTrend([]XY{{1, 2}, {1, 3}}).OK, "vertical lines have no trend")
}

func TestKDE(t *testing.T) {
	assert.Nil(t, NewKDE([]float64{1}))
	assert.Nil(t, NewKDE([]float64{5, 5, 5}))

	k := NewKDE([]float64{1000, 1200, 1500, 1600, 2000})
	require.NotNil(t, k)
	assert.Greater(t, k.Bandwidth(), 0.0)

	// The density integrates to one.
	area := 0.0
	step := 1.0
	for x := -2000.0; x < 5000; x += step {
		area += k.Density(x) * step
	}
	assert.InDelta(t, 1.0, area, 1e-3)
	assert.Greater(t, k.Density(1500), k.Density(3000))
}

func TestScatterPoints_UsesUnixSeconds(t *testing.T) {
	when := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	e := &Enriched{
		Schema: Schema{DateColumn: ColTradeDate},
		Observations: []Observation{
			{Date: when, Metric: domain.DefinedMetric(1)},
			{Date: when, Metric: domain.DefinedMetric(math.NaN())},
		},
	}
	pts := ScatterPoints(e)
	require.Len(t, pts, 1)
	assert.Equal(t, float64(when.Unix()), pts[0].X)
}
