package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

func mustResolve(t *testing.T, kind domain.SourceKind, version domain.SchemaVersion) Schema {
	t.Helper()
	s, err := DefaultRegistry().Resolve(kind, version)
	require.NoError(t, err)
	return s
}

func TestDerive_Transactions(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{ColTradeDate, ColUnitPricePerM2, ColCentroid, "Adresse"},
		Records: []domain.Record{
			{ColTradeDate: domain.NumberValue(45306), ColUnitPricePerM2: domain.NumberValue(20000), ColCentroid: domain.TextValue("POINT (10.0 56.0)"), "Adresse": domain.TextValue("Vej 1")},
			{ColTradeDate: domain.TextValue("01-02-2024"), ColUnitPricePerM2: domain.TextValue("30.000,5"), ColCentroid: domain.TextValue("garbage"), "Adresse": domain.TextValue("Vej 2")},
			{ColTradeDate: domain.TextValue("ikke en dato"), ColUnitPricePerM2: domain.NumberValue(99999), ColCentroid: domain.TextValue("POINT (11 55)")},
			{ColTradeDate: domain.TextValue("2024-03-01"), ColUnitPricePerM2: domain.Value{}, ColCentroid: domain.TextValue("POINT (11 55)")},
			{ColTradeDate: domain.TextValue("2024-03-02"), ColUnitPricePerM2: domain.NumberValue(10000), ColCentroid: domain.Value{}},
		},
	}
	original := ds.Records[0][ColTradeDate]

	e := Derive(ds, mustResolve(t, domain.SourceTransactions, "latest"), DeriveOptions{LabelColumn: "Adresse"})

	assert.Equal(t, domain.DropStats{InvalidDate: 1, MissingMetric: 1, InvalidGeo: 2}, e.Drops)
	require.Len(t, e.Observations, 3)
	require.Equal(t, 3, e.Dataset.Len())

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), e.Observations[0].Date)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), e.Observations[1].Date)
	assert.InDelta(t, 30000.5, e.Observations[1].Metric.Value, 1e-9)

	points := e.GeoPoints()
	require.Len(t, points, 1)
	assert.Equal(t, domain.GeoPoint{Lat: 56, Lon: 10}, points[0].GeoPoint)
	assert.Equal(t, "Vej 1", points[0].Label)

	assert.Contains(t, e.Dataset.Columns, ColLat)
	assert.Contains(t, e.Dataset.Columns, ColLng)
	assert.Equal(t, domain.NumberValue(56), e.Dataset.Records[0][ColLat])
	assert.True(t, e.Dataset.Records[1][ColLat].IsEmpty())
	assert.Equal(t, domain.ValueTime, e.Dataset.Records[0][ColTradeDate].Kind)

	assert.Equal(t, original, ds.Records[0][ColTradeDate], "input dataset is not modified")
	assert.NotContains(t, ds.Columns, ColLat)
}

func TestDerive_UploadedCoordinatesWinOverCentroid(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{ColTradeDate, ColUnitPricePerM2, ColCentroid, ColLat, ColLng},
		Records: []domain.Record{
			{ColTradeDate: domain.TextValue("2024-01-15"), ColUnitPricePerM2: domain.NumberValue(20000), ColCentroid: domain.TextValue("POINT (10 56)"), ColLat: domain.NumberValue(55.7), ColLng: domain.NumberValue(12.6)},
			{ColTradeDate: domain.TextValue("2024-01-16"), ColUnitPricePerM2: domain.NumberValue(25000), ColCentroid: domain.TextValue("POINT (10 56)"), ColLat: domain.TextValue("ukendt"), ColLng: domain.NumberValue(12.6)},
		},
	}

	e := Derive(ds, mustResolve(t, domain.SourceTransactions, "latest"), DeriveOptions{})

	assert.Equal(t, domain.DropStats{InvalidGeo: 1}, e.Drops)
	require.Equal(t, 2, e.Dataset.Len())
	assert.Equal(t, ds.Columns, e.Dataset.Columns)
	assert.Equal(t, domain.NumberValue(55.7), e.Dataset.Records[0][ColLat])
	assert.Equal(t, domain.NumberValue(12.6), e.Dataset.Records[0][ColLng])
	assert.Equal(t, domain.TextValue("ukendt"), e.Dataset.Records[1][ColLat])

	points := e.GeoPoints()
	require.Len(t, points, 1)
	assert.Equal(t, domain.GeoPoint{Lat: 55.7, Lon: 12.6}, points[0].GeoPoint)
}

func TestDerive_LegacyRatio(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{ColArea, ColSalePrice},
		Records: []domain.Record{
			{ColArea: domain.NumberValue(100), ColSalePrice: domain.NumberValue(2000000)},
			{ColArea: domain.NumberValue(0), ColSalePrice: domain.NumberValue(500000)},
			{ColArea: domain.TextValue("n/a"), ColSalePrice: domain.NumberValue(500000)},
			{ColArea: domain.NumberValue(50), ColSalePrice: domain.NumberValue(1500000)},
		},
	}

	e := Derive(ds, mustResolve(t, domain.SourceTransactions, "v1"), DeriveOptions{})

	assert.Equal(t, domain.DropStats{UndefinedMetric: 2}, e.Drops)
	require.Len(t, e.Observations, 4, "undefined metrics stay in the dataset")
	assert.Equal(t, []float64{20000, 30000}, e.MetricValues())
	assert.Contains(t, e.Dataset.Columns, ColPricePerM2)
	assert.Equal(t, domain.NumberValue(20000), e.Dataset.Records[0][ColPricePerM2])
	assert.True(t, e.Dataset.Records[1][ColPricePerM2].IsEmpty())
	assert.True(t, e.Observations[0].X.Defined)
	assert.Equal(t, 100.0, e.Observations[0].X.Value)
}

func TestDerive_RentLevelsLatLng(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{ColArea, ColRentPerM2, ColLat, ColLng},
		Records: []domain.Record{
			{ColArea: domain.NumberValue(100), ColRentPerM2: domain.NumberValue(1000), ColLat: domain.NumberValue(55.7), ColLng: domain.NumberValue(12.6)},
			{ColArea: domain.NumberValue(200), ColRentPerM2: domain.NumberValue(1500), ColLat: domain.TextValue("x"), ColLng: domain.NumberValue(12.6)},
			{ColArea: domain.NumberValue(300), ColRentPerM2: domain.Value{}},
		},
	}

	e := Derive(ds, mustResolve(t, domain.SourceRentLevels, "latest"), DeriveOptions{LabelColumn: "Missing"})

	assert.Equal(t, domain.DropStats{UndefinedMetric: 1, InvalidGeo: 2}, e.Drops)
	assert.Len(t, e.Observations, 3)
	points := e.GeoPoints()
	require.Len(t, points, 1)
	assert.Empty(t, points[0].Label)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value domain.Value
		ok    bool
	}{
		{"serial", domain.NumberValue(45306), true},
		{"serial text", domain.TextValue("45306"), true},
		{"iso", domain.TextValue("2024-01-15"), true},
		{"danish dashes", domain.TextValue("15-01-2024"), true},
		{"danish dots", domain.TextValue("15.01.2024"), true},
		{"slashes", domain.TextValue("15/01/2024"), true},
		{"timestamp", domain.TextValue("2024-01-15 00:00:00"), true},
		{"rfc3339", domain.TextValue("2024-01-15T00:00:00Z"), true},
		{"time value", domain.TimeValue(want), true},
		{"empty", domain.Value{}, false},
		{"zero serial", domain.NumberValue(0), false},
		{"negative serial", domain.NumberValue(-3), false},
		{"garbage", domain.TextValue("snart"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, want.Equal(got), "got %s", got)
			}
		})
	}
}
