package geomap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

func pt(lat, lon float64, label string) domain.LabeledPoint {
	return domain.LabeledPoint{GeoPoint: domain.GeoPoint{Lat: lat, Lon: lon}, Label: label}
}

func TestRender_NoPoints(t *testing.T) {
	m := NewMapper(Options{})

	art, ok, err := m.Render(nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, art)

	art, ok, err = m.Render([]domain.LabeledPoint{pt(120, 10, "")})
	require.NoError(t, err)
	assert.False(t, ok, "invalid points never produce a map")
	assert.Nil(t, art)
}

func TestRender_CentroidAndMarkers(t *testing.T) {
	m := NewMapper(Options{Title: "Handler"})

	art, ok, err := m.Render([]domain.LabeledPoint{
		pt(56.0, 10.0, ""),
		pt(55.0, 12.0, ""),
	})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 2, art.Markers)
	assert.InDelta(t, 55.5, art.Center.Lat, 1e-9)
	assert.InDelta(t, 11.0, art.Center.Lon, 1e-9)

	html := string(art.HTML)
	assert.Contains(t, html, "<title>Handler</title>")
	assert.Contains(t, html, "markerClusterGroup")
	assert.Contains(t, html, `data-markers="2"`)
	assert.Contains(t, html, `"coordinates":[10,56]`)
	assert.NotContains(t, html, `"label"`, "markers are anonymous unless labelled")
}

func TestRender_SingleMarker(t *testing.T) {
	art, ok, err := NewMapper(Options{}).Render([]domain.LabeledPoint{pt(56, 10, "")})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, art.Markers)
	assert.Equal(t, domain.GeoPoint{Lat: 56, Lon: 10}, art.Center)
}

func TestRender_LabelsAreEscaped(t *testing.T) {
	art, ok, err := NewMapper(Options{}).Render([]domain.LabeledPoint{
		pt(55.6, 12.5, "</script><b>Vej 1</b>"),
	})
	require.NoError(t, err)
	require.True(t, ok)

	html := string(art.HTML)
	assert.Contains(t, html, `"label"`)
	assert.Equal(t, 3, strings.Count(html, "</script>"), "only the page's own script tags close")
	assert.NotContains(t, html, "<b>Vej 1</b>")
}

func TestRender_CentersOnValidPoints(t *testing.T) {
	art, ok, err := NewMapper(Options{}).Render([]domain.LabeledPoint{
		pt(50, 10, ""), pt(60, 20, ""), pt(55, 15, ""), pt(95, 15, ""),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, art.Markers)
	assert.InDelta(t, 55.0, art.Center.Lat, 1e-9)
	assert.InDelta(t, 15.0, art.Center.Lon, 1e-9)
}
