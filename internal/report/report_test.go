package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)
}

func TestBuild(t *testing.T) {
	a := NewAssembler(nil, fixedClock)

	rep, err := a.Build(Request{Title: "  Kontor Aarhus  ", PlotPNG: samplePNG(t), MapNote: "3 handler på kortet"})
	require.NoError(t, err)

	assert.Equal(t, "Kontor Aarhus", rep.Title)
	assert.Equal(t, fixedClock(), rep.GeneratedAt)
	assert.True(t, rep.HasMapNote)
	assert.True(t, bytes.HasPrefix(rep.PDF, []byte("%PDF")))
}

func TestBuild_WithoutNote(t *testing.T) {
	rep, err := NewAssembler(nil, fixedClock).Build(Request{Title: "Lejeniveauer", PlotPNG: samplePNG(t)})
	require.NoError(t, err)
	assert.False(t, rep.HasMapNote)
	assert.NotEmpty(t, rep.PDF)
}

func TestBuild_Preconditions(t *testing.T) {
	a := NewAssembler(nil, nil)

	_, err := a.Build(Request{Title: " ", PlotPNG: samplePNG(t)})
	assert.ErrorIs(t, err, ErrMissingTitle)

	_, err = a.Build(Request{Title: "Titel"})
	assert.ErrorIs(t, err, ErrMissingPlot)
}

func TestLayout(t *testing.T) {
	img := []byte{1, 2, 3}

	sections := layout(Request{PlotPNG: img})
	require.Len(t, sections, 1)
	assert.Equal(t, HeadingPlot, sections[0].Heading)
	assert.Equal(t, img, sections[0].Image)

	sections = layout(Request{PlotPNG: img, MapNote: " Se kortet "})
	require.Len(t, sections, 2)
	assert.Equal(t, HeadingMap, sections[1].Heading)
	assert.Equal(t, "Se kortet", sections[1].Body)
	assert.Nil(t, sections[1].Image)
}

func TestDateFormat(t *testing.T) {
	assert.Equal(t, "09-03-2026", fixedClock().Format(DateFormat))
}
