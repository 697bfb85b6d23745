// Package report assembles the underwriting PDF with maroto.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// DateFormat is the day-month-year layout printed under the title
const DateFormat = "02-01-2006"

// Section headings
const (
	HeadingPlot = "Scatterplot"
	HeadingMap  = "Map"
)

// plotHeightMM is the fixed display height of the embedded plot
const plotHeightMM = 100

var (
	// ErrMissingTitle is returned when no report title was supplied
	ErrMissingTitle = errors.New("report title is required")
	// ErrMissingPlot is returned when there is no plot image to embed
	ErrMissingPlot = errors.New("report needs a plot image")
)

var (
	colorPrimary   = &props.Color{Red: 17, Green: 24, Blue: 39}
	colorSecondary = &props.Color{Red: 107, Green: 114, Blue: 128}
	colorBorder    = &props.Color{Red: 226, Green: 232, Blue: 240}
)

// Request is the input of one report
type Request struct {
	Title   string
	PlotPNG []byte
	MapNote string
}

// Assembler builds ReportArtifacts
type Assembler struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAssembler creates an Assembler. A nil clock means time.Now.
func NewAssembler(logger *slog.Logger, now func() time.Time) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Assembler{logger: logger, now: now}
}

type section struct {
	Heading string
	Body    string
	Image   []byte
}

// layout lists the document sections in order. The map itself is a separate
// artifact; only its note is printed.
func layout(req Request) []section {
	sections := []section{{Heading: HeadingPlot, Image: req.PlotPNG}}
	if note := strings.TrimSpace(req.MapNote); note != "" {
		sections = append(sections, section{Heading: HeadingMap, Body: note})
	}
	return sections
}

// Build renders the report into an in-memory PDF
func (a *Assembler) Build(req Request) (*domain.ReportArtifact, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}
	if len(req.PlotPNG) == 0 {
		return nil, ErrMissingPlot
	}
	generated := a.now()

	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRows(text.NewRow(12, title, props.Text{Size: 18, Style: fontstyle.Bold, Color: colorPrimary}))
	m.AddRows(text.NewRow(6, "Genereret "+generated.Format(DateFormat), props.Text{Size: 9, Color: colorSecondary}))
	m.AddRows(row.New(1).WithStyle(&props.Cell{BorderType: border.Bottom, BorderColor: colorBorder}))

	for _, s := range layout(Request{Title: title, PlotPNG: req.PlotPNG, MapNote: req.MapNote}) {
		m.AddRows(row.New(6))
		m.AddRows(text.NewRow(9, s.Heading, props.Text{Size: 13, Style: fontstyle.Bold, Color: colorPrimary}))
		if len(s.Image) > 0 {
			m.AddRows(image.NewFromBytesRow(plotHeightMM, s.Image, extension.Png, props.Rect{Center: true, Percent: 100}))
		}
		if s.Body != "" {
			m.AddRows(text.NewRow(8, s.Body, props.Text{Size: 10, Color: colorPrimary}))
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}
	pdf := doc.GetBytes()

	a.logger.Debug("report generated",
		slog.String("title", title),
		slog.Int("bytes", len(pdf)))

	return &domain.ReportArtifact{
		Title:       title,
		GeneratedAt: generated,
		HasMapNote:  strings.TrimSpace(req.MapNote) != "",
		PDF:         pdf,
	}, nil
}
