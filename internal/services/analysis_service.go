package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Antonpb/alfaapp/internal/artifacts"
	"github.com/Antonpb/alfaapp/internal/charts"
	"github.com/Antonpb/alfaapp/internal/config"
	"github.com/Antonpb/alfaapp/internal/dataprocessing"
	apperrors "github.com/Antonpb/alfaapp/internal/errors"
	"github.com/Antonpb/alfaapp/internal/exporter"
	"github.com/Antonpb/alfaapp/internal/geomap"
	"github.com/Antonpb/alfaapp/internal/infrastructure"
	"github.com/Antonpb/alfaapp/internal/report"
	"github.com/Antonpb/alfaapp/internal/validation"
	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// AnalyzeRequest is one uploaded dataset to analyse
type AnalyzeRequest struct {
	FileName      string
	Size          int64
	Body          io.Reader
	SourceKind    domain.SourceKind
	SchemaVersion domain.SchemaVersion
	// PlotStyle overrides the configured style when set
	PlotStyle domain.PlotStyle
}

// AnalysisResult is the outcome of Analyze. When Valid is false only the
// preview and the missing columns are set and no artifacts exist.
type AnalysisResult struct {
	SessionID      string                `json:"session_id,omitempty"`
	SourceKind     domain.SourceKind     `json:"source_kind"`
	SchemaVersion  domain.SchemaVersion  `json:"schema_version"`
	Valid          bool                  `json:"valid"`
	MissingColumns []string              `json:"missing_columns,omitempty"`
	Message        string                `json:"message,omitempty"`
	Preview        domain.Preview        `json:"preview"`
	MetricLabel    string                `json:"metric_label,omitempty"`
	Statistic      *domain.MeanStatistic `json:"statistic,omitempty"`
	Drops          domain.DropStats      `json:"drop_stats"`
	Plot           *domain.PlotArtifact  `json:"plot,omitempty"`
	Map            *domain.MapArtifact   `json:"map,omitempty"`
	Artifacts      []string              `json:"artifacts,omitempty"`
}

// ReportRequest asks for a PDF report of a session
type ReportRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	MapNote string `json:"map_note" validate:"max=2000"`
}

// ReportResult describes a generated report
type ReportResult struct {
	SessionID string                 `json:"session_id"`
	Report    *domain.ReportArtifact `json:"report"`
	Artifact  string                 `json:"artifact"`
}

// SchemaInfo describes one registered schema
type SchemaInfo struct {
	SourceKind   domain.SourceKind    `json:"source_kind"`
	DisplayName  string               `json:"display_name"`
	Version      domain.SchemaVersion `json:"version"`
	Latest       bool                 `json:"latest"`
	Required     []string             `json:"required_columns"`
	Optional     []string             `json:"optional_columns,omitempty"`
	Metric       string               `json:"metric"`
	Derived      bool                 `json:"derived"`
	DefaultPlot  domain.PlotKind      `json:"default_plot"`
	AllowedPlots []domain.PlotKind    `json:"allowed_plots"`
}

// sessionManifest is stored with every session
type sessionManifest struct {
	SourceKind    domain.SourceKind    `json:"source_kind"`
	SchemaVersion domain.SchemaVersion `json:"schema_version"`
	HasPlot       bool                 `json:"has_plot"`
	Markers       int                  `json:"markers"`
	CreatedAt     time.Time            `json:"created_at"`
}

// AnalysisService runs analyses and manages their session artifacts
type AnalysisService struct {
	cfg       config.AnalysisConfig
	registry  *dataprocessing.Registry
	loader    *dataprocessing.Loader
	files     *validation.FileValidator
	renderer  *charts.Renderer
	mapper    *geomap.Mapper
	assembler *report.Assembler
	csv       *exporter.CSVWriter
	store     artifacts.Store
	metrics   *infrastructure.AnalysisMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
	newID     func() string
}

// AnalysisOption customises an AnalysisService
type AnalysisOption func(*AnalysisService)

// WithClock sets the clock used for report timestamps
func WithClock(now func() time.Time) AnalysisOption {
	return func(s *AnalysisService) { s.assembler = report.NewAssembler(s.logger, now) }
}

// WithTracer sets the tracer used for analysis spans
func WithTracer(t trace.Tracer) AnalysisOption {
	return func(s *AnalysisService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMetrics records analysis metrics
func WithMetrics(m *infrastructure.AnalysisMetrics) AnalysisOption {
	return func(s *AnalysisService) { s.metrics = m }
}

// WithIDGenerator replaces the session id generator
func WithIDGenerator(f func() string) AnalysisOption {
	return func(s *AnalysisService) { s.newID = f }
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(cfg config.AnalysisConfig, store artifacts.Store, logger *slog.Logger, opts ...AnalysisOption) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "analysis")
	s := &AnalysisService{
		cfg:      cfg,
		registry: dataprocessing.DefaultRegistry(),
		loader:   dataprocessing.NewLoader(logger),
		files:    validation.NewFileValidator(logger, cfg.MaxUploadBytes),
		renderer: charts.NewRenderer(charts.Options{
			WidthCM:  cfg.PlotWidthCM,
			HeightCM: cfg.PlotHeightCM,
			Bins:     cfg.HistogramBins,
		}),
		mapper:    geomap.NewMapper(geomap.Options{TileURL: cfg.MapTileURL}),
		assembler: report.NewAssembler(logger, nil),
		csv:       exporter.NewCSVWriter(logger),
		store:     store,
		tracer:    otel.Tracer(infrastructure.MeterName),
		logger:    logger,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	logger.Info("AnalysisService initialized",
		slog.String("default_schema_version", cfg.DefaultSchemaVersion),
		slog.String("plot_style", cfg.PlotStyle),
		slog.Int("preview_rows", cfg.PreviewRows))
	return s
}

// Schemas lists the registered schemas
func (s *AnalysisService) Schemas() []SchemaInfo {
	list := s.registry.List()
	out := make([]SchemaInfo, 0, len(list))
	for _, sc := range list {
		out = append(out, SchemaInfo{
			SourceKind:   sc.Kind,
			DisplayName:  sc.Kind.DisplayName(),
			Version:      sc.Version,
			Latest:       sc.Latest,
			Required:     sc.Required,
			Optional:     sc.Optional,
			Metric:       sc.MetricColumn,
			Derived:      sc.Derived(),
			DefaultPlot:  sc.DefaultPlot,
			AllowedPlots: sc.AllowedPlots,
		})
	}
	return out
}

// Analyze validates, loads and analyses an upload, storing its artifacts in
// a new session.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (result *AnalysisResult, err error) {
	ctx, span := s.tracer.Start(ctx, "analysis.analyze", trace.WithAttributes(
		attribute.String("source_kind", string(req.SourceKind)),
		attribute.String("file_name", req.FileName),
	))
	defer span.End()

	start := time.Now()
	logger := s.log(ctx).With(slog.String("source_kind", string(req.SourceKind)))

	defer func() {
		outcome := infrastructure.OutcomeSuccess
		switch {
		case err != nil:
			outcome = infrastructure.OutcomeError
			infrastructure.RecordError(ctx, err)
		case result != nil && !result.Valid:
			outcome = infrastructure.OutcomeMissingColumns
		}
		s.metrics.RecordAnalysis(ctx, req.SourceKind, outcome, time.Since(start))
	}()

	if !req.SourceKind.IsSelected() {
		return nil, ErrUnselectedSource
	}
	style := req.PlotStyle
	if style == domain.PlotStyleDefault {
		parsed, perr := domain.ParsePlotStyle(s.cfg.PlotStyle)
		if perr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPlotStyle, perr)
		}
		style = parsed
	}
	version := req.SchemaVersion
	if version == "" {
		version = domain.SchemaVersion(s.cfg.DefaultSchemaVersion)
	}
	schema, err := s.registry.Resolve(req.SourceKind, version)
	if err != nil {
		return nil, err
	}

	ds, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}

	result = &AnalysisResult{
		SourceKind:    req.SourceKind,
		SchemaVersion: schema.Version,
		Preview:       domain.NewPreview(ds, s.cfg.PreviewRows),
	}

	detection := dataprocessing.Detect(ds, schema)
	if !detection.Valid {
		result.MissingColumns = detection.MissingColumns
		result.Message = detection.Message()
		logger.Warn("dataset is missing required columns",
			slog.String("schema_version", string(schema.Version)),
			slog.Any("missing_columns", detection.MissingColumns))
		return result, nil
	}
	result.Valid = true
	result.MetricLabel = schema.MetricLabel

	enriched := dataprocessing.Derive(ds, schema, dataprocessing.DeriveOptions{LabelColumn: s.cfg.MapLabelColumn})
	stat := dataprocessing.Mean(enriched)
	result.Statistic = &stat
	result.Drops = enriched.Drops
	s.metrics.RecordDrops(ctx, req.SourceKind, enriched.Drops)

	plotArt, mapArt, err := s.render(ctx, enriched, schema.PlotFor(style))
	if err != nil {
		return nil, err
	}
	result.Plot = plotArt
	result.Map = mapArt

	csvData, err := s.csv.EncodeDataset(enriched.Dataset)
	if err != nil {
		return nil, apperrors.NewRenderingError("failed to export enriched dataset", err)
	}

	session := s.newID()
	manifest := sessionManifest{
		SourceKind:    req.SourceKind,
		SchemaVersion: schema.Version,
		HasPlot:       plotArt != nil,
		CreatedAt:     time.Now().UTC(),
	}
	toStore := []domain.Artifact{domain.NewArtifact(domain.ArtifactEnriched, csvData)}
	if plotArt != nil {
		toStore = append(toStore, domain.NewArtifact(domain.ArtifactPlot, plotArt.PNG))
	}
	if mapArt != nil {
		manifest.Markers = mapArt.Markers
		toStore = append(toStore, domain.NewArtifact(domain.ArtifactMap, mapArt.HTML))
	}
	for _, a := range toStore {
		if err := s.store.Put(ctx, session, a); err != nil {
			return nil, apperrors.NewStorageError("failed to store artifact", err).WithContext("artifact", a.Name)
		}
		s.metrics.RecordArtifact(ctx, a.Name)
		result.Artifacts = append(result.Artifacts, a.Name)
	}
	if err := s.putManifest(ctx, session, manifest); err != nil {
		return nil, err
	}
	result.SessionID = session
	span.SetAttributes(attribute.String("session_id", session))

	logger.Info("analysis completed",
		slog.String("session_id", session),
		slog.String("schema_version", string(schema.Version)),
		slog.Int("records", enriched.Dataset.Len()),
		slog.Int("dropped", enriched.Drops.Dropped()),
		slog.Int("invalid_geo", enriched.Drops.InvalidGeo),
		slog.String("mean", stat.Display()),
		slog.Any("artifacts", result.Artifacts),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (s *AnalysisService) load(ctx context.Context, req AnalyzeRequest) (*domain.Dataset, error) {
	if req.Body == nil {
		return nil, fmt.Errorf("%w: no file content", ErrUnsupportedFile)
	}
	br := bufio.NewReader(req.Body)
	head, _ := br.Peek(8)
	format, err := s.files.ValidateUpload(req.FileName, req.Size, head)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFile, err)
	}

	var body io.Reader = br
	if s.cfg.MaxUploadBytes > 0 {
		body = io.LimitReader(br, s.cfg.MaxUploadBytes)
	}
	return s.loader.Load(ctx, body, format, dataprocessing.LoadOptions{Sheet: s.cfg.Sheet})
}

// render draws the plot and the map concurrently. Both are pure functions of
// the enriched dataset.
func (s *AnalysisService) render(ctx context.Context, e *dataprocessing.Enriched, kind domain.PlotKind) (*domain.PlotArtifact, *domain.MapArtifact, error) {
	var (
		plotArt *domain.PlotArtifact
		mapArt  *domain.MapArtifact
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		art, err := s.renderer.Render(e, kind)
		if errors.Is(err, charts.ErrNoData) {
			return nil
		}
		if err != nil {
			return apperrors.NewRenderingError("failed to render plot", err)
		}
		plotArt = art
		return nil
	})
	g.Go(func() error {
		art, ok, err := s.mapper.Render(e.GeoPoints())
		if err != nil {
			return apperrors.NewRenderingError("failed to render map", err)
		}
		if ok {
			mapArt = art
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return plotArt, mapArt, nil
}

// GenerateReport builds the PDF report of a session
func (s *AnalysisService) GenerateReport(ctx context.Context, sessionID string, req ReportRequest) (*ReportResult, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.report", trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}
	manifest, err := s.manifest(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !manifest.HasPlot {
		return nil, ErrNoPlot
	}
	plotArt, err := s.store.Get(ctx, sessionID, domain.ArtifactPlot)
	if errors.Is(err, artifacts.ErrNotFound) {
		return nil, ErrNoPlot
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load plot", err)
	}

	note := strings.TrimSpace(req.MapNote)
	if note == "" && manifest.Markers > 0 {
		note = defaultMapNote(manifest.Markers)
	}

	rep, err := s.assembler.Build(report.Request{Title: title, PlotPNG: plotArt.Data, MapNote: note})
	if err != nil {
		return nil, apperrors.NewRenderingError("failed to build report", err)
	}
	if err := s.store.Put(ctx, sessionID, domain.NewArtifact(domain.ArtifactReport, rep.PDF)); err != nil {
		return nil, apperrors.NewStorageError("failed to store report", err)
	}
	s.metrics.RecordArtifact(ctx, domain.ArtifactReport)

	s.log(ctx).Info("report generated",
		slog.String("session_id", sessionID),
		slog.String("title", title),
		slog.Bool("map_note", rep.HasMapNote),
		slog.Int("bytes", len(rep.PDF)))

	return &ReportResult{SessionID: sessionID, Report: rep, Artifact: domain.ArtifactReport}, nil
}

func defaultMapNote(markers int) string {
	if markers == 1 {
		return "Kortet viser 1 ejendom og kan hentes som map.html."
	}
	return fmt.Sprintf("Kortet viser %d ejendomme og kan hentes som map.html.", markers)
}

// Artifact returns a downloadable artifact of a session
func (s *AnalysisService) Artifact(ctx context.Context, sessionID, name string) (domain.Artifact, error) {
	if _, err := s.manifest(ctx, sessionID); err != nil {
		return domain.Artifact{}, err
	}
	if !domain.IsDownloadable(name) {
		return domain.Artifact{}, ErrArtifactNotFound
	}
	a, err := s.store.Get(ctx, sessionID, name)
	if errors.Is(err, artifacts.ErrNotFound) || errors.Is(err, artifacts.ErrInvalidKey) {
		return domain.Artifact{}, ErrArtifactNotFound
	}
	if err != nil {
		return domain.Artifact{}, apperrors.NewStorageError("failed to load artifact", err)
	}
	return a, nil
}

// Artifacts lists the downloadable artifacts of a session
func (s *AnalysisService) Artifacts(ctx context.Context, sessionID string) ([]domain.Artifact, error) {
	if _, err := s.manifest(ctx, sessionID); err != nil {
		return nil, err
	}
	list, err := s.store.List(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list artifacts", err)
	}
	out := make([]domain.Artifact, 0, len(list))
	for _, a := range list {
		if domain.IsDownloadable(a.Name) {
			a.Data = nil
			out = append(out, a)
		}
	}
	return out, nil
}

// DeleteSession removes a session and its artifacts
func (s *AnalysisService) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.manifest(ctx, sessionID); err != nil {
		return err
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return apperrors.NewStorageError("failed to delete session", err)
	}
	s.log(ctx).Info("session deleted", slog.String("session_id", sessionID))
	return nil
}

func (s *AnalysisService) log(ctx context.Context) *slog.Logger {
	if traceID := infrastructure.GetTraceID(ctx); traceID != "" {
		return s.logger.With(slog.String("trace_id", traceID))
	}
	return s.logger
}

func (s *AnalysisService) putManifest(ctx context.Context, session string, m sessionManifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := s.store.Put(ctx, session, domain.NewArtifact(domain.ArtifactManifest, data)); err != nil {
		return apperrors.NewStorageError("failed to store session manifest", err)
	}
	return nil
}

func (s *AnalysisService) manifest(ctx context.Context, session string) (sessionManifest, error) {
	a, err := s.store.Get(ctx, session, domain.ArtifactManifest)
	if errors.Is(err, artifacts.ErrNotFound) || errors.Is(err, artifacts.ErrInvalidKey) {
		return sessionManifest{}, ErrSessionNotFound
	}
	if err != nil {
		return sessionManifest{}, apperrors.NewStorageError("failed to load session", err)
	}
	var m sessionManifest
	if err := json.Unmarshal(a.Data, &m); err != nil {
		return sessionManifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}
