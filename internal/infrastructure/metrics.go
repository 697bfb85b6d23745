package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// HTTPMetrics instruments the HTTP transport
type HTTPMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ActiveRequests  metric.Int64UpDownCounter
}

// CreateHTTPMetrics registers the HTTP instruments on meter
func CreateHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		RequestsTotal:   requestsTotal,
		RequestDuration: requestDuration,
		ActiveRequests:  activeRequests,
	}, nil
}

// AnalysisMetrics instruments the analysis pipeline
type AnalysisMetrics struct {
	AnalysesTotal      metric.Int64Counter
	AnalysisDuration   metric.Float64Histogram
	RecordsDropped     metric.Int64Counter
	ArtifactsGenerated metric.Int64Counter
}

// Analysis outcomes
const (
	OutcomeSuccess        = "success"
	OutcomeMissingColumns = "missing_columns"
	OutcomeError          = "error"
)

// CreateAnalysisMetrics registers the analysis instruments on meter
func CreateAnalysisMetrics(meter metric.Meter) (*AnalysisMetrics, error) {
	analysesTotal, err := meter.Int64Counter(
		"analyses_total",
		metric.WithDescription("Total number of analyses by source kind and outcome"),
	)
	if err != nil {
		return nil, err
	}

	analysisDuration, err := meter.Float64Histogram(
		"analysis_duration_seconds",
		metric.WithDescription("Analysis duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	recordsDropped, err := meter.Int64Counter(
		"analysis_records_dropped_total",
		metric.WithDescription("Records excluded while deriving fields, by reason"),
	)
	if err != nil {
		return nil, err
	}

	artifactsGenerated, err := meter.Int64Counter(
		"analysis_artifacts_generated_total",
		metric.WithDescription("Generated artifacts by type"),
	)
	if err != nil {
		return nil, err
	}

	return &AnalysisMetrics{
		AnalysesTotal:      analysesTotal,
		AnalysisDuration:   analysisDuration,
		RecordsDropped:     recordsDropped,
		ArtifactsGenerated: artifactsGenerated,
	}, nil
}

// RecordAnalysis records one finished analysis
func (m *AnalysisMetrics) RecordAnalysis(ctx context.Context, kind domain.SourceKind, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("source_kind", string(kind)),
		attribute.String("outcome", outcome),
	)
	m.AnalysesTotal.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordDrops adds the non-zero drop counters
func (m *AnalysisMetrics) RecordDrops(ctx context.Context, kind domain.SourceKind, stats domain.DropStats) {
	if m == nil {
		return
	}
	reasons := map[string]int{
		"invalid_date":     stats.InvalidDate,
		"missing_metric":   stats.MissingMetric,
		"undefined_metric": stats.UndefinedMetric,
		"invalid_geo":      stats.InvalidGeo,
	}
	for reason, n := range reasons {
		if n == 0 {
			continue
		}
		m.RecordsDropped.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("source_kind", string(kind)),
			attribute.String("reason", reason),
		))
	}
}

// RecordArtifact counts one generated artifact
func (m *AnalysisMetrics) RecordArtifact(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.ArtifactsGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("artifact", name)))
}
