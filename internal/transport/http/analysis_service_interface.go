package http

import (
	"context"

	"github.com/Antonpb/alfaapp/internal/services"
	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the analysis operations the handler needs
type AnalysisServiceInterface interface {
	Schemas() []services.SchemaInfo
	Analyze(ctx context.Context, req services.AnalyzeRequest) (*services.AnalysisResult, error)
	GenerateReport(ctx context.Context, sessionID string, req services.ReportRequest) (*services.ReportResult, error)
	Artifact(ctx context.Context, sessionID, name string) (domain.Artifact, error)
	Artifacts(ctx context.Context, sessionID string) ([]domain.Artifact, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

var _ AnalysisServiceInterface = (*services.AnalysisService)(nil)
