package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/Antonpb/alfaapp/internal/errors"
	"github.com/Antonpb/alfaapp/internal/infrastructure"
	"github.com/Antonpb/alfaapp/internal/middleware"
	"github.com/Antonpb/alfaapp/internal/services"
	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// multipartOverhead is the allowance for form fields and boundaries on top
// of the file size cap
const multipartOverhead = 1 << 20

// analysisForm holds the non-file fields of an upload
type analysisForm struct {
	SourceKind    string `json:"source_kind" validate:"omitempty,max=64,sourcekind"`
	SchemaVersion string `json:"schema_version" validate:"omitempty,max=16,alphanum"`
	PlotStyle     string `json:"plot_style" validate:"omitempty,plotstyle"`
	FileName      string `json:"file" validate:"required,filename"`
}

// AnalysisHandler handles upload, artifact and report requests
type AnalysisHandler struct {
	service        AnalysisServiceInterface
	validation     *middleware.ValidationMiddleware
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:        service,
		validation:     middleware.NewValidationMiddleware(logger, errorHandler),
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "analysis_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the analysis routes mounted under /api/analyses
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.ContentTypeValidator("multipart/form-data")).Post("/", h.CreateAnalysis)

	r.Route("/{session}", func(r chi.Router) {
		r.Use(h.SessionCtx)
		r.With(middleware.AuditLog(h.logger)).Delete("/", h.DeleteSession)
		r.Get("/artifacts", h.ListArtifacts)
		r.Get("/artifacts/{name}", h.DownloadArtifact)
		r.With(
			middleware.ContentTypeValidator("application/json"),
			h.validation.ValidateRequest,
			middleware.AuditLog(h.logger),
		).Post("/report", h.CreateReport)
	})

	return r
}

// SessionCtx rejects blank or oversized session ids before they reach the service
func (h *AnalysisHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := chi.URLParam(r, "session")
		if session == "" || len(session) > 64 {
			h.errorHandler.HandleError(w, r, apierrors.NotFoundError(apierrors.CodeSessionNotFound, "session"))
			return
		}
		next.ServeHTTP(w, r.WithContext(infrastructure.WithSessionID(r.Context(), session)))
	})
}

// GetSchemas handles GET /api/schemas
func (h *AnalysisHandler) GetSchemas(w http.ResponseWriter, r *http.Request) {
	schemas := h.service.Schemas()
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   schemas,
		"count":  len(schemas),
	})
}

// CreateAnalysis handles POST /api/analyses
func (h *AnalysisHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetRequestID(ctx)

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.errorHandler.HandleError(w, r, uploadError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	form := analysisForm{
		SourceKind:    r.FormValue("source_kind"),
		SchemaVersion: r.FormValue("schema_version"),
		PlotStyle:     r.FormValue("plot_style"),
		FileName:      header.Filename,
	}
	if err := h.validation.ValidateStruct(form); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	kind, _ := domain.ParseSourceKind(form.SourceKind)
	style, _ := domain.ParsePlotStyle(form.PlotStyle)

	h.logger.InfoContext(ctx, "analysis requested",
		slog.String("request_id", reqID),
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("source_kind", string(kind)),
	)

	result, err := h.service.Analyze(ctx, services.AnalyzeRequest{
		FileName:      header.Filename,
		Size:          header.Size,
		Body:          file,
		SourceKind:    kind,
		SchemaVersion: domain.SchemaVersion(form.SchemaVersion),
		PlotStyle:     style,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	if !result.Valid {
		h.errorHandler.HandleError(w, r, apierrors.MissingColumnsError(result.Message, result.MissingColumns))
		return
	}

	w.Header().Set("Location", "/api/analyses/"+result.SessionID+"/artifacts")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// ListArtifacts handles GET /api/analyses/{session}/artifacts
func (h *AnalysisHandler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")

	list, err := h.service.Artifacts(r.Context(), session)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":     "success",
		"session_id": session,
		"data":       list,
		"count":      len(list),
	})
}

// DownloadArtifact handles GET /api/analyses/{session}/artifacts/{name}
func (h *AnalysisHandler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	name := chi.URLParam(r, "name")

	artifact, err := h.service.Artifact(r.Context(), session, name)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	disposition := "inline"
	if name == domain.ArtifactReport || name == domain.ArtifactEnriched || r.URL.Query().Get("download") != "" {
		disposition = "attachment"
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, name))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write artifact",
			slog.String("artifact", name),
			slog.String("error", err.Error()),
		)
	}
}

// CreateReport handles POST /api/analyses/{session}/report
func (h *AnalysisHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")

	var req services.ReportRequest
	if err := h.validation.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.GenerateReport(r.Context(), session, req)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	w.Header().Set("Location", "/api/analyses/"+session+"/artifacts/"+result.Artifact)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// DeleteSession handles DELETE /api/analyses/{session}
func (h *AnalysisHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSession(r.Context(), chi.URLParam(r, "session")); err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mapServiceError translates service sentinels into API errors. Anything
// else is passed through for the error handler to classify.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrUnselectedSource):
		return apierrors.ErrValidation("source_kind", "Vælg en datakilde før upload")
	case errors.Is(err, services.ErrUnknownSchemaVersion):
		return apierrors.ErrValidation("schema_version", err.Error())
	case errors.Is(err, services.ErrInvalidPlotStyle):
		return apierrors.ErrValidation("plot_style", err.Error())
	case errors.Is(err, services.ErrUnsupportedFile):
		return apierrors.UnsupportedFileError(err)
	case errors.Is(err, services.ErrMissingTitle):
		return apierrors.ErrValidation("title", "title is required")
	case errors.Is(err, services.ErrSessionNotFound):
		return apierrors.NotFoundError(apierrors.CodeSessionNotFound, "session")
	case errors.Is(err, services.ErrArtifactNotFound):
		return apierrors.NotFoundError(apierrors.CodeArtifactNotFound, "artifact")
	case errors.Is(err, services.ErrNoPlot):
		return apierrors.New(http.StatusConflict, apierrors.CodeNoPlot, "The session has no plot to put in a report")
	}
	return err
}

func uploadError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return apierrors.InvalidRequestWithError(err)
}
