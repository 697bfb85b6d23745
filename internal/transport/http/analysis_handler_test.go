package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/Antonpb/alfaapp/internal/errors"
	"github.com/Antonpb/alfaapp/internal/services"
	"github.com/Antonpb/alfaapp/internal/shared/testutil"
	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// MockAnalysisService is a mock implementation of AnalysisServiceInterface
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Schemas() []services.SchemaInfo {
	args := m.Called()
	return args.Get(0).([]services.SchemaInfo)
}

func (m *MockAnalysisService) Analyze(ctx context.Context, req services.AnalyzeRequest) (*services.AnalysisResult, error) {
	// Drain the body so the mock sees plain fields only
	if req.Body != nil {
		_, _ = io.Copy(io.Discard, req.Body)
		req.Body = nil
	}
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) GenerateReport(ctx context.Context, sessionID string, req services.ReportRequest) (*services.ReportResult, error) {
	args := m.Called(sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReportResult), args.Error(1)
}

func (m *MockAnalysisService) Artifact(ctx context.Context, sessionID, name string) (domain.Artifact, error) {
	args := m.Called(sessionID, name)
	return args.Get(0).(domain.Artifact), args.Error(1)
}

func (m *MockAnalysisService) Artifacts(ctx context.Context, sessionID string) ([]domain.Artifact, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Artifact), args.Error(1)
}

func (m *MockAnalysisService) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func newTestAnalysisRouter(t *testing.T, svc *MockAnalysisService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	handler := NewAnalysisHandler(svc, 1<<20, logger, apierrors.NewErrorHandler(logger, false))

	r := chi.NewRouter()
	r.Get("/api/schemas", handler.GetSchemas)
	r.Mount("/api/analyses", handler.Routes())
	return r
}

func uploadRequest(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyses", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAnalysisHandler_GetSchemas(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Schemas").Return([]services.SchemaInfo{
		{SourceKind: domain.SourceRentLevels, Version: "v3", Latest: true},
	})

	rec := httptest.NewRecorder()
	newTestAnalysisRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schemas", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_CreateAnalysis(t *testing.T) {
	csv := []byte("Leje/m2,Areal\n1500,100\n")

	tests := []struct {
		name           string
		fields         map[string]string
		fileName       string
		setupMock      func(*MockAnalysisService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "successful analysis",
			fields:   map[string]string{"source_kind": "rent_levels", "plot_style": "histogram"},
			fileName: "leje.csv",
			setupMock: func(m *MockAnalysisService) {
				m.On("Analyze", services.AnalyzeRequest{
					FileName:   "leje.csv",
					Size:       int64(len(csv)),
					SourceKind: domain.SourceRentLevels,
					PlotStyle:  domain.PlotStyleHistogram,
				}).Return(&services.AnalysisResult{
					SessionID:  "11111111-2222-3333-4444-555555555555",
					SourceKind: domain.SourceRentLevels,
					Valid:      true,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"session_id":"11111111-2222-3333-4444-555555555555"`,
		},
		{
			name:     "placeholder selection reaches service as unselected",
			fields:   map[string]string{"source_kind": "-- Vælg --"},
			fileName: "leje.csv",
			setupMock: func(m *MockAnalysisService) {
				m.On("Analyze", mock.MatchedBy(func(req services.AnalyzeRequest) bool {
					return req.SourceKind == domain.SourceUnselected
				})).Return(nil, services.ErrUnselectedSource)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"field":"source_kind"`,
		},
		{
			name:           "unknown source kind",
			fields:         map[string]string{"source_kind": "bolighandel"},
			fileName:       "leje.csv",
			setupMock:      func(m *MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"field":"source_kind"`,
		},
		{
			name:           "unknown plot style",
			fields:         map[string]string{"source_kind": "rent_levels", "plot_style": "pie"},
			fileName:       "leje.csv",
			setupMock:      func(m *MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"field":"plot_style"`,
		},
		{
			name:           "missing file",
			fields:         map[string]string{"source_kind": "rent_levels"},
			setupMock:      func(m *MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"field":"file"`,
		},
		{
			name:     "missing columns",
			fields:   map[string]string{"source_kind": "transactions"},
			fileName: "handler.csv",
			setupMock: func(m *MockAnalysisService) {
				m.On("Analyze", mock.Anything).Return(&services.AnalysisResult{
					Valid:          false,
					MissingColumns: []string{"Areal", "Salgspris"},
					Message:        "Kolonnerne 'Areal' og 'Salgspris' mangler i data.",
				}, nil)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"missing_columns":["Areal","Salgspris"]`,
		},
		{
			name:     "unsupported file",
			fields:   map[string]string{"source_kind": "transactions"},
			fileName: "handler.csv",
			setupMock: func(m *MockAnalysisService) {
				m.On("Analyze", mock.Anything).Return(nil, services.ErrUnsupportedFile)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"UNSUPPORTED_FILE"`,
		},
		{
			name:     "unknown schema version",
			fields:   map[string]string{"source_kind": "transactions", "schema_version": "v9"},
			fileName: "handler.csv",
			setupMock: func(m *MockAnalysisService) {
				m.On("Analyze", mock.Anything).Return(nil, services.ErrUnknownSchemaVersion)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"field":"schema_version"`,
		},
		{
			name:     "internal error",
			fields:   map[string]string{"source_kind": "transactions"},
			fileName: "handler.csv",
			setupMock: func(m *MockAnalysisService) {
				m.On("Analyze", mock.Anything).Return(nil, errors.New("disk on fire"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"Internal Server Error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			newTestAnalysisRouter(t, svc).ServeHTTP(rec, uploadRequest(t, tt.fields, tt.fileName, csv))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_CreateAnalysis_TooLarge(t *testing.T) {
	svc := new(MockAnalysisService)
	big := bytes.Repeat([]byte("a"), 3<<20)

	rec := httptest.NewRecorder()
	newTestAnalysisRouter(t, svc).ServeHTTP(rec, uploadRequest(t,
		map[string]string{"source_kind": "transactions"}, "big.csv", big))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	svc.AssertNotCalled(t, "Analyze", mock.Anything)
}

func TestAnalysisHandler_CreateAnalysis_WrongContentType(t *testing.T) {
	svc := new(MockAnalysisService)
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	newTestAnalysisRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAnalysisHandler_DownloadArtifact(t *testing.T) {
	const session = "11111111-2222-3333-4444-555555555555"

	tests := []struct {
		name            string
		artifact        string
		setupMock       func(*MockAnalysisService)
		expectedStatus  int
		wantType        string
		wantDisposition string
	}{
		{
			name:     "inline plot",
			artifact: domain.ArtifactPlot,
			setupMock: func(m *MockAnalysisService) {
				m.On("Artifact", session, domain.ArtifactPlot).
					Return(domain.NewArtifact(domain.ArtifactPlot, []byte("\x89PNG")), nil)
			},
			expectedStatus:  http.StatusOK,
			wantType:        "image/png",
			wantDisposition: `inline; filename="plot.png"`,
		},
		{
			name:     "report as attachment",
			artifact: domain.ArtifactReport,
			setupMock: func(m *MockAnalysisService) {
				m.On("Artifact", session, domain.ArtifactReport).
					Return(domain.NewArtifact(domain.ArtifactReport, []byte("%PDF-1.4")), nil)
			},
			expectedStatus:  http.StatusOK,
			wantType:        "application/pdf",
			wantDisposition: `attachment; filename="report.pdf"`,
		},
		{
			name:     "manifest is not downloadable",
			artifact: domain.ArtifactManifest,
			setupMock: func(m *MockAnalysisService) {
				m.On("Artifact", session, domain.ArtifactManifest).
					Return(domain.Artifact{}, services.ErrArtifactNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:     "unknown session",
			artifact: domain.ArtifactMap,
			setupMock: func(m *MockAnalysisService) {
				m.On("Artifact", session, domain.ArtifactMap).
					Return(domain.Artifact{}, services.ErrSessionNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/analyses/"+session+"/artifacts/"+tt.artifact, nil)
			newTestAnalysisRouter(t, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
				assert.Equal(t, tt.wantDisposition, rec.Header().Get("Content-Disposition"))
				assert.NotEmpty(t, rec.Header().Get("Content-Length"))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_ListArtifacts(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Artifacts", "abc").Return([]domain.Artifact{
		{Name: domain.ArtifactPlot, ContentType: "image/png", Size: 10},
		{Name: domain.ArtifactEnriched, ContentType: "text/csv; charset=utf-8", Size: 20},
	}, nil)

	rec := httptest.NewRecorder()
	newTestAnalysisRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyses/abc/artifacts", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, "abc", body["session_id"])
}

func TestAnalysisHandler_CreateReport(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockAnalysisService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "report generated",
			body: `{"title":"Lejeniveau Aarhus"}`,
			setupMock: func(m *MockAnalysisService) {
				m.On("GenerateReport", "abc", services.ReportRequest{Title: "Lejeniveau Aarhus"}).
					Return(&services.ReportResult{
						SessionID: "abc",
						Report:    &domain.ReportArtifact{Title: "Lejeniveau Aarhus", GeneratedAt: time.Unix(0, 0).UTC()},
						Artifact:  domain.ArtifactReport,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"artifact":"report.pdf"`,
		},
		{
			name:           "missing title",
			body:           `{"map_note":"x"}`,
			setupMock:      func(m *MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"field":"title"`,
		},
		{
			name:           "empty body",
			body:           ``,
			setupMock:      func(m *MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"EMPTY_BODY"`,
		},
		{
			name:           "malformed json",
			body:           `{"title":`,
			setupMock:      func(m *MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"INVALID_JSON"`,
		},
		{
			name: "blank title after trimming",
			body: `{"title":"   "}`,
			setupMock: func(m *MockAnalysisService) {
				m.On("GenerateReport", "abc", mock.Anything).Return(nil, services.ErrMissingTitle)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"field":"title"`,
		},
		{
			name: "no plot in session",
			body: `{"title":"Rapport"}`,
			setupMock: func(m *MockAnalysisService) {
				m.On("GenerateReport", "abc", mock.Anything).Return(nil, services.ErrNoPlot)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"NO_PLOT"`,
		},
		{
			name: "unknown session",
			body: `{"title":"Rapport"}`,
			setupMock: func(m *MockAnalysisService) {
				m.On("GenerateReport", "abc", mock.Anything).Return(nil, services.ErrSessionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"SESSION_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/analyses/abc/report", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			newTestAnalysisRouter(t, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_DeleteSession(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("DeleteSession", "abc").Return(nil)

	rec := httptest.NewRecorder()
	newTestAnalysisRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/analyses/abc", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_OversizedSessionID(t *testing.T) {
	svc := new(MockAnalysisService)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/analyses/"+strings.Repeat("a", 65)+"/artifacts", nil)
	newTestAnalysisRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	svc.AssertNotCalled(t, "Artifacts", mock.Anything)
}
