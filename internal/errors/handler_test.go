package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Antonpb/alfaapp/internal/infrastructure"
	"github.com/Antonpb/alfaapp/internal/shared/testutil"
)

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	for _, includeStack := range []bool{true, false} {
		handler := NewErrorHandler(logger, includeStack)
		require.NotNil(t, handler)
		assert.Equal(t, includeStack, handler.includeStack)
		assert.NotNil(t, handler.logger)
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
	}{
		{
			name:       "nil error writes nothing",
			err:        nil,
			wantStatus: 0,
		},
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "wrapped context canceled",
			err:        fmt.Errorf("render plot: %w", context.Canceled),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "APIError",
			err:        ErrInvalidRequest,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Bad Request",
		},
		{
			name:       "missing columns",
			err:        MissingColumnsError("Kolonnerne mangler", []string{"Leje/m2"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeMissingColumns,
			wantTitle:  "Unprocessable Entity",
		},
		{
			name:       "parsing AppError",
			err:        NewParsingError("cannot open workbook", fmt.Errorf("zip: not a valid zip file")),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUnreadableFile,
			wantTitle:  "Unreadable File",
		},
		{
			name:       "string error with not found",
			err:        fmt.Errorf("session not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantTitle:  "Resource Not Found",
		},
		{
			name:       "generic error",
			err:        fmt.Errorf("something went wrong"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logHandler := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, true)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
			r = r.WithContext(infrastructure.WithTraceID(r.Context(), "test-request-id"))

			handler.HandleError(w, r, tt.err)

			if tt.err == nil {
				assert.Equal(t, 0, logHandler.Count())
				assert.Empty(t, w.Body.String())
				return
			}

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))

			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantTitle, body["title"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/analyses", body["instance"])
			assert.Equal(t, "test-request-id", body["trace_id"])

			assert.True(t, logHandler.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_ErrorToProblemExtensions(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodPost, "/api/analyses", nil)

	t.Run("missing columns extension", func(t *testing.T) {
		problem := handler.ErrorToProblem(MissingColumnsError("missing", []string{"Areal", "Salgspris"}), r)
		assert.Equal(t, []string{"Areal", "Salgspris"}, problem.Extensions["missing_columns"])
		assert.Equal(t, CodeMissingColumns, problem.Extensions["error_code"])
	})

	t.Run("validation errors extension", func(t *testing.T) {
		problem := handler.ErrorToProblem(ErrValidation("title", "is required"), r)
		assert.Equal(t, http.StatusBadRequest, problem.Status)
		errs, ok := problem.Extensions["errors"].([]ValidationError)
		require.True(t, ok)
		assert.Equal(t, "title", errs[0].Field)
	})

	t.Run("max bytes error", func(t *testing.T) {
		err := fmt.Errorf("parse form: %w", &http.MaxBytesError{Limit: 1024})
		problem := handler.ErrorToProblem(err, r)
		assert.Equal(t, http.StatusRequestEntityTooLarge, problem.Status)
		assert.Equal(t, TypePayloadTooLarge, problem.Type)
		assert.Contains(t, problem.Detail, "1024")
	})

	t.Run("not found sentinel codes", func(t *testing.T) {
		problem := handler.ErrorToProblem(NotFoundError(CodeSessionNotFound, "session"), r)
		assert.Equal(t, http.StatusNotFound, problem.Status)
		assert.Equal(t, TypeNotFound, problem.Type)
		assert.Equal(t, "session not found", problem.Detail)
	})

	t.Run("storage AppError maps to 500", func(t *testing.T) {
		problem := handler.ErrorToProblem(NewStorageError("put artifact", fmt.Errorf("bucket gone")), r)
		assert.Equal(t, http.StatusInternalServerError, problem.Status)
		assert.Equal(t, TypeStorage, problem.Type)
		assert.Equal(t, "put artifact", problem.Detail)
		assert.Equal(t, "STORAGE", problem.Extensions["error_type"])
	})
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logHandler := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/boom", nil)

	handler.HandlePanic(w, r, "nil map write")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "nil map write", body["panic"])
	assert.NotEmpty(t, body["stack"])
	assert.True(t, logHandler.ContainsMessage("panic recovered"))
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodPatch, "/api/schemas", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "PATCH")
}
