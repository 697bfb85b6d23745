package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/Antonpb/alfaapp/internal/errors"
	"github.com/Antonpb/alfaapp/internal/shared/testutil"
)

func newClientLogHandler(t *testing.T) (*ClientLogHandler, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	return NewClientLogHandler(logger, apierrors.NewErrorHandler(logger, false)), logs
}

func postClientLog(t *testing.T, handler *ClientLogHandler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)
	return rec
}

func TestClientLogHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "valid log entry",
			body: map[string]interface{}{
				"level":   "info",
				"message": "upload started",
				"data": map[string]interface{}{
					"file": "handler.xlsx",
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "missing level defaults to info",
			body: map[string]interface{}{
				"message": "map iframe loaded",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty body",
			body:           nil,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "EMPTY_BODY",
		},
		{
			name:           "invalid JSON",
			body:           "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.CodeInvalidRequest,
		},
		{
			name: "missing message",
			body: map[string]interface{}{
				"level": "info",
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.CodeValidationFailed,
		},
		{
			name: "unknown level",
			body: map[string]interface{}{
				"level":   "fatal",
				"message": "x",
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.CodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newClientLogHandler(t)

			var body []byte
			if tt.body != nil {
				if str, ok := tt.body.(string); ok {
					body = []byte(str)
				} else {
					var err error
					body, err = json.Marshal(tt.body)
					require.NoError(t, err)
				}
			}

			rec := postClientLog(t, handler, body)
			assert.Equal(t, tt.expectedStatus, rec.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, true, response["success"])
			} else {
				assert.Equal(t, tt.expectedCode, response["error_code"])
			}
		})
	}
}

func TestClientLogHandler_LogLevels(t *testing.T) {
	levels := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}

	for name, level := range levels {
		t.Run("level_"+name, func(t *testing.T) {
			handler, logs := newClientLogHandler(t)
			msg := "client message for " + name

			body, err := json.Marshal(map[string]interface{}{
				"level":   name,
				"message": msg,
				"source":  "index.html",
			})
			require.NoError(t, err)

			rec := postClientLog(t, handler, body)
			assert.Equal(t, http.StatusOK, rec.Code)
			testutil.AssertLogContains(t, logs, level, msg)
			testutil.AssertLogAttr(t, logs, "client_source", "index.html")
		})
	}
}

func TestClientLogHandler_LargePayload(t *testing.T) {
	handler, _ := newClientLogHandler(t)

	largeData := make(map[string]interface{})
	for i := 0; i < 100; i++ {
		largeData[fmt.Sprintf("%c%d", 'a'+i%26, i)] = fmt.Sprintf("value%d", i)
	}

	body, err := json.Marshal(map[string]interface{}{
		"level":   "info",
		"message": "Large payload test",
		"data":    largeData,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, postClientLog(t, handler, body).Code)
}

func TestClientLogHandler_SpecialCharacters(t *testing.T) {
	messages := map[string]string{
		"danish":   "Kolonnen 'Leje/m2' mangler i data.",
		"quotes":   "Test with \"quotes\" and 'apostrophes'",
		"newlines": "Test with\nnewlines\nand\ttabs",
		"html":     "Test with <html>tags</html>",
	}

	for name, message := range messages {
		t.Run(name, func(t *testing.T) {
			handler, logs := newClientLogHandler(t)
			body, err := json.Marshal(map[string]interface{}{
				"level":   "info",
				"message": message,
			})
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, postClientLog(t, handler, body).Code)
			assert.True(t, logs.ContainsMessage(message))
		})
	}
}
