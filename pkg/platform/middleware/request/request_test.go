package request

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arefa/pkg/requestcontext"
)

func TestRequestID(t *testing.T) {
	capture := func(id *string) http.Handler {
		return RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*id = requestcontext.RequestID(r.Context())
		}))
	}

	t.Run("generates UUID when header missing", func(t *testing.T) {
		var got string
		w := httptest.NewRecorder()
		capture(&got).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fiches", nil))

		assert.Len(t, got, 36)
		assert.Equal(t, got, w.Header().Get("X-Request-ID"))
	})

	t.Run("reuses safe client id", func(t *testing.T) {
		var got string
		req := httptest.NewRequest(http.MethodGet, "/api/fiches", nil)
		req.Header.Set("X-Request-ID", "export.lot_2-abc")
		capture(&got).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "export.lot_2-abc", got)
	})

	t.Run("replaces unsafe client ids", func(t *testing.T) {
		for _, id := range []string{
			"with space",
			"line\nbreak",
			`quote"d`,
			strings.Repeat("a", MaxRequestIDLength+1),
		} {
			var got string
			req := httptest.NewRequest(http.MethodGet, "/api/fiches", nil)
			req.Header.Set("X-Request-ID", id)
			capture(&got).ServeHTTP(httptest.NewRecorder(), req)

			assert.NotEqual(t, id, got)
			assert.Len(t, got, 36)
		}
	})
}

func TestRequestTime(t *testing.T) {
	var first, second time.Time
	handler := RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		time.Sleep(5 * time.Millisecond)
		second = requestcontext.Now(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/fiches", nil))

	assert.False(t, first.IsZero())
	assert.Equal(t, first, second)
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body["error"])
}

func TestLogger(t *testing.T) {
	t.Run("logs api requests", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		handler := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1}`))
		})))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/fiches", nil))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "http request", line["msg"])
		assert.EqualValues(t, http.StatusCreated, line["status"])
		assert.EqualValues(t, 8, line["bytes"])
		assert.NotEmpty(t, line["request_id"])
	})

	t.Run("level follows status", func(t *testing.T) {
		for status, level := range map[int]string{
			http.StatusOK:                  "INFO",
			http.StatusNotFound:            "WARN",
			http.StatusUnprocessableEntity: "WARN",
			http.StatusInternalServerError: "ERROR",
		} {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/fiches/export", nil))

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, level, line["level"], "status %d", status)
		}
	})

	t.Run("failed photo downloads are logged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/uploads/none.jpg", nil))

		assert.Contains(t, buf.String(), `"status":404`)
	})

	t.Run("skips successful asset and health requests", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/uploads/cambiste-1.jpg", nil))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Empty(t, buf.String())
	})
}
