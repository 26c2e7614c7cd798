package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "arefa/pkg/domain-errors"
)

type nameRequest struct {
	Name string `json:"nomPrenom"`
}

func (r *nameRequest) Normalize() { r.Name = strings.TrimSpace(r.Name) }

func (r *nameRequest) Validate() error {
	if r.Name == "" {
		return errors.New("nomPrenom is required")
	}
	return nil
}

type guardedRequest struct {
	Name string `json:"nomPrenom"`
}

func (r *guardedRequest) ReadOnlyKeys() []string { return []string{"id", "dateEnregistrement"} }

type domainFailingRequest struct{}

func (r *domainFailingRequest) Validate() error {
	return dErrors.New(dErrors.CodeBadRequest, "statut is invalid")
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDecodeJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("malformed body is a bad request", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/fiches/1", bytes.NewBufferString(`{nope`))

		got, ok := DecodeJSON[nameRequest](w, req, logger, ctx, "rid")

		assert.False(t, ok)
		assert.Nil(t, got)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeError(t, w)["error"])
	})

	t.Run("read-only keys are rejected", func(t *testing.T) {
		for _, body := range []string{
			`{"nomPrenom":"A","id":9}`,
			`{"nomPrenom":"A","dateEnregistrement":"2024-01-01T00:00:00Z"}`,
		} {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/fiches/1", bytes.NewBufferString(body))

			_, ok := DecodeJSON[guardedRequest](w, req, logger, ctx, "rid")

			assert.False(t, ok)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeError(t, w)["error_description"], "cannot be modified")
		}
	})

	t.Run("oversized body maps to 413", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/fiches/1", bytes.NewBufferString(`{"nomPrenom":"`+strings.Repeat("x", 64)+`"}`))
		req.Body = http.MaxBytesReader(w, req.Body, 16)

		_, ok := DecodeJSON[nameRequest](w, req, logger, ctx, "rid")

		assert.False(t, ok)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("normalizes before validating", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"nomPrenom":"  Amani  "}`))

		got, ok := DecodeAndPrepare[nameRequest](w, req, logger, ctx, "rid")

		require.True(t, ok)
		assert.Equal(t, "Amani", got.Name)
	})

	t.Run("plain validation error becomes validation_error", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"nomPrenom":"   "}`))

		_, ok := DecodeAndPrepare[nameRequest](w, req, logger, ctx, "rid")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "validation_error", body["error"])
		assert.Equal(t, "nomPrenom is required", body["error_description"])
	})

	t.Run("domain error code is preserved", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{}`))

		_, ok := DecodeAndPrepare[domainFailingRequest](w, req, logger, ctx, "rid")

		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeError(t, w)["error"])
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{dErrors.New(dErrors.CodeNotFound, "fiche not found"), http.StatusNotFound, "not_found"},
		{dErrors.New(dErrors.CodeNoMatches, "Aucune fiche ne correspond aux critères."), http.StatusNotFound, "no_matches"},
		{dErrors.New(dErrors.CodeEmptyArchive, "no document"), http.StatusUnprocessableEntity, "empty_archive"},
		{errors.New("raw"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(w, tc.err)
		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.code, decodeError(t, w)["error"])
	}

	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("lot 2: %w", dErrors.New(dErrors.CodeTimeout, "archive build timed out")))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "archive build timed out", decodeError(t, w)["error_description"])
}

func TestSetAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	SetAttachment(w, "Fiches_AREFA_Lot_1.zip", "application/zip")

	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=Fiches_AREFA_Lot_1.zip`, w.Header().Get("Content-Disposition"))
}
