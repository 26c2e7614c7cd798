package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arefa/internal/assets"
	"arefa/internal/export/archive"
	"arefa/internal/export/batch"
	"arefa/internal/export/document"
	"arefa/internal/export/filter"
	"arefa/internal/registry/models"
	"arefa/internal/registry/sheets"
	"arefa/pkg/testutil"
)

type fakeRenderer struct {
	fail map[int64]bool
}

func (f fakeRenderer) Render(_ context.Context, src document.Source, _ document.Layout) ([]byte, error) {
	if f.fail[src.ID] {
		return nil, errors.New("render failed")
	}
	return []byte("%PDF-" + src.Name), nil
}

type fakePhotos map[string][]byte

func (f fakePhotos) Load(_ context.Context, ref string) ([]byte, error) {
	if data, ok := f[ref]; ok {
		return data, nil
	}
	return nil, assets.ErrNotFound
}

func traders() []*models.Trader {
	recs := testutil.Traders("Amani", 3)
	for i, r := range recs {
		r.ID = int64(i + 1)
	}
	recs[2].MPesa = false
	return recs
}

func newPipeline(recs []*models.Trader, fail map[int64]bool) (*pipeline[*models.Trader], *bytes.Buffer) {
	var out bytes.Buffer
	return &pipeline[*models.Trader]{
		profile:   sheets.Trader,
		records:   recs,
		batchSize: 2,
		renderer:  fakeRenderer{fail: fail},
		photos:    fakePhotos{"uploads/cambiste-1.jpg": []byte("jpeg")},
		stdout:    &out,
	}, &out
}

func TestPipelinePlan(t *testing.T) {
	p, out := newPipeline(traders(), nil)

	require.NoError(t, p.plan(filter.Criteria{}))

	assert.Equal(t, "3 fiche(s), 2 par lot\nLot 1 (1 - 2)\nLot 2 (3 - 3)\n", out.String())
}

func TestPipelinePlanRejectsBadCriteria(t *testing.T) {
	p, _ := newPipeline(traders(), nil)

	assert.Error(t, p.plan(filter.Criteria{Date: "01/03/2024"}))
	assert.Error(t, p.plan(filter.Criteria{Activity: "bitcoin"}))
	assert.Error(t, p.plan(filter.Criteria{Category: "Shop"}))
	assert.NoError(t, p.plan(filter.Criteria{Activity: filter.ActivityAll}))
}

func TestPipelineExport(t *testing.T) {
	dir := t.TempDir()
	p, out := newPipeline(traders(), nil)

	path, err := p.export(context.Background(), filter.Criteria{}, 2, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Fiches_AREFA_Lot_2.zip"), path)
	assert.Contains(t, out.String(), "Lot 2: 1/1\n")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "Fiches_AREFA_Lot_2/"+archive.DocumentEntry(3, "Amani 3"))
}

func TestPipelineExportFiltersBeforePaging(t *testing.T) {
	dir := t.TempDir()
	p, out := newPipeline(traders(), nil)

	_, err := p.export(context.Background(), filter.Criteria{Activity: "mPesa"}, 1, dir)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Lot 1: 2/2\n")
}

func TestPipelineExportErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("no matches", func(t *testing.T) {
		p, _ := newPipeline(traders(), nil)
		_, err := p.export(ctx, filter.Criteria{Name: "nobody"}, 1, t.TempDir())
		assert.ErrorIs(t, err, batch.ErrNoMatches)
	})

	t.Run("batch out of range", func(t *testing.T) {
		p, _ := newPipeline(traders(), nil)
		_, err := p.export(ctx, filter.Criteria{}, 3, t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "between 1 and 2")
	})

	t.Run("every render fails", func(t *testing.T) {
		dir := t.TempDir()
		p, _ := newPipeline(traders(), map[int64]bool{3: true})
		_, err := p.export(ctx, filter.Criteria{}, 2, dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Aucune fiche")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestPipelineDocument(t *testing.T) {
	dir := t.TempDir()
	p, _ := newPipeline(traders(), nil)

	path, err := p.document(context.Background(), 2, dir)
	require.NoError(t, err)
	assert.Equal(t, "Fiche-Cambiste-2-AREFA.pdf", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-Amani 2", string(data))

	_, err = p.document(context.Background(), 99, dir)
	assert.Error(t, err)
}

func TestPipelineDocumentHostileOperatorName(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	op := testutil.NewOperator("x/../../../pwn", models.StatutShop, testutil.Day)
	op.ID = 5
	p := &pipeline[*models.Operator]{
		profile:  sheets.Operator,
		records:  []*models.Operator{op},
		renderer: fakeRenderer{},
		stdout:   &bytes.Buffer{},
	}

	path, err := p.document(context.Background(), 5, dir)

	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out", entries[0].Name())
}

func TestWriteFileRejectsPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"", "..", "../escape.pdf", "sub/inner.pdf"} {
		_, err := writeFile(dir, name, []byte("%PDF-"))
		assert.Error(t, err, name)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunPlanAgainstServer(t *testing.T) {
	ops := []*models.Operator{
		testutil.NewOperator("Neema", models.StatutShop, testutil.Day),
		testutil.NewOperator("Furaha", models.StatutGrandeCabine, testutil.Day),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/operateurs" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ops)
	}))
	defer srv.Close()

	var out bytes.Buffer
	o := options{
		server:    srv.URL,
		kind:      string(models.KindOperator),
		criteria:  filter.Criteria{Category: models.StatutShop},
		batchSize: batch.DefaultSize,
		timeout:   5 * time.Second,
		logLevel:  "error",
	}

	require.NoError(t, run(context.Background(), "plan", o, &out))
	assert.Equal(t, "1 fiche(s), 20 par lot\nLot 1 (1 - 1)\n", out.String())
}

func TestRunReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal_error","error_description":"failed to list cambiste"}`))
	}))
	defer srv.Close()

	o := options{server: srv.URL, kind: string(models.KindTrader), batchSize: 20, timeout: 5 * time.Second}
	err := run(context.Background(), "plan", o, &bytes.Buffer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list cambiste")
}

func TestRunUnknownKind(t *testing.T) {
	err := run(context.Background(), "plan", options{kind: "banque"}, &bytes.Buffer{})
	assert.Error(t, err)
}
