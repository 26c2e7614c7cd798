package cache

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arefa/internal/export/document"
	"arefa/pkg/platform/circuit"
)

type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
	gets    int
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failGet {
		return nil, false, errors.New("redis: connection pool timeout")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapStore) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

type countingRenderer struct{ calls int }

func (c *countingRenderer) Render(_ context.Context, src document.Source, _ document.Layout) ([]byte, error) {
	c.calls++
	return []byte("%PDF-" + src.Name), nil
}

// photoRenderer reports a placeholder render while photoDown is set.
type photoRenderer struct {
	countingRenderer
	photoDown bool
}

func (p *photoRenderer) RenderDetailed(ctx context.Context, src document.Source, layout document.Layout) (document.Rendered, error) {
	data, err := p.Render(ctx, src, layout)
	return document.Rendered{PDF: data, PhotoDegraded: p.photoDown}, err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestKey(t *testing.T) {
	layout := document.Layout{Kind: "cambiste", Title: "FICHE"}
	src := document.Source{ID: 1, Fields: map[string]any{"nomPrenom": "A", "mPesa": true}}

	k1, err := Key(src, layout)
	require.NoError(t, err)
	k2, err := Key(document.Source{ID: 1, Fields: map[string]any{"mPesa": true, "nomPrenom": "A"}}, layout)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)

	src.Fields["mPesa"] = false
	k3, err := Key(src, layout)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestCachingRenderer(t *testing.T) {
	ctx := context.Background()
	layout := document.Layout{Kind: "operateur"}
	src := document.Source{ID: 9, Name: "Esther", Fields: map[string]any{"nomPrenom": "Esther"}}

	t.Run("second render is served from the store", func(t *testing.T) {
		next := &countingRenderer{}
		r := NewCachingRenderer(next, &mapStore{data: map[string][]byte{}}, time.Minute, quiet(), nil)

		first, err := r.Render(ctx, src, layout)
		require.NoError(t, err)
		second, err := r.Render(ctx, src, layout)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, next.calls)
	})

	t.Run("store errors fall through to rendering", func(t *testing.T) {
		next := &countingRenderer{}
		r := NewCachingRenderer(next, &mapStore{data: map[string][]byte{}, failGet: true}, time.Minute, quiet(), nil)

		_, err := r.Render(ctx, src, layout)
		require.NoError(t, err)
		_, err = r.Render(ctx, src, layout)
		require.NoError(t, err)

		assert.Equal(t, 2, next.calls)
	})

	t.Run("placeholder render is not stored", func(t *testing.T) {
		next := &photoRenderer{photoDown: true}
		store := &mapStore{data: map[string][]byte{}}
		r := NewCachingRenderer(next, store, time.Minute, quiet(), nil)

		_, err := r.Render(ctx, src, layout)
		require.NoError(t, err)
		assert.Empty(t, store.data)

		next.photoDown = false
		_, err = r.Render(ctx, src, layout)
		require.NoError(t, err)
		assert.Equal(t, 2, next.calls, "rendered again once the photo is back")
		assert.Len(t, store.data, 1)

		_, err = r.Render(ctx, src, layout)
		require.NoError(t, err)
		assert.Equal(t, 2, next.calls)
	})

	t.Run("nil store disables caching", func(t *testing.T) {
		next := &countingRenderer{}
		r := NewCachingRenderer(next, nil, time.Minute, quiet(), nil)

		_, _ = r.Render(ctx, src, layout)
		_, _ = r.Render(ctx, src, layout)

		assert.Equal(t, 2, next.calls)
	})
}

func TestCachingRendererBreaker(t *testing.T) {
	ctx := context.Background()
	layout := document.Layout{Kind: "cambiste"}
	src := document.Source{ID: 4, Name: "Baraka", Fields: map[string]any{"nomPrenom": "Baraka"}}

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	breaker := circuit.New("document-cache",
		circuit.WithFailureThreshold(2),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	store := &mapStore{data: map[string][]byte{}, failGet: true}
	next := &countingRenderer{}
	r := NewCachingRenderer(next, store, time.Minute, quiet(), nil, WithBreaker(breaker))

	for range 4 {
		_, err := r.Render(ctx, src, layout)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, next.calls)
	assert.Equal(t, 2, store.gets, "open circuit skips the store")
	assert.Equal(t, circuit.StateOpen, breaker.State())

	store.failGet = false
	now = now.Add(2 * time.Minute)

	data, err := r.Render(ctx, src, layout)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-Baraka", string(data))
	assert.Equal(t, 3, store.gets)
	assert.Equal(t, 4, next.calls, "written before the circuit opened")
	assert.Equal(t, circuit.StateClosed, breaker.State())
}

type recoveringPhotos struct {
	mu    sync.Mutex
	data  []byte
	down  bool
	calls int
}

func (p *recoveringPhotos) Load(context.Context, string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.down {
		return nil, errors.New("object store unavailable")
	}
	return p.data, nil
}

func TestCachingRendererRetriesPhotoAfterPlaceholder(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 12))))
	photos := &recoveringPhotos{data: buf.Bytes(), down: true}
	r := NewCachingRenderer(document.New(photos, document.WithLogger(quiet())),
		&mapStore{data: map[string][]byte{}}, time.Minute, quiet(), nil)

	layout := document.Layout{Kind: "cambiste", Title: "FICHE CAMBISTE"}
	src := document.Source{ID: 7, Name: "Neema", PhotoRef: "uploads/neema.png", Fields: map[string]any{"nomPrenom": "Neema"}}

	_, err := r.Render(ctx, src, layout)
	require.NoError(t, err)
	photos.down = false
	_, err = r.Render(ctx, src, layout)
	require.NoError(t, err)
	assert.Equal(t, 2, photos.calls)

	_, err = r.Render(ctx, src, layout)
	require.NoError(t, err)
	assert.Equal(t, 2, photos.calls, "recovered sheet is cached")
}
