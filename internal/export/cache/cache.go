// Package cache keeps rendered documents keyed by a hash of their content,
// so that re-downloading an unchanged sheet skips rasterization.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"arefa/internal/export/document"
	"arefa/internal/export/metrics"
	"arefa/pkg/platform/circuit"
)

// Store is a byte cache with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// RedisStore is a Store on a go-redis client.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a Store writing keys under "arefa:doc:".
func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: "arefa:doc:"}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Key hashes everything that changes the rendered output.
func Key(src document.Source, layout document.Layout) (string, error) {
	doc := struct {
		Kind   string         `json:"kind"`
		Title  string         `json:"title"`
		ID     int64          `json:"id"`
		Photo  string         `json:"photo"`
		Fields map[string]any `json:"fields"`
	}{layout.Kind, layout.Title, src.ID, src.PhotoRef, src.Fields}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("hash document: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Renderer is the render half of document.Renderer.
type Renderer interface {
	Render(ctx context.Context, src document.Source, layout document.Layout) ([]byte, error)
}

// DetailedRenderer is implemented by renderers that report whether the
// photo had to be replaced by the placeholder. Such renders are not stored.
type DetailedRenderer interface {
	RenderDetailed(ctx context.Context, src document.Source, layout document.Layout) (document.Rendered, error)
}

// CachingRenderer serves Render from the store when possible. Cache errors
// are logged and never fail a render. With a breaker, repeated store errors
// stop cache traffic until the breaker lets a probe through.
type CachingRenderer struct {
	next    Renderer
	store   Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	breaker *circuit.Breaker
}

// Option configures a CachingRenderer.
type Option func(*CachingRenderer)

// WithBreaker guards store calls with b.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *CachingRenderer) {
		c.breaker = b
	}
}

// NewCachingRenderer wraps next. A nil store disables caching.
func NewCachingRenderer(next Renderer, store Store, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *CachingRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CachingRenderer{next: next, store: store, ttl: ttl, logger: logger, metrics: m}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachingRenderer) Render(ctx context.Context, src document.Source, layout document.Layout) ([]byte, error) {
	if c.store == nil {
		return c.next.Render(ctx, src, layout)
	}
	if !c.breaker.Allow() {
		c.metrics.IncCacheLookup("bypass")
		return c.next.Render(ctx, src, layout)
	}
	key, err := Key(src, layout)
	if err != nil {
		c.logger.WarnContext(ctx, "document cache key failed", "record_id", src.ID, "error", err)
		return c.next.Render(ctx, src, layout)
	}

	data, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.IncCacheLookup("error")
		c.logger.WarnContext(ctx, "document cache read failed", "record_id", src.ID, "error", err)
		c.recordFailure(ctx)
	case ok:
		c.metrics.IncCacheLookup("hit")
		c.recordSuccess(ctx)
		return data, nil
	default:
		c.metrics.IncCacheLookup("miss")
		c.recordSuccess(ctx)
	}

	res, err := c.renderNext(ctx, src, layout)
	if err != nil {
		return nil, err
	}
	data = res.PDF
	if res.PhotoDegraded {
		c.logger.DebugContext(ctx, "document cache skipped placeholder render", "record_id", src.ID)
		return data, nil
	}
	if !c.breaker.Allow() {
		return data, nil
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "document cache write failed", "record_id", src.ID, "error", err)
		c.recordFailure(ctx)
	}
	return data, nil
}

func (c *CachingRenderer) renderNext(ctx context.Context, src document.Source, layout document.Layout) (document.Rendered, error) {
	if d, ok := c.next.(DetailedRenderer); ok {
		return d.RenderDetailed(ctx, src, layout)
	}
	data, err := c.next.Render(ctx, src, layout)
	return document.Rendered{PDF: data}, err
}

func (c *CachingRenderer) recordFailure(ctx context.Context) {
	if change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "document cache circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *CachingRenderer) recordSuccess(ctx context.Context) {
	if change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "document cache circuit closed", "breaker", c.breaker.Name())
	}
}
