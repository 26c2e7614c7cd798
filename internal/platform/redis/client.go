// Package redis opens the optional Redis connection behind the rendered
// document cache and exports its pool statistics.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"arefa/internal/platform/config"
)

var (
	poolEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arefa_redis_pool_events_total",
		Help: "Connection pool events by kind (hit, miss, timeout, stale)",
	}, []string{"event"})
	poolConns = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arefa_redis_pool_conns",
		Help: "Connections currently held by the pool, total and idle",
	}, []string{"state"})
)

var errNotConfigured = errors.New("redis not configured")

// Client is a go-redis client that remembers the last pool snapshot so
// counters can be advanced by deltas.
type Client struct {
	*redis.Client
	last redis.PoolStats
}

// New connects using cfg.URL and pings once. An empty URL returns a nil
// client and no error: the document cache is then disabled.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout+time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health is registered as the "redis" readiness check.
func (c *Client) Health(ctx context.Context) error {
	if c == nil {
		return errNotConfigured
	}
	return c.Ping(ctx).Err()
}

// WatchPoolStats records pool statistics every interval until ctx ends.
func (c *Client) WatchPoolStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RecordPoolStats()
		}
	}
}

// RecordPoolStats publishes the current pool snapshot.
func (c *Client) RecordPoolStats() {
	stats := *c.PoolStats()
	for event, n := range poolDeltas(c.last, stats) {
		poolEvents.WithLabelValues(event).Add(float64(n))
	}
	poolConns.WithLabelValues("total").Set(float64(stats.TotalConns))
	poolConns.WithLabelValues("idle").Set(float64(stats.IdleConns))
	c.last = stats
}

// poolDeltas returns how far each cumulative pool counter moved since prev.
// go-redis counters only grow, except after a pool reset, in which case the
// current value is taken as the delta.
func poolDeltas(prev, cur redis.PoolStats) map[string]uint32 {
	delta := func(p, c uint32) uint32 {
		if c < p {
			return c
		}
		return c - p
	}
	out := make(map[string]uint32, 4)
	for event, d := range map[string]uint32{
		"hit":     delta(prev.Hits, cur.Hits),
		"miss":    delta(prev.Misses, cur.Misses),
		"timeout": delta(prev.Timeouts, cur.Timeouts),
		"stale":   delta(prev.StaleConns, cur.StaleConns),
	} {
		if d > 0 {
			out[event] = d
		}
	}
	return out
}
