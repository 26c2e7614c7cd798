//go:build integration

// Package containers starts the Postgres and Redis instances used by
// integration tests. Each one is started at most once per test binary and
// reused by every suite; testcontainers' reaper removes them on exit.
package containers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const startTimeout = 90 * time.Second

type shared[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (s *shared[T]) get(t *testing.T, start func(context.Context) (T, error)) T {
	t.Helper()
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		s.val, s.err = start(ctx)
	})
	require.NoError(t, s.err)
	return s.val
}

var (
	postgresOnce shared[*Postgres]
	redisOnce    shared[*Redis]
)

// SharedPostgres returns the package-wide Postgres with the schema applied.
func SharedPostgres(t *testing.T) *Postgres {
	t.Helper()
	return postgresOnce.get(t, startPostgres)
}

// SharedRedis returns the package-wide Redis.
func SharedRedis(t *testing.T) *Redis {
	t.Helper()
	return redisOnce.get(t, startRedis)
}
