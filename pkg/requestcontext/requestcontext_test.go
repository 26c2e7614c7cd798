package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestNow(t *testing.T) {
	t.Run("uses pinned time", func(t *testing.T) {
		pinned := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
		ctx := WithTime(context.Background(), pinned)
		assert.Equal(t, pinned, Now(ctx))
	})

	t.Run("falls back to wall clock", func(t *testing.T) {
		before := time.Now()
		got := Now(context.Background())
		assert.False(t, got.Before(before))
	})
}
