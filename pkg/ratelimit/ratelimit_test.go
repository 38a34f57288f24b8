package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounterWindow(t *testing.T) {
	c := NewMemoryCounter()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, ttl, err := c.Incr(ctx, "ip:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
		assert.Equal(t, time.Minute, ttl)
	}

	other, _, _ := c.Incr(ctx, "ip:5.6.7.8", time.Minute)
	assert.Equal(t, int64(1), other)

	now = now.Add(30 * time.Second)
	count, ttl, _ := c.Incr(ctx, "ip:1.2.3.4", time.Minute)
	assert.Equal(t, int64(4), count)
	assert.Equal(t, 30*time.Second, ttl)

	now = now.Add(30 * time.Second)
	count, _, _ = c.Incr(ctx, "ip:1.2.3.4", time.Minute)
	assert.Equal(t, int64(1), count)
}
