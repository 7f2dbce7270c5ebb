package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketBurstThenRefill(t *testing.T) {
	tb := NewTokenBucket(3, 100)
	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow())
	}
	assert.False(t, tb.Allow())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, tb.Allow())
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, 0.001)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(2, 50*time.Millisecond)
	assert.True(t, sw.Allow())
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())
	assert.Equal(t, 0, sw.GetRemaining())

	start := time.Now()
	require.NoError(t, sw.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestManagerGroups(t *testing.T) {
	m := NewRateLimitManagerWithLimits(Limits{Public: 5, Order: 1})

	assert.NotNil(t, m.GetLimiter(GroupPublic))
	assert.NotNil(t, m.GetLimiter(GroupOrder))
	assert.Nil(t, m.GetLimiter(GroupPrivate))

	// 未配置的分组不限流
	for i := 0; i < 100; i++ {
		assert.True(t, m.Allow(GroupPrivate))
	}
	assert.Equal(t, -1, m.GetRemaining(GroupPrivate))

	assert.True(t, m.Allow(GroupOrder))
	assert.False(t, m.Allow(GroupOrder))

	m.SetLimiter(GroupOrder, nil)
	assert.True(t, m.Allow(GroupOrder))
}

func TestNilManager(t *testing.T) {
	var m *RateLimitManager
	assert.NoError(t, m.Wait(context.Background(), GroupPublic))
	assert.True(t, m.Allow(GroupOrder))
}

func TestFractionalLimitsStillAdmit(t *testing.T) {
	rlm := NewRateLimitManagerWithLimits(Limits{Public: 0.5, Private: 0.2, Order: 0.5})

	for _, group := range []string{GroupPublic, GroupPrivate, GroupOrder} {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		require.NoError(t, rlm.Wait(ctx, group), group)
		cancel()
		assert.False(t, rlm.Allow(group), group)
	}

	sw, ok := rlm.GetLimiter(GroupOrder).(*SlidingWindow)
	require.True(t, ok)
	assert.Equal(t, 1, sw.limit)
	assert.Equal(t, 2*time.Second, sw.windowSize)

	tb, ok := rlm.GetLimiter(GroupPublic).(*TokenBucket)
	require.True(t, ok)
	assert.Equal(t, 1.0, tb.capacity)
}

func TestLimiterConstructorsClampToOne(t *testing.T) {
	assert.True(t, NewTokenBucket(0, 10).Allow())
	assert.True(t, NewSlidingWindow(0, time.Second).Allow())
}
