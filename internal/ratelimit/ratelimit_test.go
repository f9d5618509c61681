package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_SlidingWindowFairness(t *testing.T) {
	l := NewLimiter(Spec{MaxRequests: 3, Window: time.Second})

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}

	// a 4th admission within the same instant must wait until the first
	// admission ages out of the window.
	wait, ok := l.tryAdmit()
	require.False(t, ok)
	require.Equal(t, time.Second, wait)

	l.now = func() time.Time { return base.Add(time.Second) }
	_, ok = l.tryAdmit()
	require.True(t, ok)
}

func TestLimiter_ContextCancellation(t *testing.T) {
	l := NewLimiter(Spec{MaxRequests: 1, Window: time.Hour})
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx))

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Wait(cancelCtx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRegistry_BindQueueAliases(t *testing.T) {
	reg := NewRegistry(map[string]Spec{
		"search": {MaxRequests: 1, Window: time.Hour},
	})

	require.NoError(t, reg.BindQueue("geocode", "search"))
	require.Error(t, reg.BindQueue("weather", "unknown"))

	ctx := context.Background()
	require.NoError(t, reg.Apply(ctx, "geocode"))

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	err := reg.Apply(cancelCtx, "search")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRegistry_UnknownQueueIsUnbounded(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Apply(context.Background(), "anything"))
}
