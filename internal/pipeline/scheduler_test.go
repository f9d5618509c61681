package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDelayedTaskQueue_FiresAfterDelay(t *testing.T) {
	q := NewDelayedTaskQueue(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	var mu sync.Mutex
	fired := false
	q.ScheduleAfter(10*time.Millisecond, func(context.Context) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired
	}, time.Second, 5*time.Millisecond)
}

func TestDelayedTaskQueue_FiresInOrder(t *testing.T) {
	q := NewDelayedTaskQueue(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	var mu sync.Mutex
	var order []int

	q.ScheduleAfter(30*time.Millisecond, func(context.Context) {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	})
	q.ScheduleAfter(5*time.Millisecond, func(context.Context) {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2}, order)
}

func TestDelayedTaskQueue_StopsOnContextCancel(t *testing.T) {
	q := NewDelayedTaskQueue(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDelayedTaskQueue_PanicInTaskDoesNotKillLoop(t *testing.T) {
	q := NewDelayedTaskQueue(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.ScheduleAfter(2*time.Millisecond, func(context.Context) {
		panic("boom")
	})

	var mu sync.Mutex
	fired := false
	q.ScheduleAfter(10*time.Millisecond, func(context.Context) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired
	}, time.Second, 5*time.Millisecond)
}
