package pipeline

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// delayedTask is one entry in the scheduler's timer heap.
type delayedTask struct {
	fireAt time.Time
	fn     func(ctx context.Context)
	index  int
}

type taskHeap []*delayedTask

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return h[i].fireAt.Before(h[j].fireAt) }
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *taskHeap) Push(x any)         { t := x.(*delayedTask); t.index = len(*h); *h = append(*h, t) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// DelayedTaskQueue is a persistent timer loop that fires enqueued tasks at
// their scheduled time (§4.13 "Delayed tasks"). It satisfies
// spamengine.Scheduler.
type DelayedTaskQueue struct {
	mu      sync.Mutex
	heap    taskHeap
	wake    chan struct{}
	log     zerolog.Logger
	now     func() time.Time
}

// NewDelayedTaskQueue constructs an empty queue. Run must be called to
// drive the timer loop.
func NewDelayedTaskQueue(log zerolog.Logger) *DelayedTaskQueue {
	return &DelayedTaskQueue{
		wake: make(chan struct{}, 1),
		log:  log.With().Str("component", "delayed_tasks").Logger(),
		now:  time.Now,
	}
}

// ScheduleAfter enqueues fn to run after d.
func (q *DelayedTaskQueue) ScheduleAfter(d time.Duration, fn func(ctx context.Context)) {
	q.schedule(q.now().Add(d), fn)
}

func (q *DelayedTaskQueue) schedule(at time.Time, fn func(ctx context.Context)) {
	q.mu.Lock()
	heap.Push(&q.heap, &delayedTask{fireAt: at, fn: fn})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Run drives the timer loop until ctx is cancelled. Due tasks are invoked
// synchronously from the loop goroutine; handlers that need concurrency
// should spawn their own goroutine.
func (q *DelayedTaskQueue) Run(ctx context.Context) {
	for {
		q.mu.Lock()
		var wait time.Duration
		if q.heap.Len() == 0 {
			wait = time.Hour
		} else {
			wait = q.heap[0].fireAt.Sub(q.now())
		}
		q.mu.Unlock()

		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-q.wake:
			timer.Stop()
		case <-timer.C:
		}

		q.fireDue(ctx)
	}
}

func (q *DelayedTaskQueue) fireDue(ctx context.Context) {
	for {
		q.mu.Lock()
		if q.heap.Len() == 0 || q.heap[0].fireAt.After(q.now()) {
			q.mu.Unlock()
			return
		}
		task := heap.Pop(&q.heap).(*delayedTask)
		q.mu.Unlock()

		func() {
			defer func() {
				if r := recover(); r != nil {
					q.log.Error().Interface("panic", r).Msg("delayed task panicked")
				}
			}()
			task.fn(ctx)
		}()
	}
}
