package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type item struct {
	id  string
	url string
}

func (i item) Resolved() bool {
	return i.url != ""
}

const tick = 5 * time.Millisecond

func TestTaskStopsWhenFuncAsks(t *testing.T) {
	var calls atomic.Int32
	task := New(tick, func(context.Context) (bool, error) {
		return calls.Add(1) == 3, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := task.Run(ctx); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 ticks, got %d", got)
	}
}

func TestTaskSwallowsTickErrors(t *testing.T) {
	var calls atomic.Int32
	task := New(tick, func(context.Context) (bool, error) {
		if calls.Add(1) < 3 {
			return false, errors.New("store unavailable")
		}
		return true, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := task.Run(ctx); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 ticks, got %d", got)
	}
}

func TestHandleStopCancelsFutureTicks(t *testing.T) {
	var calls atomic.Int32
	h := New(tick, func(context.Context) (bool, error) {
		calls.Add(1)
		return false, nil
	}).Start(context.Background())

	time.Sleep(4 * tick)
	h.Stop()
	after := calls.Load()

	time.Sleep(4 * tick)
	if got := calls.Load(); got != after {
		t.Errorf("Expected no ticks after Stop, got %d more", got-after)
	}
	if !errors.Is(h.Err(), context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", h.Err())
	}
}

func TestListWatchPollsUntilAllResolved(t *testing.T) {
	initial := []item{{id: "a"}, {id: "b", url: "https://x/b.mp4"}}

	var fetches atomic.Int32
	var updates atomic.Int32
	w := ListWatch[item]{
		Interval: tick,
		Fetch: func(context.Context) ([]item, error) {
			if fetches.Add(1) < 3 {
				return initial, nil
			}
			return []item{{id: "a", url: "https://x/a.mp4"}, initial[1]}, nil
		},
		OnUpdate: func([]item) { updates.Add(1) },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 40*tick)
	defer cancel()

	err := w.Run(ctx, initial)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected the list watch to run until cancelled, got %v", err)
	}
	if got := fetches.Load(); got != 3 {
		t.Errorf("Expected 3 fetches, got %d", got)
	}
	if got := updates.Load(); got != 3 {
		t.Errorf("Expected 3 updates, got %d", got)
	}
}

func TestListWatchSkipsFetchWhenNothingPending(t *testing.T) {
	var fetches atomic.Int32
	w := ListWatch[item]{
		Interval: tick,
		Fetch: func(context.Context) ([]item, error) {
			fetches.Add(1)
			return nil, nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*tick)
	defer cancel()

	_ = w.Run(ctx, []item{{id: "a", url: "https://x/a.mp4"}})
	if got := fetches.Load(); got != 0 {
		t.Errorf("Expected no fetches, got %d", got)
	}
}

func TestWatchFiresCompletionOnceAfterGrace(t *testing.T) {
	var fetches atomic.Int32
	var completed atomic.Int32
	var completedAt time.Time
	var resolvedAt time.Time

	w := Watch[item]{
		Interval: tick,
		Grace:    10 * tick,
		Fetch: func(context.Context) (item, error) {
			n := fetches.Add(1)
			if n == 1 {
				return item{}, errors.New("transient")
			}
			if n < 3 {
				return item{id: "a"}, nil
			}
			resolvedAt = time.Now()
			return item{id: "a", url: "https://x/a.png"}, nil
		},
		OnComplete: func(it item) {
			completed.Add(1)
			completedAt = time.Now()
			if it.url != "https://x/a.png" {
				t.Errorf("Expected completed item url, got %q", it.url)
			}
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := w.Run(ctx, item{id: "a"}); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if got := completed.Load(); got != 1 {
		t.Errorf("Expected 1 completion, got %d", got)
	}
	if got := fetches.Load(); got != 3 {
		t.Errorf("Expected 3 fetches, got %d", got)
	}
	if completedAt.Sub(resolvedAt) < 10*tick {
		t.Errorf("Expected completion after the grace delay, got %v", completedAt.Sub(resolvedAt))
	}
}

func TestWatchCancelledBeforeResolution(t *testing.T) {
	var completed atomic.Int32
	w := Watch[item]{
		Interval: tick,
		Grace:    tick,
		Fetch: func(context.Context) (item, error) {
			return item{id: "a"}, nil
		},
		OnComplete: func(item) { completed.Add(1) },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 6*tick)
	defer cancel()

	if err := w.Run(ctx, item{id: "a"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context.DeadlineExceeded, got %v", err)
	}
	if got := completed.Load(); got != 0 {
		t.Errorf("Expected no completion, got %d", got)
	}
}

func TestWatchAlreadyResolvedDoesNotFetch(t *testing.T) {
	var fetches atomic.Int32
	var completed atomic.Int32
	w := Watch[item]{
		Interval: tick,
		Grace:    tick,
		Fetch: func(context.Context) (item, error) {
			fetches.Add(1)
			return item{}, nil
		},
		OnComplete: func(item) { completed.Add(1) },
	}

	if err := w.Run(context.Background(), item{id: "a", url: "https://x/a.png"}); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if fetches.Load() != 0 || completed.Load() != 1 {
		t.Errorf("Expected 0 fetches and 1 completion, got %d and %d", fetches.Load(), completed.Load())
	}
}
