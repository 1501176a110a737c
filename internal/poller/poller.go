// Package poller runs fixed-interval reconciliation loops that keep a locally
// held copy of generation-backed entities in step with the store.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Func is a single tick. Returning stop ends the task; an error only skips
// the tick.
type Func func(ctx context.Context) (stop bool, err error)

type Task struct {
	interval time.Duration
	fn       Func
	logger   *slog.Logger
}

type Option func(*Task)

func WithLogger(l *slog.Logger) Option {
	return func(t *Task) {
		t.logger = l
	}
}

func New(interval time.Duration, fn Func, opts ...Option) *Task {
	t := &Task{
		interval: interval,
		fn:       fn,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run blocks until fn asks to stop (nil) or ctx is done (ctx.Err()). The
// first tick fires one interval after Run starts. Ticks never overlap: a slow
// tick delays the next one instead of racing it.
func (t *Task) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		stop, err := t.fn(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			t.logger.DebugContext(ctx, "poll tick failed", slog.String("err", err.Error()))
			continue
		}
		if stop {
			return nil
		}
	}
}

// Handle controls a task started in the background.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (t *Task) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		err := t.Run(ctx)
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
	}()
	return h
}

// Stop cancels future ticks and waits for the loop to exit.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
