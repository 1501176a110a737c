package poller

import (
	"context"
	"log/slog"
	"time"
)

// Resolvable is anything with a pending/resolved result.
type Resolvable interface {
	Resolved() bool
}

// ListWatch refreshes a whole list while any member is unresolved. It never
// stops on its own; cancel the context to stop it.
type ListWatch[T Resolvable] struct {
	Interval time.Duration
	Fetch    func(context.Context) ([]T, error)
	OnUpdate func([]T)
	Logger   *slog.Logger
}

func (w ListWatch[T]) Run(ctx context.Context, initial []T) error {
	items := initial
	tick := func(ctx context.Context) (bool, error) {
		if !anyPending(items) {
			return false, nil
		}
		fresh, err := w.Fetch(ctx)
		if err != nil {
			return false, err
		}
		items = fresh
		if w.OnUpdate != nil {
			w.OnUpdate(fresh)
		}
		return false, nil
	}
	return New(w.Interval, tick, w.options()...).Run(ctx)
}

func (w ListWatch[T]) options() []Option {
	if w.Logger == nil {
		return nil
	}
	return []Option{WithLogger(w.Logger)}
}

func anyPending[T Resolvable](items []T) bool {
	for _, it := range items {
		if !it.Resolved() {
			return true
		}
	}
	return false
}

// Watch follows a single entity until it resolves, then calls OnComplete
// once after Grace. No tick is scheduled after resolution.
type Watch[T Resolvable] struct {
	Interval   time.Duration
	Grace      time.Duration
	Fetch      func(context.Context) (T, error)
	OnUpdate   func(T)
	OnComplete func(T)
	Logger     *slog.Logger
}

func (w Watch[T]) Run(ctx context.Context, initial T) error {
	current := initial
	if !current.Resolved() {
		tick := func(ctx context.Context) (bool, error) {
			fresh, err := w.Fetch(ctx)
			if err != nil {
				return false, err
			}
			current = fresh
			if w.OnUpdate != nil {
				w.OnUpdate(fresh)
			}
			return fresh.Resolved(), nil
		}
		var opts []Option
		if w.Logger != nil {
			opts = append(opts, WithLogger(w.Logger))
		}
		if err := New(w.Interval, tick, opts...).Run(ctx); err != nil {
			return err
		}
	}

	timer := time.NewTimer(w.Grace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if w.OnComplete != nil {
		w.OnComplete(current)
	}
	return nil
}
