package handlers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Usecase is the slice of usecase.Usecase the worker needs.
type Usecase interface {
	ProcessGeneration(ctx context.Context, genID uuid.UUID, lastAttempt bool) error
	ExpireGenerations(ctx context.Context) (int, error)
	ProcessHelloWorld(ctx context.Context, payload []byte) (string, error)
}

// Handlers contains all queue task handlers
type Handlers struct {
	usecase Usecase
	logger  *slog.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(uc Usecase, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		usecase: uc,
		logger:  logger,
	}
}

// isLastAttempt reports whether asynq will give up if this run fails. Outside
// a worker (no retry metadata) it is false.
func isLastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return false
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return false
	}
	return retried >= maxRetry
}
