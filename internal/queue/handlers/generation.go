package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/avatarstudio/avatarstudio/internal/queue/tasks"
)

// HandleGeneration processes generate:avatar and generate:animation tasks.
// This is a thin wrapper that delegates to the usecase method
func (h *Handlers) HandleGeneration(ctx context.Context, task *asynq.Task) error {
	var payload tasks.GenerationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		h.logger.ErrorContext(ctx, "failed to parse task payload",
			slog.String("type", task.Type()), slog.String("err", err.Error()))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.GenerationID == uuid.Nil {
		return fmt.Errorf("%w: missing generation_id", asynq.SkipRetry)
	}

	last := isLastAttempt(ctx)
	h.logger.InfoContext(ctx, "processing generation",
		slog.String("type", task.Type()),
		slog.String("generation_id", payload.GenerationID.String()),
		slog.String("entity_id", payload.EntityID.String()),
		slog.Bool("last_attempt", last))

	if err := h.usecase.ProcessGeneration(ctx, payload.GenerationID, last); err != nil {
		h.logger.ErrorContext(ctx, "generation attempt failed",
			slog.String("generation_id", payload.GenerationID.String()),
			slog.String("err", err.Error()))
		return err
	}
	return nil
}

// HandleExpireGenerations is the periodic sweep that fails timed out
// generations.
func (h *Handlers) HandleExpireGenerations(ctx context.Context, _ *asynq.Task) error {
	n, err := h.usecase.ExpireGenerations(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "generation sweep failed", slog.String("err", err.Error()))
		return err
	}
	if n > 0 {
		h.logger.InfoContext(ctx, "expired generations", slog.Int("count", n))
	}
	return nil
}
