package handlers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (h *Handlers) HandleHelloWorld(ctx context.Context, task *asynq.Task) error {
	msg, err := h.usecase.ProcessHelloWorld(ctx, task.Payload())
	if err != nil {
		return err
	}
	if w := task.ResultWriter(); w != nil {
		if _, err := w.Write([]byte(msg)); err != nil {
			h.logger.WarnContext(ctx, "failed to write task result", slog.String("err", err.Error()))
		}
	}
	return nil
}
