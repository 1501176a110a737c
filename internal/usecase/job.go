package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

type TriggerResult struct {
	Success bool
	JobID   string
	Message string
	Error   string
}

// TriggerHelloWorld enqueues the example background task. Enqueue failures
// are reported in the result rather than as an error.
func (u Usecase) TriggerHelloWorld(ctx context.Context, caller Caller, payload map[string]any) (TriggerResult, error) {
	if err := caller.require(); err != nil {
		return TriggerResult{}, err
	}
	if u.queue == nil {
		return TriggerResult{}, errors.New("queue is not configured")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return TriggerResult{}, ErrInvalid{Field: "payload", Message: err.Error()}
	}

	id, err := u.queue.EnqueueHelloWorld(ctx, b)
	if err != nil {
		u.logger().ErrorContext(ctx, "failed to trigger task", slog.String("err", err.Error()))
		return TriggerResult{Success: false, Error: "Failed to trigger task"}, nil
	}
	return TriggerResult{Success: true, JobID: id, Message: "Task triggered successfully"}, nil
}

func (u Usecase) ProcessHelloWorld(ctx context.Context, payload []byte) (string, error) {
	var p map[string]any
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return "", err
		}
	}
	u.logger().InfoContext(ctx, "Hello, world!", slog.Any("payload", p))
	return "Hello, world!", nil
}
