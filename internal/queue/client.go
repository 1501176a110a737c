package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avatarstudio/avatarstudio/internal/config"
	"github.com/avatarstudio/avatarstudio/internal/queue/tasks"
	"github.com/avatarstudio/avatarstudio/internal/usecase"
	"github.com/hibiken/asynq"
)

// Client wraps asynq.Client for enqueuing tasks
type Client struct {
	client   *asynq.Client
	maxRetry int
	logger   *slog.Logger
}

// NewClient creates a new queue client
func NewClient(opt asynq.RedisClientOpt, maxRetry int, logger *slog.Logger) *Client {
	if maxRetry < 0 {
		maxRetry = config.DEFAULT_GENERATION_MAX_RETRY
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client:   asynq.NewClient(opt),
		maxRetry: maxRetry,
		logger:   logger,
	}
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}

func newGenerationTask(gen usecase.Generation, maxRetry int) (*asynq.Task, error) {
	typ, err := tasks.GenerationType(gen.Kind)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(tasks.GenerationPayload{
		GenerationID: gen.ID,
		Kind:         gen.Kind,
		EntityID:     gen.EntityID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}
	return asynq.NewTask(typ, payload,
		asynq.TaskID(gen.ID.String()),
		asynq.MaxRetry(maxRetry),
		asynq.Queue("critical"),
	), nil
}

// EnqueueGeneration enqueues one generate:* task per generation record. The
// generation ID doubles as the task ID, so enqueueing twice is harmless.
func (c *Client) EnqueueGeneration(ctx context.Context, gen usecase.Generation) error {
	task, err := newGenerationTask(gen, c.maxRetry)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.InfoContext(ctx, "enqueued task",
		slog.String("task_id", info.ID),
		slog.String("type", info.Type),
		slog.String("queue", info.Queue))
	return nil
}

// EnqueueHelloWorld returns the asynq task ID.
func (c *Client) EnqueueHelloWorld(ctx context.Context, payload []byte) (string, error) {
	info, err := c.client.EnqueueContext(ctx,
		asynq.NewTask(config.TASK_HELLO_WORLD, payload, asynq.Queue("low"), asynq.Retention(24*time.Hour)))
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}
	return info.ID, nil
}
