package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"

	"github.com/avatarstudio/avatarstudio/internal/cache"
	"github.com/avatarstudio/avatarstudio/internal/config"
	"github.com/avatarstudio/avatarstudio/internal/database"
	"github.com/avatarstudio/avatarstudio/internal/email"
	"github.com/avatarstudio/avatarstudio/internal/generator"
	"github.com/avatarstudio/avatarstudio/internal/queue/handlers"
	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

// RedisClientOpt builds the asynq connection from the REDIS_* variables.
func RedisClientOpt() asynq.RedisClientOpt {
	opt := cache.RedisOptions()
	return asynq.RedisClientOpt{
		Addr:     opt.Addr,
		Password: opt.Password,
	}
}

// Worker represents a worker application with all its dependencies
type Worker struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	closers     []func() error
	logger      *slog.Logger
}

// NewWorker creates a fully configured worker with all dependencies
func NewWorker(logger *slog.Logger) (*Worker, error) {
	logger.Info("Initializing worker dependencies...")

	gormDB, err := database.Open(logger)
	if err != nil {
		return nil, err
	}
	repo, err := database.New(gormDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}
	w := &Worker{logger: logger, closers: []func() error{repo.Close}}

	var providers usecase.Providers

	if rc, err := cache.NewRedisClient(context.Background()); err != nil {
		logger.Warn("status cache disabled", slog.String("err", err.Error()))
	} else {
		providers.Cache = cache.NewStatusCache(rc)
		w.closers = append(w.closers, rc.Close)
	}

	if gen, err := generator.NewFromEnv(); err != nil {
		logger.Warn("generator disabled, generations will fail", slog.String("err", err.Error()))
	} else {
		providers.Generator = gen
	}

	mp, err := email.FromEnv(logger)
	switch {
	case errors.Is(err, email.ErrNotConfigured):
		logger.Info("email notifications disabled")
	case err != nil:
		return nil, err
	default:
		providers.Mailer = mp
		w.closers = append(w.closers, func() error { mp.Close(); return nil })
	}

	timeout := config.DEFAULT_GENERATION_TIMEOUT
	if raw := os.Getenv(config.ENV_KEY_GENERATION_TIMEOUT); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s %q", config.ENV_KEY_GENERATION_TIMEOUT, raw)
		}
		timeout = d
	}

	// Workers never enqueue, so no queue client is wired.
	uc := usecase.New(repo, providers, usecase.Config{
		GenerationTimeout: timeout,
		MailFrom:          os.Getenv(config.ENV_KEY_MAIL_FROM),
		Logger:            logger,
	})

	workerConcurrency := 10
	if wc := os.Getenv(config.ENV_KEY_WORKER_CONCURRENCY); wc != "" {
		var n int
		if _, err := fmt.Sscanf(wc, "%d", &n); err == nil && n > 0 {
			workerConcurrency = n
		}
	}

	w.asynqServer = asynq.NewServer(
		RedisClientOpt(),
		asynq.Config{
			Concurrency: workerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: newAsynqLogger(logger),
		},
	)
	w.mux = NewMux(handlers.NewHandlers(uc, logger))

	logger.Info("Worker registered handlers",
		slog.Any("tasks", []string{
			config.TASK_GENERATE_AVATAR,
			config.TASK_GENERATE_ANIMATION,
			config.TASK_GENERATION_EXPIRE,
			config.TASK_HELLO_WORLD,
		}))

	return w, nil
}

// NewMux registers one handler per task type.
func NewMux(h *handlers.Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(config.TASK_GENERATE_AVATAR, h.HandleGeneration)
	mux.HandleFunc(config.TASK_GENERATE_ANIMATION, h.HandleGeneration)
	mux.HandleFunc(config.TASK_GENERATION_EXPIRE, h.HandleExpireGenerations)
	mux.HandleFunc(config.TASK_HELLO_WORLD, h.HandleHelloWorld)
	return mux
}

// Start starts the worker server
func (w *Worker) Start() error {
	w.logger.Info("Worker started successfully")
	return w.asynqServer.Start(w.mux)
}

// Stop stops the worker server gracefully
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.asynqServer.Shutdown()

	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			w.logger.Error("Error closing dependency", slog.String("err", err.Error()))
		}
	}
}
