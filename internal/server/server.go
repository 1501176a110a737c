package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"

	"github.com/avatarstudio/avatarstudio/internal/cache"
	"github.com/avatarstudio/avatarstudio/internal/config"
	"github.com/avatarstudio/avatarstudio/internal/database"
	"github.com/avatarstudio/avatarstudio/internal/email"
	"github.com/avatarstudio/avatarstudio/internal/filestorage"
	"github.com/avatarstudio/avatarstudio/internal/firebase"
	"github.com/avatarstudio/avatarstudio/internal/queue"
	"github.com/avatarstudio/avatarstudio/internal/telemetry"
	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

// Service is what the HTTP layer needs from usecase.Usecase.
type Service interface {
	// Health returns a map of health status information.
	Health() map[string]string

	VerifyIDToken(context.Context, string) (usecase.Identity, error)
	SyncUser(context.Context, usecase.Identity) (usecase.User, error)
	GetMe(context.Context, usecase.Caller) (usecase.User, error)

	ListAvatars(context.Context, usecase.Caller, usecase.AvatarScope) ([]usecase.Avatar, error)
	GetAvatarByID(context.Context, usecase.Caller, uuid.UUID) (usecase.Avatar, error)
	GetAvatarStatus(context.Context, usecase.Caller, uuid.UUID) (usecase.Status, error)
	CreateAvatar(context.Context, usecase.Caller, usecase.Prompt) (usecase.Avatar, error)
	CreateCuratedAvatar(context.Context, usecase.Prompt) (usecase.Avatar, error)
	RemixAvatar(context.Context, usecase.Caller, uuid.UUID, usecase.Prompt) (usecase.Avatar, error)
	RegenerateAvatar(context.Context, usecase.Caller, uuid.UUID) (usecase.Avatar, error)
	UpdateAvatarPrompt(context.Context, usecase.Caller, uuid.UUID, usecase.Prompt) (usecase.Avatar, error)
	DeleteAvatar(context.Context, usecase.Caller, uuid.UUID) error

	ListAnimations(context.Context, usecase.Caller) ([]usecase.Animation, error)
	GetAnimationByID(context.Context, usecase.Caller, uuid.UUID) (usecase.Animation, error)
	GetAnimationStatus(context.Context, usecase.Caller, uuid.UUID) (usecase.Status, error)
	CreateAnimation(context.Context, usecase.Caller, uuid.UUID, string) (usecase.Animation, error)
	UpdateAnimationPrompt(context.Context, usecase.Caller, uuid.UUID, string) (usecase.Animation, error)
	DeleteAnimation(context.Context, usecase.Caller, uuid.UUID) error

	SetResult(context.Context, usecase.GenerationKind, uuid.UUID, string) error
	Fail(context.Context, usecase.GenerationKind, uuid.UUID, string) error

	ListUploads(context.Context, usecase.Caller, usecase.UploadType, *bool) ([]usecase.Upload, error)
	GetUploadByID(context.Context, usecase.Caller, uuid.UUID) (usecase.Upload, error)
	CreateUpload(context.Context, usecase.Caller, usecase.Upload) (usecase.Upload, error)
	UpdateUpload(context.Context, usecase.Caller, uuid.UUID, *string, *string) (usecase.Upload, error)
	DeleteUpload(context.Context, usecase.Caller, uuid.UUID) error
	GetUploadURL(context.Context, usecase.Caller, string) (usecase.UploadTarget, error)

	ListProducts(context.Context, usecase.Caller, usecase.ListProductsOption) ([]usecase.Product, error)

	TriggerHelloWorld(context.Context, usecase.Caller, map[string]any) (usecase.TriggerResult, error)
}

// PollIntervals drive the websocket watchers.
type PollIntervals struct {
	List   time.Duration
	Status time.Duration
	Grace  time.Duration
}

func DefaultPollIntervals() PollIntervals {
	return PollIntervals{
		List:   config.ANIMATION_LIST_POLL_INTERVAL,
		Status: config.AVATAR_STATUS_POLL_INTERVAL,
		Grace:  config.COMPLETION_GRACE_DELAY,
	}
}

type Server struct {
	server    Service
	validator *validator.Validate
	logger    *slog.Logger
	clientID  string
	poll      PollIntervals
}

func NewServer(sv Service, logger *slog.Logger, clientID string, poll PollIntervals) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		server:    sv,
		validator: validator.New(),
		logger:    logger,
		clientID:  clientID,
		poll:      poll,
	}
}

// App owns the API process: the HTTP server plus every dependency that must
// be closed on shutdown.
type App struct {
	httpServer *http.Server
	logger     *slog.Logger
	closers    []func(context.Context) error
}

func NewApp() (*App, error) {
	ctx := context.Background()
	logger := telemetry.NewLogger()
	slog.SetDefault(logger)

	app := &App{logger: logger}

	shutdownTelemetry, err := telemetry.Setup(ctx, "avatarstudio-api")
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	app.closers = append(app.closers, shutdownTelemetry)

	gormDB, err := database.Open(logger)
	if err != nil {
		return nil, err
	}
	repo, err := database.New(gormDB)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func(context.Context) error { return repo.Close() })

	var providers usecase.Providers

	fb, err := firebase.New(ctx)
	switch {
	case err == nil:
		providers.Identity = fb
	case os.Getenv(config.ENV_KEY_APP_ENV) == "local":
		logger.Warn("firebase disabled, only internal client auth is accepted", slog.String("err", err.Error()))
	default:
		return nil, err
	}

	fsp, err := filestorage.FromEnv(ctx)
	if err != nil {
		return nil, err
	}
	if fsp == nil {
		logger.Info("file storage disabled")
	} else {
		providers.FileStorage = fsp
	}

	mp, err := email.FromEnv(logger)
	switch {
	case errors.Is(err, email.ErrNotConfigured):
		logger.Info("email notifications disabled")
	case err != nil:
		return nil, err
	default:
		providers.Mailer = mp
		app.closers = append(app.closers, func(context.Context) error { mp.Close(); return nil })
	}

	if rc, err := cache.NewRedisClient(ctx); err != nil {
		logger.Warn("status cache disabled", slog.String("err", err.Error()))
	} else {
		providers.Cache = cache.NewStatusCache(rc)
		app.closers = append(app.closers, func(context.Context) error { return rc.Close() })
	}

	maxRetry := config.DEFAULT_GENERATION_MAX_RETRY
	if raw := os.Getenv(config.ENV_KEY_GENERATION_MAX_RETRY); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid %s %q", config.ENV_KEY_GENERATION_MAX_RETRY, raw)
		}
		maxRetry = n
	}
	qc := queue.NewClient(queue.RedisClientOpt(), maxRetry, logger)
	providers.Queue = qc
	app.closers = append(app.closers, func(context.Context) error { return qc.Close() })

	uc := usecase.New(repo, providers, usecase.Config{
		MailFrom: os.Getenv(config.ENV_KEY_MAIL_FROM),
		Logger:   logger,
	})

	s := NewServer(uc, logger, os.Getenv(config.ENV_KEY_CLIENT_ID), DefaultPollIntervals())

	port, _ := strconv.Atoi(os.Getenv(config.ENV_KEY_PORT))
	if port == 0 {
		port = 8080
	}
	app.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     s.RegisterRoutes(),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: watch sockets are long-lived
	}

	return app, nil
}

func (a *App) Addr() string {
	return a.httpServer.Addr
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) ListenAndServe() error {
	err := a.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains HTTP connections, then closes dependencies in reverse
// order of construction.
func (a *App) Shutdown(ctx context.Context) error {
	errs := []error{a.httpServer.Shutdown(ctx)}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}
