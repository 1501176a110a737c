package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/avatarstudio/avatarstudio/internal/config"
	"github.com/google/uuid"
)

func New(repo Repository, p Providers, cfg Config) Usecase {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = config.DEFAULT_GENERATION_TIMEOUT
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = "no-reply@avatarstudio.app"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return Usecase{
		repo:                repo,
		identityProvider:    p.Identity,
		fileStorageProvider: p.FileStorage,
		mailer:              p.Mailer,
		queue:               p.Queue,
		statusCache:         p.Cache,
		generator:           p.Generator,
		cfg:                 cfg,
	}
}

type Repository interface {
	Health() map[string]string
	Close() error

	GetUserByID(context.Context, string) (User, error)
	UpsertUser(context.Context, User) (User, error)

	ListAvatars(context.Context, ListAvatarsOption) ([]Avatar, error)
	GetAvatarByID(context.Context, uuid.UUID) (Avatar, error)
	CreateAvatar(context.Context, Avatar) (Avatar, error)
	UpdateAvatarPrompt(context.Context, uuid.UUID, Prompt) (Avatar, error)
	ResolveAvatar(context.Context, uuid.UUID, Resolution) (bool, error)
	DeleteAvatar(context.Context, uuid.UUID) error

	ListAnimations(context.Context, ListAnimationsOption) ([]Animation, error)
	GetAnimationByID(context.Context, uuid.UUID) (Animation, error)
	CreateAnimation(context.Context, Animation) (Animation, error)
	UpdateAnimationPrompt(context.Context, uuid.UUID, string) (Animation, error)
	ResolveAnimation(context.Context, uuid.UUID, Resolution) (bool, error)
	DeleteAnimation(context.Context, uuid.UUID) error

	ListUploads(context.Context, ListUploadsOption) ([]Upload, error)
	GetUploadByID(context.Context, uuid.UUID) (Upload, error)
	CreateUpload(context.Context, Upload) (Upload, error)
	UpdateUpload(context.Context, Upload) (Upload, error)
	DeleteUpload(context.Context, uuid.UUID) error

	CreateGeneration(context.Context, Generation) (Generation, error)
	GetGenerationByID(context.Context, uuid.UUID) (Generation, error)
	ListGenerations(context.Context, ListGenerationsOption) ([]Generation, error)
	UpdateGeneration(context.Context, Generation) (Generation, error)

	ListProducts(context.Context, ListProductsOption) ([]Product, error)
}

// IdentityProvider verifies a bearer token issued by the auth provider.
type IdentityProvider interface {
	VerifyIDToken(context.Context, string) (Identity, error)
}

type FileStorageProvider interface {
	GetUploadURL(ctx context.Context, key string) (string, error)
	GetObjectURL(ctx context.Context, key string) (string, error)
}

type Mailer interface {
	SendEmail(context.Context, Email) error
}

type Queue interface {
	EnqueueGeneration(context.Context, Generation) error
	EnqueueHelloWorld(context.Context, []byte) (string, error)
}

// StatusCache holds resolved generation statuses. Only terminal states are
// ever stored, so a hit never hides a later transition.
type StatusCache interface {
	GetStatus(context.Context, GenerationKind, uuid.UUID) (Status, bool, error)
	SetStatus(context.Context, Status) error
	DeleteStatus(context.Context, GenerationKind, uuid.UUID) error
}

type Generator interface {
	GenerateAvatar(ctx context.Context, prompt string) (string, error)
	GenerateAnimation(ctx context.Context, prompt string, sourceImageURL string) (string, error)
}

type Providers struct {
	Identity    IdentityProvider
	FileStorage FileStorageProvider
	Mailer      Mailer
	Queue       Queue
	Cache       StatusCache
	Generator   Generator
}

type Config struct {
	GenerationTimeout time.Duration
	MailFrom          string
	Logger            *slog.Logger
	Now               func() time.Time
}

type Usecase struct {
	repo                Repository
	identityProvider    IdentityProvider
	fileStorageProvider FileStorageProvider
	mailer              Mailer
	queue               Queue
	statusCache         StatusCache
	generator           Generator
	cfg                 Config
}

func (u Usecase) Health() map[string]string {
	return u.repo.Health()
}

func (u Usecase) Close() error {
	return u.repo.Close()
}

func (u Usecase) logger() *slog.Logger {
	return u.cfg.Logger
}

func (u Usecase) now() time.Time {
	return u.cfg.Now()
}
