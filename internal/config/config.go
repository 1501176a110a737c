package config

import "time"

// Header constants.
const (
	HEADER_KEY_X_CLIENT_ID = "X-Client-Id"
	HEADER_KEY_X_UID       = "X-Uid"
)

const (
	ENV_KEY_APP_ENV   = "APP_ENV"
	ENV_KEY_PORT      = "PORT"
	ENV_KEY_LOG_LEVEL = "LOG_LEVEL"
	ENV_KEY_CLIENT_ID = "CLIENT_ID"

	ENV_KEY_DB_DATABASE             = "DB_DATABASE"
	ENV_KEY_DB_PASSWORD             = "DB_PASSWORD"
	ENV_KEY_DB_USER                 = "DB_USER"
	ENV_KEY_DB_PORT                 = "DB_PORT"
	ENV_KEY_DB_HOST                 = "DB_HOST"
	ENV_KEY_DB_MAX_OPEN_CONNECTIONS = "DB_MAX_OPEN_CONNECTIONS"

	ENV_KEY_REDIS_HOST     = "REDIS_HOST"
	ENV_KEY_REDIS_PORT     = "REDIS_PORT"
	ENV_KEY_REDIS_PASSWORD = "REDIS_PASSWORD"

	ENV_KEY_WORKER_CONCURRENCY   = "WORKER_CONCURRENCY"
	ENV_KEY_GENERATION_TIMEOUT   = "GENERATION_TIMEOUT"
	ENV_KEY_GENERATION_MAX_RETRY = "GENERATION_MAX_RETRY"

	ENV_KEY_GENERATOR_URL     = "GENERATOR_URL"
	ENV_KEY_GENERATOR_API_KEY = "GENERATOR_API_KEY"
	ENV_KEY_GENERATOR_RPS     = "GENERATOR_RPS"

	ENV_KEY_STORAGE_PROVIDER  = "STORAGE_PROVIDER"
	ENV_KEY_MINIO_BUCKET      = "MINIO_BUCKET"
	ENV_KEY_MINIO_UPLOAD_PATH = "MINIO_UPLOAD_PATH"
	ENV_KEY_MINIO_ENDPOINT    = "MINIO_ENDPOINT"
	ENV_KEY_MINIO_ACCESS_KEY  = "MINIO_ACCESS_KEY"
	ENV_KEY_MINIO_SECRET_KEY  = "MINIO_SECRET_KEY"
	ENV_KEY_MINIO_USE_SSL     = "MINIO_USE_SSL"
	ENV_KEY_S3_BUCKET         = "S3_BUCKET"
	ENV_KEY_S3_UPLOAD_PATH    = "S3_UPLOAD_PATH"
	ENV_KEY_S3_REGION         = "S3_REGION"

	ENV_KEY_FIREBASE_SERVICE_ACCOUNT_KEY_PATH = "FIREBASE_SERVICE_ACCOUNT_KEY_PATH"

	ENV_KEY_SMTP_HOST     = "SMTP_HOST"
	ENV_KEY_SMTP_PORT     = "SMTP_PORT"
	ENV_KEY_SMTP_USERNAME = "SMTP_USERNAME"
	ENV_KEY_SMTP_PASSWORD = "SMTP_PASSWORD"
	ENV_KEY_MAIL_FROM     = "MAIL_FROM"

	ENV_KEY_OTEL_EXPORTER_OTLP_ENDPOINT = "OTEL_EXPORTER_OTLP_ENDPOINT"
	ENV_KEY_OTEL_SERVICE_NAME           = "OTEL_SERVICE_NAME"
)

const PRESIGN_URL_EXPIRE_MINUTES = 15

// Polling cadence used by the watchers.
const (
	ANIMATION_LIST_POLL_INTERVAL = 5 * time.Second
	AVATAR_STATUS_POLL_INTERVAL  = 2 * time.Second
	COMPLETION_GRACE_DELAY       = 1 * time.Second
)

const (
	DEFAULT_GENERATION_TIMEOUT   = 10 * time.Minute
	DEFAULT_GENERATION_MAX_RETRY = 3
	GENERATION_SWEEP_CRONSPEC    = "@every 1m"
)

// Task type names shared by the queue client and the worker mux.
const (
	TASK_GENERATE_AVATAR    = "generate:avatar"
	TASK_GENERATE_ANIMATION = "generate:animation"
	TASK_GENERATION_EXPIRE  = "generation:expire"
	TASK_HELLO_WORLD        = "hello:world"
)

type ContextKey uint

const (
	_ ContextKey = iota
	CTX_KEY_CALLER
)
