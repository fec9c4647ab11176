package config

import "time"

// Header constants.
const (
	HEADER_KEY_X_REQUEST_ID = "X-Request-Id"
	HEADER_KEY_X_ADMIN_USER = "X-Admin-User"
)

const (
	ENV_KEY_APP_ENV   = "APP_ENV"
	ENV_KEY_PORT      = "PORT"
	ENV_KEY_LOG_LEVEL = "LOG_LEVEL"

	ENV_KEY_ADMIN_BASIC_AUTH_USER = "ADMIN_BASIC_AUTH_USER"
	ENV_KEY_ADMIN_BASIC_AUTH_PASS = "ADMIN_BASIC_AUTH_PASS"

	ENV_KEY_SITE_API_BASE_URL   = "SITE_API_BASE_URL"
	ENV_KEY_SITE_API_TIMEOUT    = "SITE_API_TIMEOUT"
	ENV_KEY_SITE_API_RATE_LIMIT = "SITE_API_RATE_LIMIT"
	ENV_KEY_SITE_PUBLIC_URL     = "SITE_PUBLIC_URL"

	ENV_KEY_DB_HOST                 = "DB_HOST"
	ENV_KEY_DB_PORT                 = "DB_PORT"
	ENV_KEY_DB_USER                 = "DB_USER"
	ENV_KEY_DB_PASSWORD             = "DB_PASSWORD"
	ENV_KEY_DB_DATABASE             = "DB_DATABASE"
	ENV_KEY_DB_MAX_OPEN_CONNECTIONS = "DB_MAX_OPEN_CONNECTIONS"

	ENV_KEY_REDIS_HOST     = "REDIS_HOST"
	ENV_KEY_REDIS_PORT     = "REDIS_PORT"
	ENV_KEY_REDIS_PASSWORD = "REDIS_PASSWORD"

	ENV_KEY_WORKER_CONCURRENCY = "WORKER_CONCURRENCY"
	ENV_KEY_BULK_CONCURRENCY   = "BULK_CONCURRENCY"

	ENV_KEY_STORAGE_PROVIDER    = "STORAGE_PROVIDER"
	ENV_KEY_STORAGE_BUCKET      = "STORAGE_BUCKET"
	ENV_KEY_STORAGE_TEMP_PATH   = "STORAGE_TEMP_PATH"
	ENV_KEY_MINIO_ENDPOINT      = "MINIO_ENDPOINT"
	ENV_KEY_MINIO_ACCESS_KEY    = "MINIO_ACCESS_KEY"
	ENV_KEY_MINIO_SECRET_KEY    = "MINIO_SECRET_KEY"
	ENV_KEY_MINIO_USE_SSL       = "MINIO_USE_SSL"
	ENV_KEY_SMTP_HOST           = "SMTP_HOST"
	ENV_KEY_SMTP_PORT           = "SMTP_PORT"
	ENV_KEY_SMTP_USERNAME       = "SMTP_USERNAME"
	ENV_KEY_SMTP_PASSWORD       = "SMTP_PASSWORD"
	ENV_KEY_REPORT_EMAIL_TO     = "REPORT_EMAIL_TO"
	ENV_KEY_REPORT_EMAIL_FROM   = "REPORT_EMAIL_FROM"
	ENV_KEY_OTEL_ENDPOINT       = "OTEL_EXPORTER_OTLP_ENDPOINT"
	ENV_KEY_OTEL_SERVICE_NAME   = "OTEL_SERVICE_NAME"
	ENV_KEY_AUTOTAG_POLL        = "AUTOTAG_POLL_INTERVAL"
	ENV_KEY_SNAPSHOT_TTL        = "ASSET_SNAPSHOT_TTL"
	ENV_KEY_PALETTE_SWEEP_CRON  = "PALETTE_SWEEP_SPEC"
	ENV_KEY_PALETTE_SWEEP_LIMIT = "PALETTE_SWEEP_LIMIT"
)

const (
	DEFAULT_PORT                = 8080
	DEFAULT_SITE_API_BASE_URL   = "http://localhost:8001"
	DEFAULT_SITE_API_TIMEOUT    = 15 * time.Second
	DEFAULT_SITE_API_RATE_LIMIT = 20
	DEFAULT_AUTOTAG_POLL        = 6 * time.Second
	DEFAULT_SNAPSHOT_TTL        = 10 * time.Second
	DEFAULT_WORKER_CONCURRENCY  = 10
	DEFAULT_BULK_CONCURRENCY    = 4
	DEFAULT_PALETTE_SWEEP_CRON  = "@every 10m"
	DEFAULT_PALETTE_SWEEP_LIMIT = 50
	DEFAULT_SERVICE_NAME        = "framecraft-console"

	PRESIGN_URL_EXPIRE_MINUTES = 15
	PALETTE_SIZE               = 4
)

type ContextKey uint

const (
	_ ContextKey = iota
	CTX_KEY_ADMIN_USER
)
