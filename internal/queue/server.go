package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"

	"github.com/framecraft/framecraft/internal/cache"
	"github.com/framecraft/framecraft/internal/config"
	"github.com/framecraft/framecraft/internal/database"
	"github.com/framecraft/framecraft/internal/email"
	"github.com/framecraft/framecraft/internal/filestorage"
	"github.com/framecraft/framecraft/internal/queue/handlers"
	"github.com/framecraft/framecraft/internal/siteapi"
	"github.com/framecraft/framecraft/internal/usecase"
)

// Worker represents a worker application with all its dependencies
type Worker struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	logger      *slog.Logger
	closers     []func() error
}

// NewWorker creates a fully configured worker with all dependencies
func NewWorker(logger *slog.Logger) (*Worker, error) {
	ctx := context.Background()
	logger.Info("Initializing worker dependencies...")

	w := &Worker{logger: logger}

	gormDB, err := database.Open(database.ConnConfig{
		Host:               config.String(config.ENV_KEY_DB_HOST, "localhost"),
		Port:               config.String(config.ENV_KEY_DB_PORT, "5432"),
		User:               config.String(config.ENV_KEY_DB_USER, ""),
		Password:           config.String(config.ENV_KEY_DB_PASSWORD, ""),
		Database:           config.String(config.ENV_KEY_DB_DATABASE, ""),
		MaxOpenConnections: config.Int(config.ENV_KEY_DB_MAX_OPEN_CONNECTIONS, 0),
	}, logger)
	if err != nil {
		return nil, err
	}

	repo, err := database.New(gormDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}
	w.closers = append(w.closers, repo.Close)

	site := siteapi.New(
		config.String(config.ENV_KEY_SITE_API_BASE_URL, config.DEFAULT_SITE_API_BASE_URL),
		config.Duration(config.ENV_KEY_SITE_API_TIMEOUT, config.DEFAULT_SITE_API_TIMEOUT),
		siteapi.WithRateLimit(config.Int(config.ENV_KEY_SITE_API_RATE_LIMIT, config.DEFAULT_SITE_API_RATE_LIMIT)),
	)

	var (
		redisAddr     = config.RedisAddr()
		redisPassword = config.String(config.ENV_KEY_REDIS_PASSWORD, "")
	)
	rdb := cache.NewClient(redisAddr, redisPassword)
	w.closers = append(w.closers, rdb.Close)
	c := cache.New(rdb, config.Duration(config.ENV_KEY_SNAPSHOT_TTL, config.DEFAULT_SNAPSHOT_TTL))

	fsp, err := filestorage.FromEnv(ctx)
	if err != nil {
		w.close()
		return nil, err
	}

	var mailer usecase.Mailer
	if host := config.String(config.ENV_KEY_SMTP_HOST, ""); host != "" {
		mp, err := email.NewEmailProvider(
			host,
			config.String(config.ENV_KEY_SMTP_USERNAME, ""),
			config.String(config.ENV_KEY_SMTP_PASSWORD, ""),
			config.String(config.ENV_KEY_SMTP_PORT, "587"),
			logger,
		)
		if err != nil {
			w.close()
			return nil, err
		}
		w.closers = append(w.closers, func() error { mp.Close(); return nil })
		mailer = mp
	}

	// workers never enqueue, so no queue client
	uc := usecase.New(repo, site, c, fsp, mailer, nil, usecase.Options{
		Logger:          logger,
		AutoTagPoll:     config.Duration(config.ENV_KEY_AUTOTAG_POLL, config.DEFAULT_AUTOTAG_POLL),
		BulkConcurrency: config.Int(config.ENV_KEY_BULK_CONCURRENCY, config.DEFAULT_BULK_CONCURRENCY),
		PublicSiteURL:   config.String(config.ENV_KEY_SITE_PUBLIC_URL, ""),
		ReportTo:        splitList(config.String(config.ENV_KEY_REPORT_EMAIL_TO, "")),
		ReportFrom:      config.String(config.ENV_KEY_REPORT_EMAIL_FROM, ""),
	})

	w.asynqServer = asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
		},
		asynq.Config{
			Concurrency: config.Int(config.ENV_KEY_WORKER_CONCURRENCY, config.DEFAULT_WORKER_CONCURRENCY),
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger:   newAsynqLogger(logger),
			LogLevel: asynq.InfoLevel,
		},
	)

	h := handlers.NewHandlers(uc, logger)

	w.mux = asynq.NewServeMux()
	w.mux.HandleFunc(usecase.JOB_TYPE_ASSET_BULK, h.HandleJob)
	w.mux.HandleFunc(usecase.JOB_TYPE_ASSET_IMPORT, h.HandleJob)
	w.mux.HandleFunc(handlers.TASK_TYPE_PALETTE_SWEEP, h.HandlePaletteSweep)

	logger.Info("Worker registered handlers",
		slog.Any("types", []string{
			usecase.JOB_TYPE_ASSET_BULK,
			usecase.JOB_TYPE_ASSET_IMPORT,
			handlers.TASK_TYPE_PALETTE_SWEEP,
		}),
	)

	return w, nil
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
	w.close()
}

func (w *Worker) close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			w.logger.Error("Error closing dependency", slog.String("err", err.Error()))
		}
	}
	w.closers = nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
