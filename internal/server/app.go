package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/framecraft/framecraft/internal/cache"
	"github.com/framecraft/framecraft/internal/config"
	"github.com/framecraft/framecraft/internal/database"
	"github.com/framecraft/framecraft/internal/filestorage"
	"github.com/framecraft/framecraft/internal/queue"
	"github.com/framecraft/framecraft/internal/siteapi"
	"github.com/framecraft/framecraft/internal/telemetry"
	"github.com/framecraft/framecraft/internal/usecase"
)

// App is the API process: the http server plus everything it must release
// on shutdown.
type App struct {
	httpServer *http.Server
	logger     *slog.Logger
	closers    []func(context.Context) error
}

func NewApp() (*App, error) {
	ctx := context.Background()
	logger := telemetry.NewLogger(os.Stdout, config.String(config.ENV_KEY_LOG_LEVEL, "INFO"))
	slog.SetDefault(logger)

	app := &App{logger: logger}

	serviceName := config.String(config.ENV_KEY_OTEL_SERVICE_NAME, config.DEFAULT_SERVICE_NAME)
	shutdownTelemetry, err := telemetry.Setup(ctx, serviceName, config.String(config.ENV_KEY_OTEL_ENDPOINT, ""))
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, shutdownTelemetry)

	gormDB, err := database.Open(database.ConnConfig{
		Host:               config.String(config.ENV_KEY_DB_HOST, "localhost"),
		Port:               config.String(config.ENV_KEY_DB_PORT, "5432"),
		User:               config.String(config.ENV_KEY_DB_USER, ""),
		Password:           config.String(config.ENV_KEY_DB_PASSWORD, ""),
		Database:           config.String(config.ENV_KEY_DB_DATABASE, ""),
		MaxOpenConnections: config.Int(config.ENV_KEY_DB_MAX_OPEN_CONNECTIONS, 0),
	}, logger)
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	repo, err := database.New(gormDB)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

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
	app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })
	c := cache.New(rdb, config.Duration(config.ENV_KEY_SNAPSHOT_TTL, config.DEFAULT_SNAPSHOT_TTL))

	qc := queue.NewClient(redisAddr, redisPassword, logger)
	app.closers = append(app.closers, func(context.Context) error { return qc.Close() })

	fsp, err := filestorage.FromEnv(ctx)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	// reports are mailed by the worker
	uc := usecase.New(repo, site, c, fsp, nil, qc, usecase.Options{
		Logger:          logger,
		AutoTagPoll:     config.Duration(config.ENV_KEY_AUTOTAG_POLL, config.DEFAULT_AUTOTAG_POLL),
		BulkConcurrency: config.Int(config.ENV_KEY_BULK_CONCURRENCY, config.DEFAULT_BULK_CONCURRENCY),
		PublicSiteURL:   config.String(config.ENV_KEY_SITE_PUBLIC_URL, ""),
	})
	app.closers = append(app.closers, func(context.Context) error { return uc.Close() })

	s := NewServer(uc, Options{
		Logger:      logger,
		AdminUser:   config.String(config.ENV_KEY_ADMIN_BASIC_AUTH_USER, ""),
		AdminPass:   config.String(config.ENV_KEY_ADMIN_BASIC_AUTH_PASS, ""),
		ServiceName: serviceName,
		OriginPatterns: originPatterns(
			config.String(config.ENV_KEY_SITE_PUBLIC_URL, ""),
		),
	})

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Int(config.ENV_KEY_PORT, config.DEFAULT_PORT)),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
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
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases dependencies in reverse
// order of creation.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.httpServer.Shutdown(ctx)
	return errors.Join(err, a.close(ctx))
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

// originPatterns allows websocket upgrades from the public site host in
// addition to same-origin requests.
func originPatterns(publicURL string) []string {
	host := strings.TrimPrefix(strings.TrimPrefix(publicURL, "https://"), "http://")
	host = strings.TrimRight(host, "/")
	if host == "" {
		return nil
	}
	return []string{host}
}
