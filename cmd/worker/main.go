// Copyright (c) 2025 [Framecraft]
//
// This software is licensed under the PolyForm Noncommercial License 1.0.0
// See LICENSE file in the project root for full license terms.
//
// https://github.com/framecraft/framecraft

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/framecraft/framecraft/internal/config"
	"github.com/framecraft/framecraft/internal/queue"
	"github.com/framecraft/framecraft/internal/telemetry"
)

func main() {
	var mode = flag.String("mode", "worker", "Mode to run: 'worker', 'scheduler'")
	flag.Parse()

	logger := telemetry.NewLogger(os.Stdout, config.String(config.ENV_KEY_LOG_LEVEL, "INFO"))
	slog.SetDefault(logger)

	serviceName := config.String(config.ENV_KEY_OTEL_SERVICE_NAME, config.DEFAULT_SERVICE_NAME) + "-" + *mode
	shutdown, err := telemetry.Setup(context.Background(), serviceName, config.String(config.ENV_KEY_OTEL_ENDPOINT, ""))
	if err != nil {
		logger.Error("Failed to set up telemetry", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("err", err.Error()))
		}
	}()

	switch *mode {
	case "worker":
		runWorker(logger)
	case "scheduler":
		runScheduler(logger)
	default:
		logger.Error("Invalid mode. Use 'worker' or 'scheduler'", slog.String("mode", *mode))
		os.Exit(1)
	}
}

func runWorker(logger *slog.Logger) {
	logger.Info("Starting in WORKER mode...")

	worker, err := queue.NewWorker(logger)
	if err != nil {
		logger.Error("Failed to create worker", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// Start worker in goroutine
	go func() {
		logger.Info("Starting Asynq worker...")
		if err := worker.Start(); err != nil {
			logger.Error("Worker error", slog.String("err", err.Error()))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	worker.Stop()
	logger.Info("Worker exited properly")
}

func runScheduler(logger *slog.Logger) {
	logger.Info("Starting in SCHEDULER mode...")

	scheduler, err := queue.NewScheduler(logger)
	if err != nil {
		logger.Error("Failed to create scheduler", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// Start scheduler in goroutine
	go func() {
		logger.Info("Starting Asynq scheduler...")
		if err := scheduler.Start(); err != nil {
			logger.Error("Scheduler error", slog.String("err", err.Error()))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	scheduler.Stop()
	logger.Info("Scheduler exited properly")
}
