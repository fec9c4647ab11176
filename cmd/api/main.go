package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/framecraft/framecraft/internal/server"
)

func main() {
	app, err := server.NewApp()
	if err != nil {
		log.Fatal(err)
	}
	logger := app.Logger()

	// Server startup
	go func() {
		logger.Info("API server starting", slog.String("addr", app.Addr()))
		if err := app.ListenAndServe(); err != nil {
			logger.Error("Server error", slog.String("err", err.Error()))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger.Info("API server exited properly")
}
