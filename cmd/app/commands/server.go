package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/compliance-vault/internal/app"
	"github.com/allisson/compliance-vault/internal/config"
)

// RunServer starts the long-running service: the metrics HTTP server, the key
// rotation scheduler, and the recurring backup runs per configured source.
// Blocks until receiving SIGINT/SIGTERM or encountering a fatal error.
func RunServer(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on log level
	gin.SetMode(cfg.GetGinMode())

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Initializing the keys use case loads, repairs, and schedules rotation
	// for every configured purpose.
	if _, err := container.KeysUseCase(ctx); err != nil {
		return fmt.Errorf("failed to initialize keys use case: %w", err)
	}

	// Schedule recurring backups for every configured source
	backupUseCase, err := container.BackupUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize backup use case: %w", err)
	}
	backupUseCase.ScheduleBackups(func(dataType string) (string, error) {
		source, ok := cfg.BackupSources[dataType]
		if !ok {
			return "", fmt.Errorf("no backup source configured for data type %q", dataType)
		}
		return source, nil
	})

	// Get Metrics server from container
	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start the metrics server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
	case err := <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", err))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if shutErr := metricsServer.Shutdown(shutdownCtx); shutErr != nil {
			return errors.Join(err, fmt.Errorf("metrics server shutdown: %w", shutErr))
		}
		return err
	}

	return nil
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}
