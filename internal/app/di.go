// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"gocloud.dev/blob"

	"github.com/allisson/compliance-vault/internal/alerting"
	backupRepository "github.com/allisson/compliance-vault/internal/backup/repository"
	backupUsecase "github.com/allisson/compliance-vault/internal/backup/usecase"
	"github.com/allisson/compliance-vault/internal/config"
	"github.com/allisson/compliance-vault/internal/http"
	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
	keysRepository "github.com/allisson/compliance-vault/internal/keys/repository"
	keysService "github.com/allisson/compliance-vault/internal/keys/service"
	keysUsecase "github.com/allisson/compliance-vault/internal/keys/usecase"
	ledgerRepository "github.com/allisson/compliance-vault/internal/ledger/repository"
	ledgerUsecase "github.com/allisson/compliance-vault/internal/ledger/usecase"
	"github.com/allisson/compliance-vault/internal/metrics"
	"github.com/allisson/compliance-vault/internal/report"
	"github.com/allisson/compliance-vault/internal/scheduler"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	alertSink       alerting.Sink
	sched           *scheduler.TimerScheduler
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	kmsKeeper       keysDomain.Keeper
	archiveBucket   *blob.Bucket

	// Use Cases
	ledgerUseCase ledgerUsecase.UseCase
	keysUseCase   keysUsecase.UseCase
	backupUseCase backupUsecase.UseCase
	reporter      *report.Reporter

	// Lifecycle handles needed for shutdown
	keysLifecycle   *keysUsecase.LifecycleUseCase
	backupLifecycle *backupUsecase.BackupUseCase

	// Servers
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	alertSinkInit       sync.Once
	schedulerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	kmsKeeperInit       sync.Once
	archiveBucketInit   sync.Once
	ledgerUseCaseInit   sync.Once
	keysUseCaseInit     sync.Once
	backupUseCaseInit   sync.Once
	reporterInit        sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// AlertSink returns the alerting sink. With metrics enabled, raised alerts
// also increment a counter.
func (c *Container) AlertSink() alerting.Sink {
	c.alertSinkInit.Do(func() {
		var opts []alerting.LogSinkOption
		if provider, err := c.MetricsProvider(); err == nil && provider != nil {
			meter := provider.MeterProvider().Meter(c.config.MetricsNamespace)
			counter, err := meter.Int64Counter(
				fmt.Sprintf("%s_alerts_total", c.config.MetricsNamespace),
				metric.WithDescription("Total number of raised alerts"),
				metric.WithUnit("{alert}"),
			)
			if err == nil {
				opts = append(opts, alerting.WithAlertCounter(counter))
			}
		}

		c.alertSink = alerting.NewLogSink(
			c.Logger(),
			c.config.AlertRatePerSec,
			c.config.AlertBurst,
			opts...,
		)
	})
	return c.alertSink
}

// Scheduler returns the timer scheduler.
func (c *Container) Scheduler() *scheduler.TimerScheduler {
	c.schedulerInit.Do(func() {
		c.sched = scheduler.NewTimerScheduler(c.Logger())
	})
	return c.sched
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
// It falls back to a no-op recorder when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		var provider *metrics.Provider
		provider, err = c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		c.businessMetrics, err = metrics.NewBusinessMetrics(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
		)
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// KMSKeeper returns the keeper wrapping key backups, or nil when no keeper
// URI is configured.
func (c *Container) KMSKeeper(ctx context.Context) (keysDomain.Keeper, error) {
	var err error
	c.kmsKeeperInit.Do(func() {
		if c.config.KeysKeeperURI == "" {
			return
		}
		c.kmsKeeper, err = keysService.NewKMSService().OpenKeeper(ctx, c.config.KeysKeeperURI)
		if err != nil {
			c.initErrors["kmsKeeper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kmsKeeper"]; exists {
		return nil, storedErr
	}
	return c.kmsKeeper, nil
}

// ArchiveBucket returns the blob bucket receiving archived ledger segments,
// or nil when no archive URL is configured.
func (c *Container) ArchiveBucket(ctx context.Context) (*blob.Bucket, error) {
	var err error
	c.archiveBucketInit.Do(func() {
		if c.config.LedgerArchiveURL == "" {
			return
		}
		c.archiveBucket, err = ledgerRepository.OpenArchiveBucket(ctx, c.config.LedgerArchiveURL)
		if err != nil {
			c.initErrors["archiveBucket"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["archiveBucket"]; exists {
		return nil, storedErr
	}
	return c.archiveBucket, nil
}

// LedgerUseCase returns the audit ledger use case.
func (c *Container) LedgerUseCase(ctx context.Context) (ledgerUsecase.UseCase, error) {
	var err error
	c.ledgerUseCaseInit.Do(func() {
		c.ledgerUseCase, err = c.initLedgerUseCase(ctx)
		if err != nil {
			c.initErrors["ledgerUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ledgerUseCase"]; exists {
		return nil, storedErr
	}
	return c.ledgerUseCase, nil
}

// KeysUseCase returns the key lifecycle use case, initialized and with
// rotation scheduled.
func (c *Container) KeysUseCase(ctx context.Context) (keysUsecase.UseCase, error) {
	var err error
	c.keysUseCaseInit.Do(func() {
		c.keysUseCase, err = c.initKeysUseCase(ctx)
		if err != nil {
			c.initErrors["keysUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keysUseCase"]; exists {
		return nil, storedErr
	}
	return c.keysUseCase, nil
}

// BackupUseCase returns the backup pipeline use case.
func (c *Container) BackupUseCase(ctx context.Context) (backupUsecase.UseCase, error) {
	var err error
	c.backupUseCaseInit.Do(func() {
		c.backupUseCase, err = c.initBackupUseCase(ctx)
		if err != nil {
			c.initErrors["backupUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["backupUseCase"]; exists {
		return nil, storedErr
	}
	return c.backupUseCase, nil
}

// Reporter returns the compliance reporter.
func (c *Container) Reporter(ctx context.Context) (*report.Reporter, error) {
	var err error
	c.reporterInit.Do(func() {
		c.reporter, err = c.initReporter(ctx)
		if err != nil {
			c.initErrors["reporter"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["reporter"]; exists {
		return nil, storedErr
	}
	return c.reporter, nil
}

// MetricsServer returns the metrics HTTP server instance.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		var provider *metrics.Provider
		provider, err = c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.MetricsHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.backupLifecycle != nil {
		c.backupLifecycle.Cleanup()
	}
	if c.keysLifecycle != nil {
		c.keysLifecycle.Cleanup()
	}
	if c.sched != nil {
		c.sched.Shutdown()
	}

	if c.archiveBucket != nil {
		if err := c.archiveBucket.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("archive bucket close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initLedgerUseCase assembles the segment store and the ledger use case.
func (c *Container) initLedgerUseCase(ctx context.Context) (ledgerUsecase.UseCase, error) {
	bucket, err := c.ArchiveBucket(ctx)
	if err != nil {
		return nil, err
	}

	store, err := ledgerRepository.NewSegmentStore(
		c.config.LedgerDir,
		c.config.LedgerSegmentPrefix,
		c.config.LedgerSegmentMaxBytes,
		bucket,
	)
	if err != nil {
		return nil, err
	}

	useCase := ledgerUsecase.NewLedgerUseCase(store, nil, c.AlertSink(), c.Logger())

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return ledgerUsecase.NewUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initKeysUseCase assembles the key store and lifecycle, initializes it, and
// schedules rotation.
func (c *Container) initKeysUseCase(ctx context.Context) (keysUsecase.UseCase, error) {
	keeper, err := c.KMSKeeper(ctx)
	if err != nil {
		return nil, err
	}

	store, err := keysRepository.NewFileKeyStore(c.config.KeysDir, keeper)
	if err != nil {
		return nil, err
	}

	lifecycle := keysUsecase.NewLifecycleUseCase(
		store,
		keysService.NewKeyGenerator(),
		nil,
		c.Scheduler(),
		c.AlertSink(),
		c.Logger(),
	)
	if err := lifecycle.Initialize(ctx); err != nil {
		return nil, err
	}
	c.keysLifecycle = lifecycle

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return keysUsecase.NewUseCaseWithMetrics(lifecycle, businessMetrics), nil
}

// initBackupUseCase assembles the backup pipeline on top of the key
// lifecycle and the audit ledger.
func (c *Container) initBackupUseCase(ctx context.Context) (backupUsecase.UseCase, error) {
	keys, err := c.KeysUseCase(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := c.LedgerUseCase(ctx)
	if err != nil {
		return nil, err
	}

	store, err := backupRepository.NewMetadataStore(c.config.BackupRoot)
	if err != nil {
		return nil, err
	}

	pipeline, err := backupUsecase.NewBackupUseCase(
		store,
		nil,
		keys,
		ledger,
		c.Scheduler(),
		c.AlertSink(),
		c.Logger(),
		c.config.BackupStagingDir,
	)
	if err != nil {
		return nil, err
	}
	c.backupLifecycle = pipeline

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return backupUsecase.NewUseCaseWithMetrics(pipeline, businessMetrics), nil
}

// initReporter assembles the compliance reporter over the three subsystems.
func (c *Container) initReporter(ctx context.Context) (*report.Reporter, error) {
	ledger, err := c.LedgerUseCase(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := c.KeysUseCase(ctx)
	if err != nil {
		return nil, err
	}
	backups, err := c.BackupUseCase(ctx)
	if err != nil {
		return nil, err
	}

	return report.NewReporter(
		ledger,
		backups,
		keys,
		c.config.BackupVerifyWindow,
		c.Logger(),
	), nil
}
