package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"notes-api/internal/config"
	apphttp "notes-api/internal/http"
	"notes-api/internal/janitor"
	"notes-api/internal/logging"
	"notes-api/internal/metrics"
	"notes-api/internal/repository/sqlite"
	"notes-api/internal/service"
	"notes-api/internal/storage"
	"notes-api/internal/telemetry"
)

const serviceName = "notes-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logrus.Fatalf("setup logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: serviceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	}, logger)

	db, err := sqlite.OpenAndMigrate(ctx, cfg.Database.Path, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New()
	}

	userService := service.NewUserService(sqlite.NewUserRepository(db))
	sessionService := service.NewSessionService(
		sqlite.NewSessionRepository(db),
		cfg.SessionTTL(),
		logger.WithField("component", "sessions"),
		service.WithSessionMetrics(appMetrics),
	)
	noteService := service.NewNoteService(sqlite.NewNoteRepository(db))

	sweeper := janitor.New(janitor.Config{
		Interval: cfg.Session.SweepInterval,
		Logger:   logger.WithField("component", "janitor"),
	}, sessionService)
	sweeper.Start(ctx)

	deps := apphttp.Deps{
		Users:          userService,
		Sessions:       sessionService,
		Notes:          noteService,
		Metrics:        appMetrics,
		Health:         db.PingContext,
		Logger:         logger,
		RequestTimeout: cfg.Server.RequestTimeout,
	}

	if cfg.ExportsEnabled() {
		storageSvc, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
		deps.Exports = service.NewExportService(noteService, storageSvc, service.ExportConfig{
			Bucket:    cfg.Storage.Bucket,
			KeyPrefix: cfg.Storage.KeyPrefix,
		})
	} else {
		logger.Info("storage bucket not configured; note exports disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := apphttp.NewHandler(deps).Router()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	sweeper.Shutdown()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warnf("telemetry shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	svc, err := storage.NewS3ServiceFromOptions(ctx, storage.S3Options{
		Region:   cfg.Storage.Region,
		Endpoint: cfg.Storage.Endpoint,
		Profile:  cfg.AWS.Profile,
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return svc, nil
}
