// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/fieldservice-be/internal/adapters/db"
	redis_a "github.com/ammerola/fieldservice-be/internal/adapters/redis_adapter"
	"github.com/ammerola/fieldservice-be/internal/adapters/storage"
	"github.com/ammerola/fieldservice-be/internal/core/services"
	"github.com/ammerola/fieldservice-be/internal/pkg/config"
	"github.com/ammerola/fieldservice-be/internal/pkg/logger"
	"github.com/ammerola/fieldservice-be/internal/pkg/metrics"
	"github.com/ammerola/fieldservice-be/internal/report"
	"github.com/ammerola/fieldservice-be/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Database.SecretName != "" {
		sm, err := config.NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.Database.SecretName, slogger)
		if err == nil {
			err = config.ResolveDatabasePassword(ctx, cfg, sm)
		}
		if err != nil {
			slogger.Error("failed to resolve secrets", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	database, err := initDatabase(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
	})
	defer redisClient.Close()

	m := metrics.New(metrics.DefaultConfig("worker"))
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)
	invalidator := redis_a.NewInvalidator(cache, slogger)

	partRepo := db.NewPartRepository(database, slogger)
	replenishmentService := services.NewReplenishmentService(
		partRepo,
		cfg.Replenishment.Policy,
		cfg.Replenishment.Scoring,
		slogger,
		services.WithConcurrency(cfg.Replenishment.Concurrency),
		services.WithRateLimit(cfg.Replenishment.RateLimit, cfg.Replenishment.RateBurst),
		services.WithMetrics(m),
	)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:              cfg.Asynq.Concurrency,
		Queues:                   cfg.Asynq.Queues,
		StrictPriority:           cfg.Asynq.StrictPriority,
		RetryDelayFunc:           workers.RetryDelay,
		ShutdownTimeout:          cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc:          healthCheck(slogger),
		HealthCheckInterval:      cfg.Asynq.HealthCheckInterval,
		DelayedTaskCheckInterval: cfg.Asynq.DelayedTaskCheckTime,
		Logger:                   workers.NewAsynqLogger(slogger),
	})

	mux := asynq.NewServeMux()
	mux.Use(workers.TaskMiddleware(slogger, m))

	replenishmentProcessor := workers.NewReplenishmentProcessor(
		replenishmentService, cache, invalidator, cfg.Replenishment.BatchLockTTL, slogger)
	mux.HandleFunc(workers.TypeMinStockUpdate, replenishmentProcessor.ProcessMinStock)
	mux.HandleFunc(workers.TypeStockingScoreUpdate, replenishmentProcessor.ProcessStockingScore)

	catalogProcessor := workers.NewCatalogProcessor(partRepo, invalidator, cfg.Server.UploadDir, slogger)
	mux.HandleFunc(workers.TypeCatalogImport, catalogProcessor.ProcessCatalogImport)

	if cfg.AWS.S3Bucket != "" {
		objects, err := storage.NewS3Storage(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.S3Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		}, slogger)
		if err != nil {
			slogger.Error("failed to initialize report storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
		publisher := report.NewPublisher(replenishmentService, objects,
			cfg.Replenishment.ReportPrefix, cfg.Replenishment.ReportRetention, slogger)
		mux.HandleFunc(workers.TypeStockingReport, workers.NewReportProcessor(publisher, slogger).ProcessStockingReport)
	} else {
		slogger.Warn("no S3 bucket configured, stocking reports disabled")
		cfg.Replenishment.ReportCron = ""
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger:   workers.NewAsynqLogger(slogger),
		Location: time.UTC,
	})
	entries, err := workers.RegisterPeriodicTasks(scheduler, cfg.Replenishment, slogger)
	if err != nil {
		slogger.Error("failed to register periodic tasks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	if err := scheduler.Start(); err != nil {
		slogger.Error("failed to start scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.Server.EnableMetrics && cfg.Asynq.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.Asynq.MetricsAddr,
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slogger.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues),
		slog.Int("periodic_tasks", len(entries)))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	slogger.Info("worker shutdown complete")
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	// batch fan-out is bounded by the replenishment concurrency, keep a connection spare
	maxConns := int32(max(cfg.Replenishment.Concurrency, 1) + 1)

	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     maxConns,
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	return db.NewDatabase(ctx, dbConfig, logger)
}

func healthCheck(logger *slog.Logger) func(error) {
	return func(err error) {
		if err != nil {
			logger.Error("worker health check failed", slog.String("error", err.Error()))
		}
	}
}
