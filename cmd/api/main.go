// cmd/api/main.go
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
	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/services"
	"github.com/ammerola/fieldservice-be/internal/handlers"
	"github.com/ammerola/fieldservice-be/internal/handlers/middleware"
	"github.com/ammerola/fieldservice-be/internal/pkg/config"
	"github.com/ammerola/fieldservice-be/internal/pkg/logger"
	"github.com/ammerola/fieldservice-be/internal/pkg/metrics"
	"github.com/ammerola/fieldservice-be/internal/report"
	"github.com/ammerola/fieldservice-be/migrations"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting field service pricing api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := resolveSecrets(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to resolve secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	if !cfg.IsProduction() {
		if err := runMigrations(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		}
	}

	server := setupHTTPServer(ctx, cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database             *db.Database
	redisClient          *redis.Client
	asynqClient          *asynq.Client
	asynqInspector       *asynq.Inspector
	metrics              *metrics.Metrics
	pricingHandler       *handlers.PricingHandler
	partsHandler         *handlers.PartsHandler
	replenishmentHandler *handlers.ReplenishmentHandler
	catalogHandler       *handlers.CatalogHandler
	healthHandler        *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
}

// resolveSecrets pulls the database password from Secrets Manager when a
// secret name is configured
func resolveSecrets(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Database.SecretName == "" {
		return nil
	}

	sm, err := config.NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.Database.SecretName, logger)
	if err != nil {
		return err
	}
	return config.ResolveDatabasePassword(ctx, cfg, sm)
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{
		metrics: metrics.New(metrics.DefaultConfig("api")),
	}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
		ConnMaxIdleTime: cfg.Redis.IdleTimeout,
	})
	deps.redisClient = redisClient

	// analytics fall back to postgres while redis is away
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, caching degraded", slog.String("error", err.Error()))
	}

	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)
	invalidator := redis_a.NewInvalidator(cache, logger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	resolver, err := taxResolver(cfg, logger)
	if err != nil {
		return nil, err
	}

	partRepo := db.NewPartRepository(database, logger)
	pricingService := services.NewPricingService(resolver, deps.metrics, logger,
		services.WithDefaultState(cfg.Pricing.DefaultState))
	replenishmentService := services.NewReplenishmentService(
		partRepo,
		cfg.Replenishment.Policy,
		cfg.Replenishment.Scoring,
		logger,
		services.WithMetrics(deps.metrics),
	)

	deps.pricingHandler = handlers.NewPricingHandler(pricingService, logger)
	deps.partsHandler = handlers.NewPartsHandler(replenishmentService, partRepo, cache, invalidator, cfg.Redis.TTL, logger)
	deps.catalogHandler = handlers.NewCatalogHandler(
		deps.asynqClient,
		deps.asynqInspector,
		int64(cfg.Server.MaxUploadMB)*1024*1024,
		cfg.Server.UploadDir,
		logger,
	)
	deps.healthHandler = handlers.NewHealthHandler(
		database,
		cache,
		deps.asynqInspector,
		cfg.App.Version,
		cfg.App.Environment,
		logger,
	)

	// report links need S3; without a bucket the endpoint reports nothing published
	var reports handlers.ReportLocator = noReports{}
	var objects *storage.S3Storage
	if cfg.AWS.S3Bucket != "" {
		objects, err = storage.NewS3Storage(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.S3Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize report storage: %w", err)
		}
		reports = report.NewPublisher(replenishmentService, objects,
			cfg.Replenishment.ReportPrefix, cfg.Replenishment.ReportRetention, logger)
	}
	deps.replenishmentHandler = handlers.NewReplenishmentHandler(
		deps.asynqClient, reports, objects, cfg.Server.ReportLinkTTL, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

type noReports struct{}

func (noReports) Latest(context.Context) (string, error) { return "", nil }

func taxResolver(cfg *config.Config, logger *slog.Logger) (domain.TaxResolver, error) {
	if cfg.Pricing.TaxTableFile == "" {
		return domain.WyomingResolver{}, nil
	}

	table, err := domain.LoadTaxTable(cfg.Pricing.TaxTableFile)
	if err != nil {
		return nil, err
	}
	logger.Info("tax table loaded",
		slog.String("path", cfg.Pricing.TaxTableFile),
		slog.Int("rules", len(table.Rules)))
	return domain.NewTableResolver(table), nil
}

func setupHTTPServer(ctx context.Context, cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg)

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
	}

	if cfg.Security.RateLimitRequests > 0 {
		limiter := middleware.NewRateLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)
		go limiter.Cleanup(ctx, 10*time.Minute)
		mws = append(mws, limiter.Middleware)
	}

	if len(cfg.Security.AllowedOrigins) > 0 {
		mws = append(mws, middleware.CORS(cfg.Security.AllowedOrigins))
	}

	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}

	if cfg.Server.RequestTimeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.Server.RequestTimeout))
	}

	// innermost so the route pattern set by the mux is visible
	mws = append(mws, middleware.Metrics(deps.metrics))

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(mux, mws...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"

	if cfg.Server.EnableHealthCheck {
		mux.HandleFunc("GET /health", deps.healthHandler.Health)
		mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)
	}

	// Pricing and tax
	mux.HandleFunc("POST "+apiV1+"/pricing/calculate", deps.pricingHandler.Calculate)
	mux.HandleFunc("POST "+apiV1+"/pricing/callback", deps.pricingHandler.Callback)
	mux.HandleFunc("GET "+apiV1+"/tax/rate", deps.pricingHandler.TaxRate)
	mux.HandleFunc("GET "+apiV1+"/appliances/tier", deps.pricingHandler.ApplianceTier)

	// Parts and replenishment analytics
	mux.HandleFunc("GET "+apiV1+"/parts", deps.partsHandler.ListParts)
	mux.HandleFunc("GET "+apiV1+"/parts/{partNumber}/min-stock", deps.partsHandler.MinStock)
	mux.HandleFunc("GET "+apiV1+"/parts/{partNumber}/stocking-score", deps.partsHandler.StockingScore)
	mux.HandleFunc("POST "+apiV1+"/jobs", deps.partsHandler.CompleteJob)
	mux.HandleFunc("GET "+apiV1+"/replenishment/snapshot", deps.partsHandler.Snapshot)
	mux.HandleFunc("POST "+apiV1+"/replenishment/run", deps.replenishmentHandler.Run)
	mux.HandleFunc("GET "+apiV1+"/reports/stocking/latest", deps.replenishmentHandler.LatestReport)

	// Catalog import
	mux.HandleFunc("POST "+apiV1+"/catalog/import", deps.catalogHandler.Import)
	mux.HandleFunc("GET "+apiV1+"/catalog/import/{jobId}", deps.catalogHandler.ImportStatus)

	if cfg.Server.EnableMetrics {
		mux.Handle("GET /metrics", deps.metrics.Handler())
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL:    cfg.GetDatabaseURL(),
		SourcePath:     cfg.Database.MigrationPath,
		EmbeddedSource: migrations.FS,
		TableName:      "schema_migrations",
		SchemaName:     "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, logger, 3)
}
