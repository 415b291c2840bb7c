// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/fieldservice-be/internal/adapters/db"
	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/pkg/config"
	"github.com/ammerola/fieldservice-be/migrations"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// SetupTestDB creates a PostgreSQL container with the schema migrated
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_fieldservice",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_fieldservice",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		StatementCacheMode: "describe",
		EnableQueryLogging: testing.Verbose(),
	}

	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	err = db.RunMigrationsWithRetry(context.Background(), testMigrationConfig(dbConfig), TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-memory Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_fieldservice",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      15 * time.Minute,
			PoolSize: 10,
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			RequestIDHeader:   "X-Request-ID",
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Pricing: config.PricingConfig{
			DefaultState: "WY",
		},
		Replenishment: config.ReplenishmentConfig{
			Concurrency:  4,
			ReportPrefix: "reports/stocking",
			BatchLockTTL: time.Minute,
			Policy:       domain.DefaultReplenishmentPolicy(),
			Scoring:      domain.DefaultScoringPolicy(),
		},
	}
}

// CreateTestPart creates a test part
func CreateTestPart(overrides ...func(*domain.Part)) *domain.Part {
	part := &domain.Part{
		PartNumber:     "WPW10348269",
		Description:    "Dryer thermal fuse",
		AvgCost:        decimal.NewFromFloat(18.50),
		QuantityOnHand: 4,
		MinStock:       1,
		AutoReplenish:  true,
	}

	for _, override := range overrides {
		override(part)
	}

	return part
}

// CreateTestParts creates count distinct parts
func CreateTestParts(count int) []domain.Part {
	parts := make([]domain.Part, count)
	for i := 0; i < count; i++ {
		parts[i] = *CreateTestPart(func(p *domain.Part) {
			p.PartNumber = fmt.Sprintf("TEST-%04d", i+1)
			p.Description = fmt.Sprintf("Test part %d", i+1)
			p.AvgCost = decimal.NewFromInt(int64(10 + i*15))
		})
	}
	return parts
}

// CreateTestLineItems returns the standard service call used across pricing tests:
// a $85 service fee, $187.50 of labor and a $54.60 part.
func CreateTestLineItems() []domain.LineItem {
	return []domain.LineItem{
		{
			ID:        "fee-1",
			Type:      domain.LineItemServiceFee,
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.NewFromInt(85),
			Subtotal:  decimal.NewFromInt(85),
		},
		{
			ID:        "labor-1",
			Type:      domain.LineItemLabor,
			Quantity:  decimal.NewFromFloat(1.5),
			UnitPrice: decimal.NewFromInt(125),
			Subtotal:  decimal.RequireFromString("187.50"),
		},
		{
			ID:        "part-1",
			Type:      domain.LineItemPart,
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.RequireFromString("54.60"),
			Subtotal:  decimal.RequireFromString("54.60"),
		},
	}
}

// CreateUsageHistory returns n usage transactions for a part, spaced apart and
// ending at now. Every entry is linked to jobID when it is not empty.
func CreateUsageHistory(partNumber string, n int, spacing time.Duration, now time.Time, jobID string) []domain.UsageTransaction {
	txs := make([]domain.UsageTransaction, n)
	for i := 0; i < n; i++ {
		txs[i] = domain.UsageTransaction{
			ID:         uuid.New(),
			PartNumber: partNumber,
			JobID:      jobID,
			Quantity:   1,
			UnitCost:   decimal.NewFromFloat(18.50),
			UsedAt:     now.Add(-time.Duration(n-1-i) * spacing),
		}
	}
	return txs
}

// MigrationConfig points a migrator at the test database
func (tdb *TestDB) MigrationConfig() *db.MigrationConfig {
	return testMigrationConfig(tdb.Config)
}

func testMigrationConfig(cfg *db.Config) *db.MigrationConfig {
	return &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode),
		EmbeddedSource: migrations.FS,
	}
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	tables := []string{
		"part_usage",
		"jobs",
		"part_suppliers",
		"parts",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}
