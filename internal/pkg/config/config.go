// internal/pkg/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
)

// Config holds all application configuration
type Config struct {
	// Application
	App AppConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Asynq
	Asynq AsynqConfig

	// AWS
	AWS AWSConfig

	// Security
	Security SecurityConfig

	// Server
	Server ServerConfig

	// Pricing
	Pricing PricingConfig

	// Replenishment batch jobs and the policies they run
	Replenishment ReplenishmentConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string `required:"true"`
	User               string
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string
	EnableQueryLogging bool
	MigrationPath      string // empty uses the embedded migrations
	SecretName         string // AWS Secrets Manager secret holding DB_PASSWORD
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host            string
	Port            string
	Password        string
	DB              int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	IdleTimeout     time.Duration
	TTL             time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	Concurrency          int
	Queues               map[string]int // queue name -> priority
	StrictPriority       bool
	RetryMax             int
	ShutdownTimeout      time.Duration
	HealthCheckInterval  time.Duration
	DelayedTaskCheckTime time.Duration
	MetricsAddr          string // worker /metrics listener, empty disables
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	TrustedProxies    []string
	SecureHeaders     bool
	RequestIDHeader   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host              string
	Port              string `required:"true"`
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GracefulTimeout   time.Duration
	EnableMetrics     bool
	EnableHealthCheck bool
	TLSEnabled        bool
	TLSCertFile       string
	TLSKeyFile        string
	RequestTimeout    time.Duration
	UploadDir         string // catalog workbooks wait here for the worker
	MaxUploadMB       int
	ReportLinkTTL     time.Duration
}

// PricingConfig holds tax and pricing configuration
type PricingConfig struct {
	TaxTableFile string // YAML jurisdiction table; empty uses the Wyoming resolver
	DefaultState string
}

// ReplenishmentConfig holds batch job settings and the recommender policies
type ReplenishmentConfig struct {
	Concurrency       int
	RateLimit         float64 // parts per second, 0 disables
	RateBurst         int
	MinStockCron      string
	StockingScoreCron string
	ReportCron        string
	ReportPrefix      string
	ReportRetention   int // number of reports kept under ReportPrefix
	BatchLockTTL      time.Duration
	PolicyFile        string
	Policy            domain.ReplenishmentPolicy
	Scoring           domain.ScoringPolicy
}

// Load loads configuration from environment variables
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Load .env file in development
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	// Initialize viper
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetTypeByDefaultValue(true)

	// Set defaults
	setDefaults()

	maxConns := getIntEnv("DB_MAX_CONNECTIONS", 25)

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "fieldservice-api"),
			Environment: env,
			Version:     getEnv("APP_VERSION", "dev"),
			LogLevel:    getEnv("LOG_LEVEL", "debug"),
			LogFormat:   getEnv("LOG_FORMAT", "json"),
			Debug:       getBoolEnv("APP_DEBUG", env == "development"),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", "fieldservice"),
			Password:           getEnv("DB_PASSWORD", "fieldservice_dev"),
			Name:               getEnv("DB_NAME", "fieldservice"),
			SSLMode:            getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(maxConns),
			MinConnections:     int32(getIntEnv("DB_MIN_CONNECTIONS", 5)),
			MaxConnLifetime:    getDurationEnv("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    getDurationEnv("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  getDurationEnv("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
			StatementCacheMode: getEnv("DB_STATEMENT_CACHE_MODE", "describe"),
			EnableQueryLogging: getBoolEnv("DB_QUERY_LOGGING", env == "development"),
			MigrationPath:      getEnv("DB_MIGRATION_PATH", ""),
			SecretName:         getEnv("DB_SECRET_NAME", ""),
		},
		Redis: RedisConfig{
			Host:            getEnv("REDIS_HOST", "localhost"),
			Port:            getEnv("REDIS_PORT", "6379"),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getIntEnv("REDIS_DB", 0),
			MaxRetries:      getIntEnv("REDIS_MAX_RETRIES", 3),
			MinRetryBackoff: getDurationEnv("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond),
			MaxRetryBackoff: getDurationEnv("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond),
			DialTimeout:     getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:     getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:    getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:        getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns:    getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			PoolTimeout:     getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:     getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
			TTL:             getDurationEnv("REDIS_TTL", 15*time.Minute),
		},
		Asynq: AsynqConfig{
			RedisAddr:            fmt.Sprintf("%s:%s", getEnv("REDIS_HOST", "localhost"), getEnv("REDIS_PORT", "6379")),
			RedisPassword:        getEnv("REDIS_PASSWORD", ""),
			RedisDB:              getIntEnv("ASYNQ_REDIS_DB", 0),
			Concurrency:          getIntEnv("ASYNQ_CONCURRENCY", 4),
			Queues:               parseQueues(getEnv("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:       getBoolEnv("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:             getIntEnv("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout:      getDurationEnv("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthCheckInterval:  getDurationEnv("ASYNQ_HEALTH_CHECK_INTERVAL", 30*time.Second),
			DelayedTaskCheckTime: getDurationEnv("ASYNQ_DELAYED_TASK_CHECK", 5*time.Second),
			MetricsAddr:          getEnv("WORKER_METRICS_ADDR", ":9091"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", "minioadmin"),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", "minioadmin123"),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "fieldservice-reports"),
			S3Endpoint:      getEnv("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    getBoolEnv("AWS_S3_PATH_STYLE", env == "development"),
		},
		Security: SecurityConfig{
			RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: getDurationEnv("RATE_LIMIT_DURATION", time.Minute),
			AllowedOrigins:    getSliceEnv("ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies:    getSliceEnv("TRUSTED_PROXIES", []string{}),
			SecureHeaders:     getBoolEnv("SECURE_HEADERS", env == "production"),
			RequestIDHeader:   getEnv("REQUEST_ID_HEADER", "X-Request-ID"),
		},
		Server: ServerConfig{
			Host:              getEnv("SERVER_HOST", "0.0.0.0"),
			Port:              getEnv("SERVER_PORT", "8080"),
			ReadTimeout:       getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:       getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:    getIntEnv("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			GracefulTimeout:   getDurationEnv("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
			EnableMetrics:     getBoolEnv("ENABLE_METRICS", true),
			EnableHealthCheck: getBoolEnv("ENABLE_HEALTH_CHECK", true),
			TLSEnabled:        getBoolEnv("TLS_ENABLED", false),
			TLSCertFile:       getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:        getEnv("TLS_KEY_FILE", ""),
			RequestTimeout:    getDurationEnv("SERVER_REQUEST_TIMEOUT", 10*time.Second),
			UploadDir:         getEnv("UPLOAD_DIR", os.TempDir()+"/fieldservice-uploads"),
			MaxUploadMB:       getIntEnv("MAX_UPLOAD_MB", 20),
			ReportLinkTTL:     getDurationEnv("REPORT_LINK_TTL", 15*time.Minute),
		},
		Pricing: PricingConfig{
			TaxTableFile: getEnv("TAX_TABLE_FILE", ""),
			DefaultState: getEnv("DEFAULT_TAX_STATE", "WY"),
		},
		Replenishment: ReplenishmentConfig{
			Concurrency:       getIntEnv("REPLENISHMENT_CONCURRENCY", maxConns),
			RateLimit:         getFloatEnv("REPLENISHMENT_RATE_LIMIT", 0),
			RateBurst:         getIntEnv("REPLENISHMENT_RATE_BURST", 1),
			MinStockCron:      getEnv("REPLENISHMENT_MIN_STOCK_CRON", "0 2 * * *"),
			StockingScoreCron: getEnv("REPLENISHMENT_STOCKING_SCORE_CRON", "30 2 * * *"),
			ReportCron:        getEnv("REPLENISHMENT_REPORT_CRON", "0 6 * * 1"),
			ReportPrefix:      getEnv("REPLENISHMENT_REPORT_PREFIX", "reports/stocking"),
			ReportRetention:   getIntEnv("REPLENISHMENT_REPORT_RETENTION", 12),
			BatchLockTTL:      getDurationEnv("REPLENISHMENT_BATCH_LOCK_TTL", 30*time.Minute),
			PolicyFile:        getEnv("REPLENISHMENT_POLICY_FILE", ""),
			Policy:            domain.DefaultReplenishmentPolicy(),
			Scoring:           domain.DefaultScoringPolicy(),
		},
	}

	if path := cfg.Replenishment.PolicyFile; path != "" {
		if err := LoadPolicies(path, &cfg.Replenishment.Policy, &cfg.Replenishment.Scoring); err != nil {
			return nil, err
		}
		logger.Info("replenishment policy file loaded", slog.String("path", path))
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadPolicies overlays the `replenishment` and `scoring` sections of a YAML
// file onto the given policies. Keys absent from the file keep their values.
func LoadPolicies(path string, policy *domain.ReplenishmentPolicy, scoring *domain.ScoringPolicy) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}
	if v.IsSet("replenishment") {
		if err := v.UnmarshalKey("replenishment", policy); err != nil {
			return fmt.Errorf("failed to decode replenishment policy: %w", err)
		}
	}
	if v.IsSet("scoring") {
		if err := v.UnmarshalKey("scoring", scoring); err != nil {
			return fmt.Errorf("failed to decode scoring policy: %w", err)
		}
	}
	return nil
}

// Validate runs the basic validator and, in production, the production validator
func (c *Config) Validate() error {
	validators := []Validator{&BasicValidator{}, &PolicyValidator{}}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{})
	}
	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// Helper functions

func setDefaults() {
	viper.SetDefault("app.name", "fieldservice-api")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	pairs := strings.Split(queuesStr, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, ":")
		if len(parts) == 2 {
			name := strings.TrimSpace(parts[0])
			priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err == nil {
				queues[name] = priority
			}
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
