// internal/adapters/db/migrations.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// MigrationConfig holds migration configuration
type MigrationConfig struct {
	DatabaseURL string
	// SourcePath is a directory of migration files. When empty, EmbeddedSource is used.
	SourcePath       string
	EmbeddedSource   fs.FS
	EmbeddedDir      string
	TableName        string
	SchemaName       string
	ForceDirty       bool
	StatementTimeout time.Duration
}

// Migrator handles database migrations
type Migrator struct {
	migrate *migrate.Migrate
	config  *MigrationConfig
	logger  *slog.Logger
	db      *sql.DB
}

// NewMigrator creates a new migrator instance
func NewMigrator(config *MigrationConfig, logger *slog.Logger) (*Migrator, error) {
	if config == nil {
		return nil, fmt.Errorf("migration config is required")
	}

	// Set defaults
	if config.TableName == "" {
		config.TableName = "schema_migrations"
	}
	if config.SchemaName == "" {
		config.SchemaName = "public"
	}
	if config.EmbeddedDir == "" {
		config.EmbeddedDir = "."
	}
	if config.StatementTimeout == 0 {
		config.StatementTimeout = time.Minute * 10
	}

	sourceDriver, sourceName, err := openSource(config)
	if err != nil {
		return nil, err
	}

	// Open database connection using pgx stdlib
	db, err := sql.Open("pgx", config.DatabaseURL)
	if err != nil {
		_ = sourceDriver.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = sourceDriver.Close()
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable:  config.TableName,
		SchemaName:       config.SchemaName,
		StatementTimeout: config.StatementTimeout,
	})
	if err != nil {
		_ = sourceDriver.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance(sourceName, sourceDriver, "postgres", driver)
	if err != nil {
		_ = sourceDriver.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return &Migrator{
		migrate: m,
		config:  config,
		logger:  logger.With(slog.String("component", "migrator")),
		db:      db,
	}, nil
}

func openSource(config *MigrationConfig) (source.Driver, string, error) {
	if config.SourcePath != "" {
		d, err := source.Open("file://" + config.SourcePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open migration files at %s: %w", config.SourcePath, err)
		}
		return d, "file", nil
	}

	if config.EmbeddedSource == nil {
		return nil, "", fmt.Errorf("either a source path or an embedded source is required")
	}
	d, err := iofs.New(config.EmbeddedSource, config.EmbeddedDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create embedded source driver: %w", err)
	}
	return d, "iofs", nil
}

// Up runs all available migrations
func (m *Migrator) Up(ctx context.Context) error {
	m.logger.InfoContext(ctx, "running migrations up")

	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if dirty {
		if !m.config.ForceDirty {
			return fmt.Errorf("database is in dirty state at version %d", version)
		}
		m.logger.WarnContext(ctx, "forcing dirty migration",
			slog.Uint64("version", uint64(version)))
		if err := m.migrate.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.InfoContext(ctx, "no migrations to run")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.migrate.Version()
	if err != nil {
		m.logger.WarnContext(ctx, "failed to get new version", slog.String("error", err.Error()))
	} else {
		m.logger.InfoContext(ctx, "migrations completed",
			slog.Uint64("version", uint64(newVersion)))
	}

	return nil
}

// Down rolls back the last migration
func (m *Migrator) Down(ctx context.Context) error {
	m.logger.InfoContext(ctx, "rolling back last migration")

	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", version)
	}

	if err := m.migrate.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, fs.ErrNotExist) {
			m.logger.InfoContext(ctx, "no migrations to rollback")
			return nil
		}
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	m.logger.InfoContext(ctx, "migration rolled back",
		slog.Uint64("from_version", uint64(version)))

	return nil
}

// Force sets the version without running migrations
func (m *Migrator) Force(ctx context.Context, version int) error {
	m.logger.WarnContext(ctx, "forcing migration version",
		slog.Int("version", version))

	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version: %w", err)
	}

	return nil
}

// Version returns current migration version
func (m *Migrator) Version(ctx context.Context) (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}

	return version, dirty, nil
}

// Status returns the applied migration rows
func (m *Migrator) Status(ctx context.Context) (*MigrationStatus, error) {
	version, dirty, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{
		CurrentVersion: version,
		IsDirty:        dirty,
		Applied:        make([]AppliedMigration, 0),
	}

	query := fmt.Sprintf(`
		SELECT version, dirty
		FROM %s.%s
		ORDER BY version ASC
	`, m.config.SchemaName, m.config.TableName)

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var applied AppliedMigration
		if err := rows.Scan(&applied.Version, &applied.Dirty); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		status.Applied = append(status.Applied, applied)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migrations: %w", err)
	}

	return status, nil
}

// Close closes the migrator and releases resources
func (m *Migrator) Close() error {
	if m.migrate != nil {
		sourceErr, dbErr := m.migrate.Close()
		if sourceErr != nil || dbErr != nil {
			return fmt.Errorf("failed to close migrator - source: %v, db: %v", sourceErr, dbErr)
		}
	}

	// the postgres driver owns db; closing twice is harmless
	if m.db != nil {
		_ = m.db.Close()
	}

	return nil
}

// MigrationStatus represents the current status of migrations
type MigrationStatus struct {
	CurrentVersion uint               `json:"current_version"`
	IsDirty        bool               `json:"is_dirty"`
	Applied        []AppliedMigration `json:"applied"`
}

// AppliedMigration represents an applied migration
type AppliedMigration struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// Migration actions accepted by ParseMigrationCommand
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
	MigrateForce  = "force"
)

// MigrationCommand is a single migrator action
type MigrationCommand struct {
	Action  string
	Version int
}

// ParseMigrationCommand parses "up", "down", "status" or "force=<version>"
func ParseMigrationCommand(s string) (MigrationCommand, error) {
	action, arg, hasArg := strings.Cut(strings.TrimSpace(s), "=")
	action = strings.ToLower(action)

	switch action {
	case MigrateUp, MigrateDown, MigrateStatus:
		if hasArg {
			return MigrationCommand{}, fmt.Errorf("%s takes no version", action)
		}
		return MigrationCommand{Action: action}, nil
	case MigrateForce:
		v, err := strconv.Atoi(arg)
		if !hasArg || err != nil || v < 0 {
			return MigrationCommand{}, fmt.Errorf("force needs a version, e.g. force=2")
		}
		return MigrationCommand{Action: action, Version: v}, nil
	default:
		return MigrationCommand{}, fmt.Errorf("unknown migration command %q", s)
	}
}

// Apply runs cmd and reports the resulting status
func (m *Migrator) Apply(ctx context.Context, cmd MigrationCommand) (*MigrationStatus, error) {
	var err error
	switch cmd.Action {
	case MigrateUp:
		err = m.Up(ctx)
	case MigrateDown:
		err = m.Down(ctx)
	case MigrateForce:
		err = m.Force(ctx, cmd.Version)
	case MigrateStatus:
	default:
		return nil, fmt.Errorf("unknown migration command %q", cmd.Action)
	}
	if err != nil {
		return nil, err
	}
	return m.Status(ctx)
}

// RunMigrationsWithRetry runs migrations with retry logic
func RunMigrationsWithRetry(ctx context.Context, config *MigrationConfig, logger *slog.Logger, maxRetries int) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			waitTime := time.Duration(i) * time.Second * 2
			logger.InfoContext(ctx, "retrying migration",
				slog.Int("attempt", i+1),
				slog.Duration("wait", waitTime))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}

		migrator, err := NewMigrator(config, logger)
		if err != nil {
			lastErr = fmt.Errorf("failed to create migrator: %w", err)
			logger.ErrorContext(ctx, "failed to create migrator",
				slog.String("error", err.Error()),
				slog.Int("attempt", i+1))
			continue
		}

		err = migrator.Up(ctx)
		closeErr := migrator.Close()

		if err == nil && closeErr == nil {
			return nil
		}

		if err != nil {
			lastErr = err
			logger.ErrorContext(ctx, "migration failed",
				slog.String("error", err.Error()),
				slog.Int("attempt", i+1))
		}
		if closeErr != nil {
			logger.ErrorContext(ctx, "failed to close migrator",
				slog.String("error", closeErr.Error()))
		}
	}

	return fmt.Errorf("migrations failed after %d attempts: %w", maxRetries, lastErr)
}
