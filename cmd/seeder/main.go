package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/fieldservice-be/internal/adapters/db"
	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/pkg/config"
	"github.com/ammerola/fieldservice-be/internal/pkg/logger"
	"github.com/ammerola/fieldservice-be/internal/report"
	"github.com/ammerola/fieldservice-be/migrations"
)

// commonParts are the parts generated when no catalog is given
var commonParts = []struct {
	number      string
	description string
	cost        string
	leadDays    int
}{
	{"WPW10348269", "Dryer thermal fuse", "8.40", 2},
	{"279838", "Dryer heating element", "32.15", 3},
	{"WP3392519", "Dryer thermal fuse, 196F", "7.95", 2},
	{"W10130694", "Washer lid switch", "24.60", 3},
	{"WPW10730972", "Washer drain pump", "54.60", 4},
	{"DC97-16350C", "Washer suspension rod kit", "41.20", 5},
	{"WR55X10025", "Refrigerator start relay", "18.75", 3},
	{"DA97-15217D", "Refrigerator ice maker assembly", "96.80", 7},
	{"W10295370A", "Refrigerator water filter", "39.99", 2},
	{"WD21X10224", "Dishwasher circulation pump", "118.40", 6},
	{"W10712395", "Dishwasher upper rack adjuster", "22.10", 4},
	{"WB27K10354", "Oven bake element", "46.30", 3},
	{"316217204", "Range igniter", "38.90", 3},
	{"4681EA2001T", "Washer drain pump, LG", "47.25", 5},
	{"242252702", "Refrigerator defrost heater", "29.45", 4},
	{"SUBZ-7030330", "Sub-Zero evaporator fan motor", "212.00", 10},
}

var (
	brands    = []string{"Whirlpool", "GE", "Samsung", "LG", "Maytag", "Frigidaire", "KitchenAid", "Bosch", "Sub-Zero", "Wolf"}
	suppliers = []string{"Marcone", "Reliable Parts", "Encompass", "AppliancePartsPros"}
	reasons   = []domain.CallbackReason{
		domain.CallbackSameIssueOurFault,
		domain.CallbackNewIssue,
		domain.CallbackCustomerError,
		domain.CallbackWearAndTear,
	}
)

// seedWriter is the write side of the part repository
type seedWriter interface {
	UpsertPart(ctx context.Context, part *domain.Part) error
	UpsertSupplier(ctx context.Context, supplier domain.PartSupplier) error
	CompleteJob(ctx context.Context, job domain.Job, txs []domain.UsageTransaction) error
}

// dryRunWriter prints what would be written
type dryRunWriter struct{}

func (dryRunWriter) UpsertPart(_ context.Context, p *domain.Part) error {
	fmt.Printf("PART: %s %q cost=%s\n", p.PartNumber, p.Description, p.AvgCost.StringFixed(2))
	return nil
}

func (dryRunWriter) UpsertSupplier(_ context.Context, s domain.PartSupplier) error {
	fmt.Printf("SUPPLIER: %s via %s, %d days\n", s.PartNumber, s.SupplierName, s.LeadTimeDays)
	return nil
}

func (dryRunWriter) CompleteJob(context.Context, domain.Job, []domain.UsageTransaction) error {
	return nil
}

// seederState remembers which catalogs were already imported
type seederState struct {
	ImportedCatalogs []string  `json:"imported_catalogs"`
	LastUpdate       time.Time `json:"last_update"`
}

type summary struct {
	parts     int
	suppliers int
	jobs      int
	usage     int
	rowErrors int
}

func main() {
	var (
		catalogFile = flag.String("catalog", "", "Parts catalog workbook (.xlsx) to import")
		generate    = flag.Bool("generate", false, "Generate a demo catalog when no workbook is given")
		jobs        = flag.Int("jobs", 400, "Number of completed jobs to generate")
		months      = flag.Int("months", 12, "Months of usage history to generate")
		callbackPct = flag.Float64("callback-rate", 0.08, "Share of generated jobs that are callbacks")
		seed        = flag.Uint64("seed", 1, "Random seed for generated history")
		stateFile   = flag.String("state", "./.seed_state.json", "State file for tracking imported catalogs")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun      = flag.Bool("dry-run", false, "Preview changes without modifying database")
		force       = flag.Bool("force", false, "Re-import catalogs already recorded in the state file")
		migrateCmd  = flag.String("migrate", "", "Run a schema migration command instead of seeding: up, down, status or force=<version>")
	)
	flag.Parse()

	log := logger.SetupLogger(*logLevel, "json")
	slog.SetDefault(log)

	if *migrateCmd != "" {
		if err := runMigrationCommand(context.Background(), *migrateCmd, log); err != nil {
			log.Error("Migration command failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	if *catalogFile == "" && !*generate {
		fmt.Fprintln(os.Stderr, "either -catalog or -generate is required")
		flag.Usage()
		os.Exit(2)
	}
	if *months < 1 {
		*months = 1
	}

	ctx := context.Background()

	var repo seedWriter = dryRunWriter{}
	if !*dryRun {
		cfg, err := config.Load(log)
		if err != nil {
			log.Error("Failed to load configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}

		database, err := db.NewDatabase(ctx, &db.Config{
			Host:               cfg.Database.Host,
			Port:               cfg.Database.Port,
			User:               cfg.Database.User,
			Password:           cfg.Database.Password,
			Database:           cfg.Database.Name,
			SSLMode:            cfg.Database.SSLMode,
			MaxConnections:     4,
			MinConnections:     1,
			MaxConnLifetime:    time.Hour,
			MaxConnIdleTime:    time.Minute,
			HealthCheckPeriod:  time.Minute,
			ConnectTimeout:     cfg.Database.ConnectTimeout,
			StatementCacheMode: cfg.Database.StatementCacheMode,
		}, log)
		if err != nil {
			log.Error("Failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.Close()
		repo = db.NewPartRepository(database, log)
	}

	var state seederState
	if !*force {
		if data, err := os.ReadFile(*stateFile); err == nil {
			if err := json.Unmarshal(data, &state); err != nil {
				log.Warn("Ignoring unreadable state file", slog.String("error", err.Error()))
			}
		}
	}

	var (
		sum      summary
		partList []domain.Part
		err      error
	)

	if *catalogFile != "" {
		key := catalogKey(*catalogFile)
		if slices.Contains(state.ImportedCatalogs, key) {
			log.Info("Skipping already imported catalog", slog.String("catalog", *catalogFile))
		} else {
			partList, err = importCatalog(ctx, repo, *catalogFile, &sum, log)
			if err != nil {
				log.Error("Failed to import catalog", slog.String("error", err.Error()))
				os.Exit(1)
			}
			state.ImportedCatalogs = append(state.ImportedCatalogs, key)
		}
	} else {
		partList, err = generateCatalog(ctx, repo, &sum)
		if err != nil {
			log.Error("Failed to generate catalog", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if len(partList) > 0 && *jobs > 0 {
		rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
		if err := generateHistory(ctx, repo, rng, partList, *jobs, *months, *callbackPct, &sum); err != nil {
			log.Error("Failed to generate job history", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if !*dryRun {
		state.LastUpdate = time.Now()
		data, _ := json.MarshalIndent(state, "", "  ")
		if err := os.WriteFile(*stateFile, data, 0o644); err != nil {
			log.Warn("Failed to save state file", slog.String("error", err.Error()))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Parts upserted:      %d\n", sum.parts)
	fmt.Printf("Suppliers upserted:  %d\n", sum.suppliers)
	fmt.Printf("Jobs recorded:       %d\n", sum.jobs)
	fmt.Printf("Usage transactions:  %d\n", sum.usage)
	if sum.rowErrors > 0 {
		fmt.Printf("Catalog row errors:  %d\n", sum.rowErrors)
	}

	log.Info("Seed operation completed",
		slog.Int("parts", sum.parts),
		slog.Int("jobs", sum.jobs),
		slog.Int("usage", sum.usage))

	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes were made to the database")
	}
}

func catalogKey(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return filepath.Base(path)
	}
	return fmt.Sprintf("%s:%d:%d", filepath.Base(path), info.Size(), info.ModTime().Unix())
}

func importCatalog(ctx context.Context, repo seedWriter, path string, sum *summary, log *slog.Logger) ([]domain.Part, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	entries, rowErrs, err := report.ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	for _, re := range rowErrs {
		fmt.Printf("WARNING: row %d skipped - %s\n", re.Row, re.Err)
	}
	sum.rowErrors = len(rowErrs)

	parts := make([]domain.Part, 0, len(entries))
	for i := range entries {
		entry := entries[i]
		if err := repo.UpsertPart(ctx, &entry.Part); err != nil {
			log.Error("Failed to upsert part",
				slog.String("part_number", entry.Part.PartNumber),
				slog.String("error", err.Error()))
			continue
		}
		sum.parts++
		parts = append(parts, entry.Part)

		if entry.Supplier != nil {
			if err := repo.UpsertSupplier(ctx, *entry.Supplier); err != nil {
				return nil, fmt.Errorf("failed to upsert supplier for %s: %w", entry.Part.PartNumber, err)
			}
			sum.suppliers++
		}
	}
	return parts, nil
}

func generateCatalog(ctx context.Context, repo seedWriter, sum *summary) ([]domain.Part, error) {
	parts := make([]domain.Part, 0, len(commonParts))
	for i, cp := range commonParts {
		part := domain.Part{
			PartNumber:     cp.number,
			Description:    cp.description,
			AvgCost:        decimal.RequireFromString(cp.cost),
			QuantityOnHand: 2,
			MinStock:       1,
			AutoReplenish:  true,
		}
		if err := repo.UpsertPart(ctx, &part); err != nil {
			return nil, fmt.Errorf("failed to upsert %s: %w", part.PartNumber, err)
		}
		sum.parts++

		if err := repo.UpsertSupplier(ctx, domain.PartSupplier{
			PartNumber:   part.PartNumber,
			SupplierName: suppliers[i%len(suppliers)],
			LeadTimeDays: cp.leadDays,
			IsPreferred:  true,
		}); err != nil {
			return nil, fmt.Errorf("failed to upsert supplier for %s: %w", part.PartNumber, err)
		}
		sum.suppliers++
		parts = append(parts, part)
	}
	return parts, nil
}

// runMigrationCommand applies one migrator action and prints the schema status
func runMigrationCommand(ctx context.Context, raw string, log *slog.Logger) error {
	cmd, err := db.ParseMigrationCommand(raw)
	if err != nil {
		return err
	}

	cfg, err := config.Load(log)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	migrator, err := db.NewMigrator(&db.MigrationConfig{
		DatabaseURL:    cfg.GetDatabaseURL(),
		SourcePath:     cfg.Database.MigrationPath,
		EmbeddedSource: migrations.FS,
	}, log)
	if err != nil {
		return err
	}
	defer migrator.Close()

	status, err := migrator.Apply(ctx, cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Schema version: %d (dirty: %t)\n", status.CurrentVersion, status.IsDirty)
	for _, applied := range status.Applied {
		fmt.Printf("  applied %d dirty=%t\n", applied.Version, applied.Dirty)
	}
	return nil
}

// generateHistory records jobs spread over the last months with a skewed part
// mix, so a few parts are used constantly and most only occasionally.
func generateHistory(ctx context.Context, repo seedWriter, rng *rand.Rand, parts []domain.Part,
	jobs, months int, callbackRate float64, sum *summary) error {
	now := time.Now().UTC()
	span := now.Sub(now.AddDate(0, -months, 0))

	for i := 0; i < jobs; i++ {
		job := domain.Job{
			ID:             fmt.Sprintf("SEED-%05d", i+1),
			ApplianceBrand: brands[rng.IntN(len(brands))],
			CompletedAt:    now.Add(-time.Duration(rng.Int64N(int64(span)))),
		}
		if rng.Float64() < callbackRate {
			job.IsCallback = true
			job.CallbackReason = reasons[rng.IntN(len(reasons))]
		}
		var txs []domain.UsageTransaction
		for n := rng.IntN(3); n >= 0; n-- {
			// squaring the draw skews usage toward the front of the list
			idx := int(float64(len(parts)) * rng.Float64() * rng.Float64())
			part := parts[idx]
			txs = append(txs, domain.UsageTransaction{
				PartNumber: part.PartNumber,
				JobID:      job.ID,
				Quantity:   1,
				UnitCost:   part.AvgCost,
				UsedAt:     job.CompletedAt,
			})
		}
		if err := repo.CompleteJob(ctx, job, txs); err != nil {
			return fmt.Errorf("failed to save job %s: %w", job.ID, err)
		}
		sum.jobs++
		sum.usage += len(txs)
	}
	return nil
}
