// internal/adapters/db/part_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
)

var partColumns = []string{
	"part_number", "description", "avg_cost", "quantity_on_hand",
	"min_stock", "manual_min_stock", "auto_replenish",
	"stocking_score", "stocking_recommendation", "created_at", "updated_at",
}

// partRepository implements ports.PartRepository
type partRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewPartRepository creates a new part repository
func NewPartRepository(db *Database, logger *slog.Logger) ports.PartRepository {
	return &partRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "part")),
	}
}

// GetUsageTransactions returns usage of a part at or after since, oldest first.
// A zero since returns the full history.
func (r *partRepository) GetUsageTransactions(ctx context.Context, partNumber string, since time.Time) ([]domain.UsageTransaction, error) {
	query := `
		SELECT id, part_number, COALESCE(job_id, ''), quantity, unit_cost, used_at
		FROM part_usage
		WHERE part_number = $1`
	args := []any{partNumber}
	if !since.IsZero() {
		query += ` AND used_at >= $2`
		args = append(args, since)
	}
	query += ` ORDER BY used_at ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage transactions: %w", err)
	}

	txs, err := ScanMany(rows, scanUsage)
	if err != nil {
		return nil, fmt.Errorf("failed to scan usage transactions: %w", err)
	}
	return txs, nil
}

// GetPreferredSupplierLeadTime returns nil when the part has no preferred supplier.
// A part has at most one preferred supplier, see UpsertSupplier.
func (r *partRepository) GetPreferredSupplierLeadTime(ctx context.Context, partNumber string) (*int, error) {
	query := `
		SELECT lead_time_days
		FROM part_suppliers
		WHERE part_number = $1 AND is_preferred`

	var days int
	err := r.db.QueryRow(ctx, query, partNumber).Scan(&days)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get preferred supplier lead time: %w", err)
	}
	return &days, nil
}

// GetCallbackLinkedUsageCount counts the distinct callback jobs that consumed the part
func (r *partRepository) GetCallbackLinkedUsageCount(ctx context.Context, partNumber string) (int, error) {
	query := `
		SELECT COUNT(DISTINCT u.job_id)
		FROM part_usage u
		JOIN jobs j ON j.id = u.job_id
		WHERE u.part_number = $1 AND j.is_callback`

	var count int
	if err := r.db.QueryRow(ctx, query, partNumber).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count callback usage: %w", err)
	}
	return count, nil
}

// GetPartRecord returns nil, nil when the part does not exist
func (r *partRepository) GetPartRecord(ctx context.Context, partNumber string) (*domain.Part, error) {
	query := fmt.Sprintf(`SELECT %s FROM parts WHERE part_number = $1`, strings.Join(partColumns, ", "))

	part, err := ScanOne(r.db.QueryRow(ctx, query, partNumber), scanPart)
	if err != nil {
		return nil, fmt.Errorf("failed to get part %s: %w", partNumber, err)
	}
	return part, nil
}

// ListAutoReplenishParts returns every part flagged for automatic replenishment,
// including those with a manual override so callers can report them.
func (r *partRepository) ListAutoReplenishParts(ctx context.Context) ([]domain.Part, error) {
	auto := true
	return r.ListParts(ctx, ports.PartFilter{AutoReplenish: &auto, SortBy: "part_number"})
}

// ListParts retrieves parts with filtering and pagination
func (r *partRepository) ListParts(ctx context.Context, filter ports.PartFilter) ([]domain.Part, error) {
	query, args, err := buildListPartsQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parts: %w", err)
	}

	parts, err := ScanMany(rows, scanPart)
	if err != nil {
		return nil, fmt.Errorf("failed to scan parts: %w", err)
	}
	return parts, nil
}

func buildListPartsQuery(filter ports.PartFilter) (string, []any, error) {
	qb := squirrel.Select(partColumns...).
		From("parts").
		PlaceholderFormat(squirrel.Dollar)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"part_number": pattern},
			squirrel.ILike{"description": pattern},
		})
	}
	if filter.AutoReplenish != nil {
		qb = qb.Where(squirrel.Eq{"auto_replenish": *filter.AutoReplenish})
	}
	if filter.MinScore != nil {
		qb = qb.Where(squirrel.GtOrEq{"stocking_score": *filter.MinScore})
	}

	direction := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		direction = "DESC"
	}
	switch filter.SortBy {
	case "score":
		qb = qb.OrderBy(fmt.Sprintf("stocking_score %s NULLS LAST", direction), "part_number ASC")
	case "cost":
		qb = qb.OrderBy(fmt.Sprintf("avg_cost %s", direction), "part_number ASC")
	case "updated":
		qb = qb.OrderBy(fmt.Sprintf("updated_at %s", direction), "part_number ASC")
	default:
		qb = qb.OrderBy(fmt.Sprintf("part_number %s", direction))
	}

	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	return qb.ToSql()
}

// UpdateMinStock persists a recommended min stock level
func (r *partRepository) UpdateMinStock(ctx context.Context, partNumber string, value int) error {
	query := `
		UPDATE parts
		SET min_stock = $2, updated_at = NOW()
		WHERE part_number = $1`

	tag, err := r.db.Exec(ctx, query, partNumber, value)
	if err != nil {
		return fmt.Errorf("failed to update min stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPartNotFound, partNumber)
	}

	r.logger.DebugContext(ctx, "min stock updated",
		slog.String("part_number", partNumber),
		slog.Int("min_stock", value))
	return nil
}

// UpdateStockingScore persists a stocking score and its recommendation text
func (r *partRepository) UpdateStockingScore(ctx context.Context, partNumber string, score float64, recommendation string) error {
	query := `
		UPDATE parts
		SET stocking_score = $2, stocking_recommendation = $3, updated_at = NOW()
		WHERE part_number = $1`

	tag, err := r.db.Exec(ctx, query, partNumber, score, recommendation)
	if err != nil {
		return fmt.Errorf("failed to update stocking score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPartNotFound, partNumber)
	}
	return nil
}

// UpsertPart creates a part or updates its master data. Computed columns
// (stocking score and recommendation) are left untouched on update.
func (r *partRepository) UpsertPart(ctx context.Context, part *domain.Part) error {
	if err := part.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO parts (
			part_number, description, avg_cost, quantity_on_hand,
			min_stock, manual_min_stock, auto_replenish
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (part_number) DO UPDATE SET
			description      = EXCLUDED.description,
			avg_cost         = EXCLUDED.avg_cost,
			quantity_on_hand = EXCLUDED.quantity_on_hand,
			min_stock        = EXCLUDED.min_stock,
			manual_min_stock = EXCLUDED.manual_min_stock,
			auto_replenish   = EXCLUDED.auto_replenish,
			updated_at       = NOW()
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		part.PartNumber, part.Description, part.AvgCost, part.QuantityOnHand,
		part.MinStock, part.ManualMinStock, part.AutoReplenish,
	).Scan(&part.CreatedAt, &part.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert part: %w", err)
	}

	r.logger.DebugContext(ctx, "part saved", slog.String("part_number", part.PartNumber))
	return nil
}

// RecordUsage inserts usage transactions in a single transaction. Missing IDs
// and timestamps are filled in place.
func (r *partRepository) RecordUsage(ctx context.Context, txs []domain.UsageTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		return insertUsage(ctx, tx, txs)
	})
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "usage recorded", slog.Int("count", len(txs)))
	return nil
}

// CompleteJob saves a job and replaces its usage in one transaction, so a
// retried completion never counts the same parts twice.
func (r *partRepository) CompleteJob(ctx context.Context, job domain.Job, txs []domain.UsageTransaction) error {
	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	for i := range txs {
		txs[i].JobID = job.ID
	}

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		if err := saveJob(ctx, tx, job); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM part_usage WHERE job_id = $1`, job.ID); err != nil {
			return fmt.Errorf("failed to clear job usage: %w", err)
		}
		if len(txs) == 0 {
			return nil
		}
		return insertUsage(ctx, tx, txs)
	})
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "job completed",
		slog.String("job_id", job.ID),
		slog.Int("usage", len(txs)))
	return nil
}

func insertUsage(ctx context.Context, tx pgx.Tx, txs []domain.UsageTransaction) error {
	query := `
		INSERT INTO part_usage (id, part_number, job_id, quantity, unit_cost, used_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)`

	batch := &pgx.Batch{}
	now := time.Now().UTC()

	for i := range txs {
		if txs[i].ID == uuid.Nil {
			txs[i].ID = uuid.New()
		}
		if txs[i].UsedAt.IsZero() {
			txs[i].UsedAt = now
		}
		if txs[i].Quantity <= 0 {
			txs[i].Quantity = 1
		}
		batch.Queue(query,
			txs[i].ID, txs[i].PartNumber, txs[i].JobID,
			txs[i].Quantity, txs[i].UnitCost, txs[i].UsedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for i := range txs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to record usage %d (%s): %w", i, txs[i].PartNumber, err)
		}
	}
	return nil
}

// UpsertSupplier saves a part supplier. Marking a supplier preferred clears
// the flag on the part's other suppliers.
func (r *partRepository) UpsertSupplier(ctx context.Context, supplier domain.PartSupplier) error {
	if supplier.PartNumber == "" || supplier.SupplierName == "" {
		return fmt.Errorf("part_number and supplier_name are required")
	}
	if supplier.LeadTimeDays < 0 {
		return fmt.Errorf("lead_time_days: %w", domain.ErrNegativeAmount)
	}

	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		if supplier.IsPreferred {
			_, err := tx.Exec(ctx, `
				UPDATE part_suppliers
				SET is_preferred = FALSE
				WHERE part_number = $1 AND supplier_name <> $2 AND is_preferred`,
				supplier.PartNumber, supplier.SupplierName)
			if err != nil {
				return fmt.Errorf("failed to clear preferred supplier: %w", err)
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO part_suppliers (part_number, supplier_name, lead_time_days, is_preferred)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (part_number, supplier_name) DO UPDATE SET
				lead_time_days = EXCLUDED.lead_time_days,
				is_preferred   = EXCLUDED.is_preferred`,
			supplier.PartNumber, supplier.SupplierName, supplier.LeadTimeDays, supplier.IsPreferred)
		if err != nil {
			return fmt.Errorf("failed to upsert supplier: %w", err)
		}
		return nil
	})
}

// SaveJob creates or updates a job
func (r *partRepository) SaveJob(ctx context.Context, job domain.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	return saveJob(ctx, r.db, job)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func saveJob(ctx context.Context, db execer, job domain.Job) error {
	if job.CompletedAt.IsZero() {
		job.CompletedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO jobs (id, is_callback, callback_reason, appliance_brand, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			is_callback     = EXCLUDED.is_callback,
			callback_reason = EXCLUDED.callback_reason,
			appliance_brand = EXCLUDED.appliance_brand,
			completed_at    = EXCLUDED.completed_at`

	_, err := db.Exec(ctx, query,
		job.ID, job.IsCallback, string(job.CallbackReason), job.ApplianceBrand, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func scanPart(row pgx.Row) (domain.Part, error) {
	var p domain.Part
	err := row.Scan(
		&p.PartNumber, &p.Description, &p.AvgCost, &p.QuantityOnHand,
		&p.MinStock, &p.ManualMinStock, &p.AutoReplenish,
		&p.StockingScore, &p.StockingRecommendation, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func scanUsage(row pgx.Row) (domain.UsageTransaction, error) {
	var u domain.UsageTransaction
	err := row.Scan(&u.ID, &u.PartNumber, &u.JobID, &u.Quantity, &u.UnitCost, &u.UsedAt)
	return u, err
}
