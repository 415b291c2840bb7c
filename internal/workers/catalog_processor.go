// internal/workers/catalog_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/internal/report"
)

// CatalogProcessor imports parts catalog workbooks uploaded through the API
type CatalogProcessor struct {
	repo        ports.PartRepository
	invalidator CacheInvalidator
	uploadDir   string
	logger      *slog.Logger
}

// NewCatalogProcessor creates a new catalog processor. Files under uploadDir
// are removed once imported.
func NewCatalogProcessor(repo ports.PartRepository, invalidator CacheInvalidator, uploadDir string, logger *slog.Logger) *CatalogProcessor {
	return &CatalogProcessor{
		repo:        repo,
		invalidator: invalidator,
		uploadDir:   uploadDir,
		logger:      logger.With(slog.String("processor", "catalog")),
	}
}

// ProcessCatalogImport handles TypeCatalogImport
func (p *CatalogProcessor) ProcessCatalogImport(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	var payload CatalogImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	p.logger.InfoContext(ctx, "importing parts catalog",
		slog.String("job_id", payload.JobID),
		slog.String("file_path", payload.FilePath))

	data, err := os.ReadFile(payload.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("catalog file missing: %w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	entries, rowErrs, err := report.ParseCatalog(data)
	if err != nil {
		p.cleanup(ctx, payload.FilePath)
		return fmt.Errorf("failed to parse catalog: %w: %w", err, asynq.SkipRetry)
	}

	for _, re := range rowErrs {
		p.logger.WarnContext(ctx, "catalog row skipped",
			slog.String("job_id", payload.JobID),
			slog.Int("row", re.Row),
			slog.String("error", re.Err))
	}

	result := CatalogImportResult{RowErrors: len(rowErrs)}
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := entries[i]
		if err := p.repo.UpsertPart(ctx, &entry.Part); err != nil {
			result.FailedParts++
			p.logger.ErrorContext(ctx, "failed to upsert part",
				slog.String("part_number", entry.Part.PartNumber),
				slog.String("error", err.Error()))
			continue
		}
		result.PartsUpserted++

		if entry.Supplier != nil {
			if err := p.repo.UpsertSupplier(ctx, *entry.Supplier); err != nil {
				p.logger.ErrorContext(ctx, "failed to upsert supplier",
					slog.String("part_number", entry.Part.PartNumber),
					slog.String("supplier", entry.Supplier.SupplierName),
					slog.String("error", err.Error()))
				continue
			}
			result.SuppliersUpserted++
		}
	}

	if result.PartsUpserted > 0 {
		if err := p.invalidator.InvalidateAll(ctx); err != nil {
			p.logger.WarnContext(ctx, "failed to invalidate part caches",
				slog.String("error", err.Error()))
		}
	}

	p.cleanup(ctx, payload.FilePath)
	result.ProcessingTime = time.Since(start).String()

	if w := t.ResultWriter(); w != nil {
		if b, err := json.Marshal(result); err == nil {
			_, _ = w.Write(b)
		}
	}

	p.logger.InfoContext(ctx, "catalog import completed",
		slog.String("job_id", payload.JobID),
		slog.Int("parts_upserted", result.PartsUpserted),
		slog.Int("suppliers_upserted", result.SuppliersUpserted),
		slog.Int("row_errors", result.RowErrors),
		slog.Int("failed_parts", result.FailedParts))

	return nil
}

func (p *CatalogProcessor) cleanup(ctx context.Context, path string) {
	if p.uploadDir == "" {
		return
	}
	rel, err := filepath.Rel(p.uploadDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.WarnContext(ctx, "failed to remove imported file",
			slog.String("file_path", path),
			slog.String("error", err.Error()))
	}
}
