// internal/report/publisher.go
package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ammerola/fieldservice-be/internal/core/ports"
)

// keyTimeFormat sorts lexically in time order
const keyTimeFormat = "20060102T150405Z"

// Published describes an uploaded report
type Published struct {
	Key         string    `json:"key"`
	Location    string    `json:"location"`
	Parts       int       `json:"parts"`
	GeneratedAt time.Time `json:"generated_at"`
	Pruned      int       `json:"pruned"`
}

// Publisher builds stocking reports and stores them under a key prefix
type Publisher struct {
	replenishment ports.ReplenishmentService
	storage       ports.ObjectStorage
	prefix        string
	retention     int
	now           func() time.Time
	logger        *slog.Logger
}

// NewPublisher creates a publisher. A retention of zero keeps every report.
func NewPublisher(replenishment ports.ReplenishmentService, storage ports.ObjectStorage,
	prefix string, retention int, logger *slog.Logger) *Publisher {
	return &Publisher{
		replenishment: replenishment,
		storage:       storage,
		prefix:        strings.TrimSuffix(prefix, "/"),
		retention:     retention,
		now:           time.Now,
		logger:        logger.With(slog.String("component", "report_publisher")),
	}
}

// KeyFor returns the object key of a report generated at t
func (p *Publisher) KeyFor(t time.Time) string {
	return path.Join(p.prefix, "stocking-"+t.UTC().Format(keyTimeFormat)+".xlsx")
}

// PublishStocking snapshots every part, uploads the workbook and prunes
// reports beyond the retention count. A failed prune is logged only.
func (p *Publisher) PublishStocking(ctx context.Context) (*Published, error) {
	generatedAt := p.now()

	rows, err := p.replenishment.StockingSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build stocking snapshot: %w", err)
	}

	data, err := BuildStockingWorkbook(rows, generatedAt)
	if err != nil {
		return nil, err
	}

	key := p.KeyFor(generatedAt)
	location, err := p.storage.Upload(ctx, key, bytes.NewReader(data), ContentTypeXLSX)
	if err != nil {
		return nil, fmt.Errorf("failed to upload stocking report: %w", err)
	}

	published := &Published{
		Key:         key,
		Location:    location,
		Parts:       len(rows),
		GeneratedAt: generatedAt,
	}

	pruned, err := p.prune(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to prune old reports",
			slog.String("error", err.Error()))
	}
	published.Pruned = pruned

	p.logger.InfoContext(ctx, "stocking report published",
		slog.String("key", key),
		slog.Int("parts", len(rows)),
		slog.Int("pruned", pruned))

	return published, nil
}

// Latest returns the newest report key, or "" when none exist
func (p *Publisher) Latest(ctx context.Context) (string, error) {
	keys, err := p.reportKeys(ctx)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", nil
	}
	return keys[len(keys)-1], nil
}

func (p *Publisher) prune(ctx context.Context) (int, error) {
	if p.retention <= 0 {
		return 0, nil
	}

	keys, err := p.reportKeys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) <= p.retention {
		return 0, nil
	}

	stale := keys[:len(keys)-p.retention]
	if err := p.storage.DeleteMultiple(ctx, stale); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// reportKeys lists stocking reports oldest first
func (p *Publisher) reportKeys(ctx context.Context) ([]string, error) {
	all, err := p.storage.List(ctx, p.prefix+"/stocking-")
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasSuffix(k, ".xlsx") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
