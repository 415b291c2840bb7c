package report

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/test/helpers"
	"github.com/ammerola/fieldservice-be/test/mocks"
)

func TestPublisher_PublishStocking(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 12, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		retention  int
		existing   []string
		wantPruned []string
	}{
		{
			name:      "keeps_everything_without_retention",
			retention: 0,
		},
		{
			name:      "prunes_oldest_reports",
			retention: 2,
			existing: []string{
				"reports/stocking/stocking-20261005T060000Z.xlsx",
				"reports/stocking/stocking-20260928T060000Z.xlsx",
				"reports/stocking/stocking-20261012T060000Z.xlsx",
				"reports/stocking/stocking-notes.txt",
			},
			wantPruned: []string{"reports/stocking/stocking-20260928T060000Z.xlsx"},
		},
		{
			name:      "nothing_to_prune",
			retention: 5,
			existing:  []string{"reports/stocking/stocking-20261012T060000Z.xlsx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repl := mocks.NewMockReplenishmentService(ctrl)
			store := mocks.NewMockObjectStorage(ctrl)

			repl.EXPECT().StockingSnapshot(ctx).Return([]ports.PartStockingRow{{}}, nil)
			store.EXPECT().
				Upload(ctx, "reports/stocking/stocking-20261012T060000Z.xlsx", gomock.Any(), ContentTypeXLSX).
				DoAndReturn(func(_ context.Context, key string, r io.Reader, _ string) (string, error) {
					b, err := io.ReadAll(r)
					require.NoError(t, err)
					assert.NotEmpty(t, b)
					return "s3://bucket/" + key, nil
				})
			if tt.retention > 0 {
				store.EXPECT().List(ctx, "reports/stocking/stocking-").Return(tt.existing, nil)
			}
			if len(tt.wantPruned) > 0 {
				store.EXPECT().DeleteMultiple(ctx, tt.wantPruned).Return(nil)
			}

			p := NewPublisher(repl, store, "reports/stocking/", tt.retention, helpers.TestLogger())
			p.now = func() time.Time { return now }

			got, err := p.PublishStocking(ctx)
			require.NoError(t, err)
			assert.Equal(t, "reports/stocking/stocking-20261012T060000Z.xlsx", got.Key)
			assert.Equal(t, 1, got.Parts)
			assert.Equal(t, len(tt.wantPruned), got.Pruned)
		})
	}
}

func TestPublisher_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot_error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repl := mocks.NewMockReplenishmentService(ctrl)
		repl.EXPECT().StockingSnapshot(ctx).Return(nil, errors.New("db down"))

		p := NewPublisher(repl, mocks.NewMockObjectStorage(ctrl), "reports", 3, helpers.TestLogger())
		_, err := p.PublishStocking(ctx)
		assert.ErrorContains(t, err, "failed to build stocking snapshot")
	})

	t.Run("upload_error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repl := mocks.NewMockReplenishmentService(ctrl)
		store := mocks.NewMockObjectStorage(ctrl)
		repl.EXPECT().StockingSnapshot(ctx).Return(nil, nil)
		store.EXPECT().Upload(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("denied"))

		p := NewPublisher(repl, store, "reports", 3, helpers.TestLogger())
		_, err := p.PublishStocking(ctx)
		assert.ErrorContains(t, err, "failed to upload stocking report")
	})

	t.Run("prune_error_is_not_fatal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repl := mocks.NewMockReplenishmentService(ctrl)
		store := mocks.NewMockObjectStorage(ctrl)
		repl.EXPECT().StockingSnapshot(ctx).Return(nil, nil)
		store.EXPECT().Upload(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("loc", nil)
		store.EXPECT().List(ctx, gomock.Any()).Return(nil, errors.New("throttled"))

		p := NewPublisher(repl, store, "reports", 3, helpers.TestLogger())
		got, err := p.PublishStocking(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Pruned)
	})
}

func TestPublisher_Latest(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockObjectStorage(ctrl)

	store.EXPECT().List(ctx, "reports/stocking-").Return([]string{
		"reports/stocking-20261012T060000Z.xlsx",
		"reports/stocking-20261019T060000Z.xlsx",
	}, nil)
	store.EXPECT().List(ctx, "reports/stocking-").Return(nil, nil)

	p := NewPublisher(mocks.NewMockReplenishmentService(ctrl), store, "reports", 0, helpers.TestLogger())

	latest, err := p.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "reports/stocking-20261019T060000Z.xlsx", latest)

	latest, err = p.Latest(ctx)
	require.NoError(t, err)
	assert.Empty(t, latest)
}
