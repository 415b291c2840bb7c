package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/fieldservice-be/internal/adapters/redis_adapter"
	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/internal/handlers"
	"github.com/ammerola/fieldservice-be/test/helpers"
	"github.com/ammerola/fieldservice-be/test/mocks"
)

type partsFixture struct {
	handler *handlers.PartsHandler
	svc     *mocks.MockReplenishmentService
	repo    *mocks.MockPartRepository
	redis   *helpers.TestRedis
}

func newPartsFixture(t *testing.T) *partsFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	r := helpers.SetupTestRedis(t)
	logger := helpers.TestLogger()
	cache := redis_adapter.NewCache(r.Client, time.Minute, logger)

	f := &partsFixture{
		svc:   mocks.NewMockReplenishmentService(ctrl),
		repo:  mocks.NewMockPartRepository(ctrl),
		redis: r,
	}
	f.handler = handlers.NewPartsHandler(f.svc, f.repo, cache,
		redis_adapter.NewInvalidator(cache, logger), time.Minute, logger)
	return f
}

func partRequest(method, partNumber, suffix string) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/parts/"+partNumber+"/"+suffix, nil)
	req.SetPathValue("partNumber", partNumber)
	return req
}

func TestPartsHandler_MinStock(t *testing.T) {
	f := newPartsFixture(t)
	part := helpers.CreateTestPart()

	f.repo.EXPECT().GetPartRecord(gomock.Any(), part.PartNumber).Return(part, nil).Times(1)
	f.svc.EXPECT().CalculateRecommendedMinStock(gomock.Any(), part.PartNumber).
		Return(domain.MinStockRecommendation{Value: 3, Confidence: domain.ConfidenceHigh}).Times(1)

	// the second request is served from redis
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		f.handler.MinStock(w, partRequest("GET", part.PartNumber, "min-stock"))
		require.Equal(t, http.StatusOK, w.Code)

		var resp handlers.MinStockResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, part.PartNumber, resp.PartNumber)
		assert.Equal(t, 1, resp.CurrentMin)
		assert.Equal(t, 3, resp.Recommendation.Value)
		assert.Equal(t, domain.ConfidenceHigh, resp.Recommendation.Confidence)
	}

	assert.True(t, f.redis.Server.Exists("minstock:"+part.PartNumber))
}

func TestPartsHandler_MinStock_Errors(t *testing.T) {
	tests := []struct {
		name           string
		setup          func(*partsFixture)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "unknown_part",
			setup: func(f *partsFixture) {
				f.repo.EXPECT().GetPartRecord(gomock.Any(), "NOPE").Return(nil, nil)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "Part not found",
		},
		{
			name: "repository_error",
			setup: func(f *partsFixture) {
				f.repo.EXPECT().GetPartRecord(gomock.Any(), "NOPE").Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Failed to load part analytics",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPartsFixture(t)
			tt.setup(f)

			w := httptest.NewRecorder()
			f.handler.MinStock(w, partRequest("GET", "NOPE", "min-stock"))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedError, errorMessage(t, w.Body.Bytes()))
			assert.False(t, f.redis.Server.Exists("minstock:NOPE"), "failures are never cached")
		})
	}
}

func TestPartsHandler_StockingScore(t *testing.T) {
	f := newPartsFixture(t)
	part := helpers.CreateTestPart()

	f.repo.EXPECT().GetPartRecord(gomock.Any(), part.PartNumber).Return(part, nil)
	f.svc.EXPECT().CalculateStockingScore(gomock.Any(), part.PartNumber).
		Return(domain.StockingScoreResult{Score: 8, Recommendation: domain.StockingHighValue})

	w := httptest.NewRecorder()
	f.handler.StockingScore(w, partRequest("GET", part.PartNumber, "stocking-score"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.StockingScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 8.0, resp.Result.Score, 1e-9)
	assert.Equal(t, domain.StockingHighValue, resp.Result.Recommendation)
}

func TestPartsHandler_StockingScore_RedisDown(t *testing.T) {
	f := newPartsFixture(t)
	part := helpers.CreateTestPart()
	f.redis.Server.Close()

	f.repo.EXPECT().GetPartRecord(gomock.Any(), part.PartNumber).Return(part, nil)
	f.svc.EXPECT().CalculateStockingScore(gomock.Any(), part.PartNumber).
		Return(domain.NoDataStockingScore())

	w := httptest.NewRecorder()
	f.handler.StockingScore(w, partRequest("GET", part.PartNumber, "stocking-score"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPartsHandler_ListParts(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectFilter   func(*testing.T, ports.PartFilter)
		expectedStatus int
	}{
		{
			name:  "defaults",
			query: "",
			expectFilter: func(t *testing.T, f ports.PartFilter) {
				assert.Equal(t, 50, f.Limit)
				assert.Equal(t, "part_number", f.SortBy)
				assert.Nil(t, f.MinScore)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "filters",
			query: "search=fuse&auto_replenish=true&min_score=5&sort_by=score&sort_order=desc&limit=1000&offset=10",
			expectFilter: func(t *testing.T, f ports.PartFilter) {
				assert.Equal(t, "fuse", f.Search)
				require.NotNil(t, f.AutoReplenish)
				assert.True(t, *f.AutoReplenish)
				require.NotNil(t, f.MinScore)
				assert.InDelta(t, 5.0, *f.MinScore, 1e-9)
				assert.Equal(t, "score", f.SortBy)
				assert.Equal(t, "desc", f.SortOrder)
				assert.Equal(t, 500, f.Limit)
				assert.Equal(t, 10, f.Offset)
			},
			expectedStatus: http.StatusOK,
		},
		{name: "bad_limit", query: "limit=-1", expectedStatus: http.StatusBadRequest},
		{name: "bad_min_score", query: "min_score=high", expectedStatus: http.StatusBadRequest},
		{name: "bad_auto_replenish", query: "auto_replenish=maybe", expectedStatus: http.StatusBadRequest},
		{
			name:  "sort_by_cost_ascending",
			query: "sort_by=cost&sort_order=asc",
			expectFilter: func(t *testing.T, f ports.PartFilter) {
				assert.Equal(t, "cost", f.SortBy)
				assert.Equal(t, "asc", f.SortOrder)
			},
			expectedStatus: http.StatusOK,
		},
		{name: "unknown_sort_by", query: "sort_by=price", expectedStatus: http.StatusBadRequest},
		{name: "bad_sort_order", query: "sort_by=score&sort_order=down", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPartsFixture(t)
			if tt.expectFilter != nil {
				f.repo.EXPECT().ListParts(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, filter ports.PartFilter) ([]domain.Part, error) {
						tt.expectFilter(t, filter)
						return helpers.CreateTestParts(2), nil
					})
			}

			w := httptest.NewRecorder()
			f.handler.ListParts(w, httptest.NewRequest("GET", "/api/v1/parts?"+tt.query, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestPartsHandler_Snapshot(t *testing.T) {
	f := newPartsFixture(t)
	rows := []ports.PartStockingRow{
		{Part: *helpers.CreateTestPart(), Score: domain.StockingScoreResult{Score: 9, Recommendation: domain.StockingCritical}},
	}
	f.svc.EXPECT().StockingSnapshot(gomock.Any()).Return(rows, nil).Times(1)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		f.handler.Snapshot(w, httptest.NewRequest("GET", "/api/v1/replenishment/snapshot", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Parts []ports.PartStockingRow `json:"parts"`
			Count int                     `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, domain.StockingCritical, resp.Parts[0].Score.Recommendation)
	}
}

func TestPartsHandler_CompleteJob(t *testing.T) {
	f := newPartsFixture(t)
	require.NoError(t, f.redis.Server.Set("minstock:WPW10348269", `{}`))
	require.NoError(t, f.redis.Server.Set("score:WPW10348269", `{}`))
	require.NoError(t, f.redis.Server.Set("minstock:OTHER", `{}`))

	f.repo.EXPECT().CompleteJob(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job domain.Job, txs []domain.UsageTransaction) error {
			assert.Equal(t, "JOB-42", job.ID)
			assert.True(t, job.IsCallback)
			assert.Equal(t, domain.CallbackNewIssue, job.CallbackReason)
			require.Len(t, txs, 2)
			assert.Equal(t, "JOB-42", txs[0].JobID)
			assert.True(t, decimal.RequireFromString("18.50").Equal(txs[0].UnitCost))
			return nil
		})

	body := `{
		"id": "JOB-42",
		"is_callback": true,
		"callback_reason": "New Issue",
		"parts_used": [
			{"part_number": "WPW10348269", "quantity": 1, "unit_cost": "18.50"},
			{"part_number": "WPW10348269", "quantity": 1, "unit_cost": "18.50"}
		]
	}`
	w := httptest.NewRecorder()
	f.handler.CompleteJob(w, httptest.NewRequest("POST", "/api/v1/jobs", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, f.redis.Server.Exists("minstock:WPW10348269"))
	assert.False(t, f.redis.Server.Exists("score:WPW10348269"))
	assert.True(t, f.redis.Server.Exists("minstock:OTHER"))
}

func TestPartsHandler_CompleteJob_StoreFails(t *testing.T) {
	f := newPartsFixture(t)
	require.NoError(t, f.redis.Server.Set("score:WPW10348269", `{}`))
	f.repo.EXPECT().CompleteJob(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	body := `{"id": "JOB-43", "parts_used": [{"part_number": "WPW10348269", "quantity": 1, "unit_cost": "18.50"}]}`
	w := httptest.NewRecorder()
	f.handler.CompleteJob(w, httptest.NewRequest("POST", "/api/v1/jobs", strings.NewReader(body)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, f.redis.Server.Exists("score:WPW10348269"))
}

func TestCompleteJobRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     handlers.CompleteJobRequest
		wantErr string
	}{
		{name: "valid", req: handlers.CompleteJobRequest{ID: "J1"}},
		{name: "missing_id", req: handlers.CompleteJobRequest{}, wantErr: "id is required"},
		{
			name:    "callback_without_reason",
			req:     handlers.CompleteJobRequest{ID: "J1", IsCallback: true},
			wantErr: "callback jobs need a callback_reason",
		},
		{
			name:    "reason_without_callback",
			req:     handlers.CompleteJobRequest{ID: "J1", CallbackReason: domain.CallbackNewIssue},
			wantErr: "callback_reason is only valid on callback jobs",
		},
		{
			name:    "negative_cost",
			req:     handlers.CompleteJobRequest{ID: "J1", PartsUsed: []handlers.PartUsed{{PartNumber: "A", UnitCost: decimal.NewFromInt(-1)}}},
			wantErr: "parts_used[0]: amount cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
