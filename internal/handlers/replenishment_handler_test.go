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

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/fieldservice-be/internal/handlers"
	"github.com/ammerola/fieldservice-be/internal/workers"
	"github.com/ammerola/fieldservice-be/test/helpers"
	"github.com/ammerola/fieldservice-be/test/mocks"
)

type fakeLocator struct {
	key string
	err error
}

func (f fakeLocator) Latest(context.Context) (string, error) {
	return f.key, f.err
}

type runResponse struct {
	Batch string                `json:"batch"`
	Tasks []handlers.QueuedTask `json:"tasks"`
}

func TestReplenishmentHandler_Run(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		enqueueErrs    []error
		expectedStatus int
		expectedTypes  []string
		expectedStates []string
	}{
		{
			name:           "empty_body_runs_all",
			body:           "",
			enqueueErrs:    []error{nil, nil},
			expectedStatus: http.StatusAccepted,
			expectedTypes:  []string{workers.TypeMinStockUpdate, workers.TypeStockingScoreUpdate},
			expectedStates: []string{"queued", "queued"},
		},
		{
			name:           "report_only",
			body:           `{"batch":"report"}`,
			enqueueErrs:    []error{nil},
			expectedStatus: http.StatusAccepted,
			expectedTypes:  []string{workers.TypeStockingReport},
			expectedStates: []string{"queued"},
		},
		{
			name:           "duplicate_is_already_queued",
			body:           `{"batch":"min_stock"}`,
			enqueueErrs:    []error{asynq.ErrDuplicateTask},
			expectedStatus: http.StatusAccepted,
			expectedTypes:  []string{workers.TypeMinStockUpdate},
			expectedStates: []string{"already_queued"},
		},
		{
			name:           "queue_unavailable",
			body:           `{"batch":"stocking_score"}`,
			enqueueErrs:    []error{errors.New("redis: connection refused")},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "unknown_batch",
			body:           `{"batch":"everything"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown_field",
			body:           `{"batches":"all"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			queue := mocks.NewMockTaskQueue(ctrl)

			for i, enqueueErr := range tt.enqueueErrs {
				call := queue.EXPECT().EnqueueContext(gomock.Any(), gomock.Any())
				if enqueueErr != nil {
					call.Return(nil, enqueueErr)
					continue
				}
				call.DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
					assert.Equal(t, tt.expectedTypes[i], task.Type())
					return &asynq.TaskInfo{ID: "task-" + task.Type(), Queue: workers.QueueLow}, nil
				})
			}

			h := handlers.NewReplenishmentHandler(queue, fakeLocator{}, nil, time.Minute, helpers.TestLogger())

			req := httptest.NewRequest("POST", "/api/v1/replenishment/run", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.Run(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusAccepted {
				return
			}

			var resp runResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Len(t, resp.Tasks, len(tt.expectedTypes))
			for i, task := range resp.Tasks {
				assert.Equal(t, tt.expectedTypes[i], task.Type)
				assert.Equal(t, tt.expectedStates[i], task.Status)
			}
		})
	}
}

func TestReplenishmentHandler_LatestReport(t *testing.T) {
	const key = "reports/stocking/stocking-20261014T020000Z.xlsx"

	tests := []struct {
		name           string
		locator        fakeLocator
		setupStorage   func(*mocks.MockObjectStorage)
		expectedStatus int
	}{
		{
			name:    "presigned_link",
			locator: fakeLocator{key: key},
			setupStorage: func(s *mocks.MockObjectStorage) {
				s.EXPECT().GetPresignedURL(gomock.Any(), key, 15*time.Minute).
					Return("https://bucket.s3.amazonaws.com/"+key+"?X-Amz-Signature=abc", nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "nothing_published",
			locator:        fakeLocator{},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "listing_fails",
			locator:        fakeLocator{err: errors.New("access denied")},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:    "presign_fails",
			locator: fakeLocator{key: key},
			setupStorage: func(s *mocks.MockObjectStorage) {
				s.EXPECT().GetPresignedURL(gomock.Any(), key, gomock.Any()).Return("", errors.New("no credentials"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			storage := mocks.NewMockObjectStorage(ctrl)
			if tt.setupStorage != nil {
				tt.setupStorage(storage)
			}

			h := handlers.NewReplenishmentHandler(nil, tt.locator, storage, 15*time.Minute, helpers.TestLogger())

			w := httptest.NewRecorder()
			h.LatestReport(w, httptest.NewRequest("GET", "/api/v1/reports/stocking/latest", nil))

			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, key, resp["key"])
				assert.Contains(t, resp["url"], "X-Amz-Signature")
				assert.NotEmpty(t, resp["expires_at"])
			}
		})
	}
}
