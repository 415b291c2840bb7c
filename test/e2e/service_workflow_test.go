//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/fieldservice-be/internal/adapters/db"
	"github.com/ammerola/fieldservice-be/internal/adapters/redis_adapter"
	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/internal/core/services"
	"github.com/ammerola/fieldservice-be/internal/handlers"
	"github.com/ammerola/fieldservice-be/internal/handlers/middleware"
	"github.com/ammerola/fieldservice-be/test/helpers"
)

type ServiceWorkflowSuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	testDB    *helpers.TestDB
	testRedis *helpers.TestRedis
	repo      ports.PartRepository
}

func (s *ServiceWorkflowSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *ServiceWorkflowSuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.testRedis.Server.FlushAll()
}

func (s *ServiceWorkflowSuite) TearDownSuite() {
	s.server.Close()
}

func (s *ServiceWorkflowSuite) TestPriceStandardServiceCall() {
	req := map[string]interface{}{
		"items":        helpers.CreateTestLineItems(),
		"jurisdiction": map[string]string{"state": "WY"},
	}

	resp := s.makeRequest("POST", "/pricing/calculate", req)
	s.Equal(http.StatusOK, resp.StatusCode)

	var priced ports.InvoicePricing
	s.decodeResponse(resp, &priced)
	s.True(decimal.RequireFromString("327.10").Equal(priced.Calculation.Subtotal))
	s.True(decimal.RequireFromString("13.084").Equal(priced.Calculation.TaxAmount))
	s.True(decimal.RequireFromString("340.184").Equal(priced.Calculation.Total))
}

func (s *ServiceWorkflowSuite) TestJobCompletionFeedsStockingAnalytics() {
	part := helpers.CreateTestPart()
	s.Require().NoError(s.repo.UpsertPart(s.T().Context(), part))

	// cold read caches the no-history answer
	resp := s.makeRequest("GET", "/parts/"+part.PartNumber+"/stocking-score", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var before handlers.StockingScoreResponse
	s.decodeResponse(resp, &before)
	s.Equal(domain.StockingNoData, before.Result.Recommendation)

	now := time.Now().UTC()
	for i := 0; i < 12; i++ {
		job := map[string]interface{}{
			"id":           fmt.Sprintf("E2E-%03d", i),
			"completed_at": now.AddDate(0, 0, -7*i),
			"parts_used": []map[string]interface{}{
				{"part_number": part.PartNumber, "quantity": 1, "unit_cost": "18.50"},
			},
		}
		resp := s.makeRequest("POST", "/jobs", job)
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	// job completion dropped the cached score
	resp = s.makeRequest("GET", "/parts/"+part.PartNumber+"/stocking-score", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var after handlers.StockingScoreResponse
	s.decodeResponse(resp, &after)
	s.NotEqual(domain.StockingNoData, after.Result.Recommendation)
	s.Greater(after.Result.Score, 0.0)

	resp = s.makeRequest("GET", "/parts/"+part.PartNumber+"/min-stock", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var minStock handlers.MinStockResponse
	s.decodeResponse(resp, &minStock)
	s.GreaterOrEqual(minStock.Recommendation.Value, 1)
	s.Equal(domain.ConfidenceHigh, minStock.Recommendation.Confidence)
}

func (s *ServiceWorkflowSuite) TestRetriedJobCompletionRecordsUsageOnce() {
	part := helpers.CreateTestPart()
	s.Require().NoError(s.repo.UpsertPart(s.T().Context(), part))

	job := map[string]interface{}{
		"id": "E2E-RETRY",
		"parts_used": []map[string]interface{}{
			{"part_number": part.PartNumber, "quantity": 1, "unit_cost": "18.50"},
			{"part_number": part.PartNumber, "quantity": 2, "unit_cost": "18.50"},
		},
	}
	for i := 0; i < 2; i++ {
		resp := s.makeRequest("POST", "/jobs", job)
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	usage, err := s.repo.GetUsageTransactions(s.T().Context(), part.PartNumber, time.Time{})
	s.Require().NoError(err)
	s.Len(usage, 2)
}

func (s *ServiceWorkflowSuite) TestUnknownPart() {
	resp := s.makeRequest("GET", "/parts/NOPE/min-stock", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *ServiceWorkflowSuite) TestListPartsAndSnapshot() {
	parts := helpers.CreateTestParts(3)
	parts[1].AutoReplenish = false
	for i := range parts {
		s.Require().NoError(s.repo.UpsertPart(s.T().Context(), &parts[i]))
	}

	resp := s.makeRequest("GET", "/parts?auto_replenish=true", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var list map[string]interface{}
	s.decodeResponse(resp, &list)
	s.EqualValues(2, list["count"])

	resp = s.makeRequest("GET", "/replenishment/snapshot", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var snapshot map[string]interface{}
	s.decodeResponse(resp, &snapshot)
	s.EqualValues(3, snapshot["count"])
}

func (s *ServiceWorkflowSuite) TestConcurrentPricing() {
	var wg sync.WaitGroup
	statuses := make(chan int, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := s.makeRequest("POST", "/pricing/calculate", map[string]interface{}{
				"items": helpers.CreateTestLineItems(),
			})
			statuses <- resp.StatusCode
			resp.Body.Close()
		}()
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		s.Equal(http.StatusOK, status)
	}
}

func (s *ServiceWorkflowSuite) TestHealthCheck() {
	resp := s.makeRequest("GET", "/health", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	s.decodeResponse(resp, &health)
	s.Equal("healthy", health["status"])

	services := health["services"].(map[string]interface{})
	s.Contains(services, "database")
	s.Contains(services, "redis")
}

func (s *ServiceWorkflowSuite) startTestServer() *httptest.Server {
	log := helpers.TestLogger()
	s.repo = db.NewPartRepository(s.testDB.Database, log)

	cache := redis_adapter.NewCache(s.testRedis.Client, time.Minute, log)
	replenishment := services.NewReplenishmentService(
		s.repo, domain.DefaultReplenishmentPolicy(), domain.DefaultScoringPolicy(), log)

	pricing := handlers.NewPricingHandler(services.NewPricingService(nil, nil, log), log)
	parts := handlers.NewPartsHandler(replenishment, s.repo, cache,
		redis_adapter.NewInvalidator(cache, log), time.Minute, log)
	health := handlers.NewHealthHandler(s.testDB.Database, cache, nil, "e2e", "test", log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", health.Health)
	mux.HandleFunc("POST /api/v1/pricing/calculate", pricing.Calculate)
	mux.HandleFunc("GET /api/v1/parts", parts.ListParts)
	mux.HandleFunc("GET /api/v1/parts/{partNumber}/min-stock", parts.MinStock)
	mux.HandleFunc("GET /api/v1/parts/{partNumber}/stocking-score", parts.StockingScore)
	mux.HandleFunc("POST /api/v1/jobs", parts.CompleteJob)
	mux.HandleFunc("GET /api/v1/replenishment/snapshot", parts.Snapshot)

	return httptest.NewServer(middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Recovery(log),
	))
}

func (s *ServiceWorkflowSuite) makeRequest(method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	s.NoError(err)

	return resp
}

func (s *ServiceWorkflowSuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	s.NoError(err)
}

func TestServiceWorkflowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(ServiceWorkflowSuite))
}
