// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/fieldservice-be/internal/core/ports"
)

// QueueInspector reports asynq queue state; satisfied by *asynq.Inspector
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	responder
	db          ports.Database
	cache       ports.CacheRepository
	queues      QueueInspector
	version     string
	environment string
	logger      *slog.Logger
	startTime   time.Time
}

// NewHealthHandler creates a new health handler. queues may be nil.
func NewHealthHandler(
	database ports.Database,
	cache ports.CacheRepository,
	queues QueueInspector,
	version, environment string,
	logger *slog.Logger,
) *HealthHandler {
	l := logger.With(slog.String("handler", "health"))
	return &HealthHandler{
		responder:   responder{logger: l},
		db:          database,
		cache:       cache,
		queues:      queues,
		version:     version,
		environment: environment,
		logger:      l,
		startTime:   time.Now(),
	}
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo represents system-level information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

// Health handles GET /health. Postgres being down is fatal; the cache and
// queue only degrade the service since pricing keeps working without them.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      "healthy",
		Version:     h.version,
		Environment: h.environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    make(map[string]ServiceInfo),
		System:      systemInfo(),
	}

	database := h.checkDatabase(ctx)
	health.Services["database"] = database

	cache := h.checkCache(ctx)
	health.Services["redis"] = cache
	if cache.Status != "healthy" {
		health.Status = "degraded"
	}

	if h.queues != nil {
		queues := h.checkQueues(ctx)
		health.Services["asynq"] = queues
		if queues.Status != "healthy" {
			health.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if database.Status != "healthy" {
		health.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.respondJSON(w, statusCode, health)
}

// Readiness handles GET /ready
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string)

	if err := h.db.Ping(ctx); err != nil {
		ready = false
		details["database"] = "not ready"
	} else {
		details["database"] = "ready"
	}

	if err := h.cache.Ping(ctx); err != nil {
		details["redis"] = "degraded"
	} else {
		details["redis"] = "ready"
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.respondJSON(w, statusCode, map[string]interface{}{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{
		Status:  "healthy",
		Details: make(map[string]interface{}),
	}

	if err := h.db.Ping(ctx); err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return info
	}

	for k, v := range h.db.Health(ctx) {
		info.Details[k] = v
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

func (h *HealthHandler) checkCache(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: "healthy"}

	if err := h.cache.Ping(ctx); err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.WarnContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return info
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

func (h *HealthHandler) checkQueues(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{
		Status:  "healthy",
		Details: make(map[string]interface{}),
	}

	queues, err := h.queues.Queues()
	if err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.WarnContext(ctx, "asynq health check failed",
			slog.String("error", err.Error()))
		return info
	}

	for _, queue := range queues {
		qInfo, err := h.queues.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		info.Details[queue] = map[string]interface{}{
			"size":     qInfo.Size,
			"active":   qInfo.Active,
			"pending":  qInfo.Pending,
			"retry":    qInfo.Retry,
			"archived": qInfo.Archived,
			"paused":   qInfo.Paused,
		}
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

func systemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemoryAllocMB: memStats.Alloc / 1024 / 1024,
		NumGC:         memStats.NumGC,
	}
}
