package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccrm-api/internal/service"
	"github.com/noah-isme/ccrm-api/pkg/jobs"
	"github.com/noah-isme/ccrm-api/pkg/response"
)

const readyTimeout = 2 * time.Second

type queueStats interface {
	Stats() jobs.Stats
}

// Pinger is a dependency checked by the readiness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	queue   queueStats
	cache   Pinger
}

// NewMetricsHandler constructs a metrics handler. queue and cache may be nil.
func NewMetricsHandler(metrics *service.MetricsService, queue queueStats, cache Pinger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, queue: queue, cache: cache}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 while the export queue is stopped or the cache is unreachable.
func (h *MetricsHandler) Ready(c *gin.Context) {
	checks := gin.H{}
	ready := true
	if h.queue != nil {
		running := h.queue.Stats().Running
		checks["export_queue"] = running
		ready = ready && running
	}
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		err := h.cache.Ping(ctx)
		checks["cache"] = err == nil
		ready = ready && err == nil
	}
	status := http.StatusOK
	label := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		label = "not_ready"
	}
	c.JSON(status, gin.H{"status": label, "checks": checks})
}

// Snapshot returns the JSON summary of service counters.
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	data := gin.H{"service": h.metrics.Snapshot()}
	if h.queue != nil {
		data["export_queue"] = h.queue.Stats()
	}
	response.JSON(c, http.StatusOK, data, nil)
}
