package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/orchestrator"
)

// healthService is the subset of *orchestrator.Health used by the HTTP
// handlers.
type healthService interface {
	RunDeepHealth(ctx context.Context) map[string]orchestrator.ProbeResult
}

// Info identifies the role process serving the API.
type Info struct {
	Role      string
	Service   string
	StartedAt time.Time
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type DeepHealthResponse struct {
	Status       string                              `json:"status"`
	Service      string                              `json:"service"`
	Dependencies map[string]orchestrator.ProbeResult `json:"dependencies"`
}

type ReadyResponse struct {
	Ready bool `json:"ready"`
}

type InfoResponse struct {
	Role      string    `json:"role"`
	Service   string    `json:"service"`
	StartedAt time.Time `json:"startedAt"`
}

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	health healthService
	info   Info
	ready  *atomic.Bool
}

// Health handles GET /health.
//
//	@Summary	Shallow health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: h.info.Service})
}

// DeepHealth handles GET /health/deep.
// It probes all 4 backends and returns 200 only when every probe is OK.
//
//	@Summary	Deep health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	DeepHealthResponse
//	@Failure	503	{object}	DeepHealthResponse
//	@Router		/health/deep [get]
func (h *Handler) DeepHealth(c *gin.Context) {
	probes := h.health.RunDeepHealth(c.Request.Context())

	allOK := true
	for _, p := range probes {
		if !p.OK {
			allOK = false
			break
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !allOK {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, DeepHealthResponse{
		Status:       status,
		Service:      h.info.Service,
		Dependencies: probes,
	})
}

// Ready handles GET /ready.
//
//	@Summary	Readiness
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	ReadyResponse
//	@Failure	503	{object}	ReadyResponse
//	@Router		/ready [get]
func (h *Handler) Ready(c *gin.Context) {
	if h.ready.Load() {
		c.JSON(http.StatusOK, ReadyResponse{Ready: true})
		return
	}
	c.JSON(http.StatusServiceUnavailable, ReadyResponse{Ready: false})
}

// Info handles GET /api/v1/info.
//
//	@Summary	Service info
//	@Tags		service
//	@Produce	json
//	@Success	200	{object}	InfoResponse
//	@Router		/api/v1/info [get]
func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Role:      h.info.Role,
		Service:   h.info.Service,
		StartedAt: h.info.StartedAt,
	})
}
