package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	metricsapp "github.com/kanva/portal/internal/application/metrics"
)

// MetricsService recomputes customer metrics
type MetricsService interface {
	Refresh(ctx context.Context, req metricsapp.RefreshRequest) (*metricsapp.RefreshResult, error)
}

// RefreshResponse is a refresh result with the success flag inlined
type RefreshResponse struct {
	Success bool `json:"success"`
	*metricsapp.RefreshResult
}

// MetricsHandler serves /metrics
type MetricsHandler struct {
	BaseHandler
	service MetricsService
}

// NewMetricsHandler creates a MetricsHandler
func NewMetricsHandler(service MetricsService) *MetricsHandler {
	return &MetricsHandler{service: service}
}

// Refresh re-aggregates customer metrics; an empty body refreshes everyone.
// POST /api/v1/metrics/refresh
func (h *MetricsHandler) Refresh(c *gin.Context) {
	var req metricsapp.RefreshRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, RefreshResponse{Success: true, RefreshResult: result})
}
