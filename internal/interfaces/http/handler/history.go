package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	historyapp "github.com/kanva/portal/internal/application/history"
)

// HistoryService reads the log of past runs
type HistoryService interface {
	List(ctx context.Context, req historyapp.ListRequest) ([]historyapp.RunView, error)
	Get(ctx context.Context, id string) (*historyapp.RunView, error)
}

// HistoryHandler serves /runs
type HistoryHandler struct {
	BaseHandler
	service HistoryService
}

// NewHistoryHandler creates a HistoryHandler
func NewHistoryHandler(service HistoryService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// List returns recent runs, newest first.
// GET /api/v1/runs?job=&status=&since=2006-01-02&limit=
func (h *HistoryHandler) List(c *gin.Context) {
	var req historyapp.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	runs, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, runs)
}

// Get returns one run
// GET /api/v1/runs/:id
func (h *HistoryHandler) Get(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}
