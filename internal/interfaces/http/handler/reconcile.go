package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kanva/portal/internal/application/reconcile"
)

// ReconcileService runs company and order reconciliation
type ReconcileService interface {
	ReconcileCompanies(ctx context.Context, req reconcile.CompanyRequest) (*reconcile.Result, error)
	ImportOrders(ctx context.Context, req reconcile.OrderRequest) (*reconcile.Result, error)
}

// ReconcileResponse is a reconciliation result with the success flag inlined
type ReconcileResponse struct {
	Success bool `json:"success"`
	*reconcile.Result
}

// ReconcileHandler serves /reconcile
type ReconcileHandler struct {
	BaseHandler
	service ReconcileService
}

// NewReconcileHandler creates a ReconcileHandler
func NewReconcileHandler(service ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{service: service}
}

// Companies links CRM companies to customers.
// POST /api/v1/reconcile/companies
func (h *ReconcileHandler) Companies(c *gin.Context) {
	var req reconcile.CompanyRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.ReconcileCompanies(c.Request.Context(), req)
	h.respond(c, result, err)
}

// Orders imports order-line rows from one source system.
// POST /api/v1/reconcile/orders
func (h *ReconcileHandler) Orders(c *gin.Context) {
	var req reconcile.OrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.ImportOrders(c.Request.Context(), req)
	h.respond(c, result, err)
}

func (h *ReconcileHandler) respond(c *gin.Context, result *reconcile.Result, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ReconcileResponse{Success: true, Result: result})
}
