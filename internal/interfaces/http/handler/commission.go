package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	commissionapp "github.com/kanva/portal/internal/application/commission"
	"github.com/kanva/portal/internal/domain/commission"
)

// CommissionService runs the monthly calculator and the bucket engine
type CommissionService interface {
	CalculateMonthly(ctx context.Context, req commissionapp.MonthlyRequest) (*commissionapp.MonthlyResult, error)
	CalculateQuarterly(ctx context.Context, req commissionapp.QuarterlyRequest) (*commissionapp.QuarterlyResult, error)
	Preview(req commissionapp.PreviewRequest) (commission.Result, error)
}

// MonthlyResponse is a monthly run with the success flag inlined
type MonthlyResponse struct {
	Success bool `json:"success"`
	*commissionapp.MonthlyResult
}

// QuarterlyResponse is a bucket engine run with the success flag inlined
type QuarterlyResponse struct {
	Success bool `json:"success"`
	*commissionapp.QuarterlyResult
}

// CommissionHandler serves /commissions
type CommissionHandler struct {
	BaseHandler
	service CommissionService
}

// NewCommissionHandler creates a CommissionHandler
func NewCommissionHandler(service CommissionService) *CommissionHandler {
	return &CommissionHandler{service: service}
}

// Monthly calculates order commissions and spiffs for one month.
// POST /api/v1/commissions/monthly
func (h *CommissionHandler) Monthly(c *gin.Context) {
	var req commissionapp.MonthlyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.CalculateMonthly(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, MonthlyResponse{Success: true, MonthlyResult: result})
}

// Quarterly scores one rep's buckets for a period and stores the entries.
// POST /api/v1/commissions/quarterly
func (h *CommissionHandler) Quarterly(c *gin.Context) {
	var req commissionapp.QuarterlyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.CalculateQuarterly(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, QuarterlyResponse{Success: true, QuarterlyResult: result})
}

// Preview computes a payout from posted actuals and goals without storing it.
// POST /api/v1/commissions/preview
func (h *CommissionHandler) Preview(c *gin.Context) {
	var req commissionapp.PreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.Preview(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
