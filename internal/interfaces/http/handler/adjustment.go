package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/schoolerp/feeledger/internal/application/finance"
	"github.com/schoolerp/feeledger/internal/domain/finance"
)

// AdjustmentHandler handles discount and scholarship endpoints. The same
// handler type serves both kinds.
type AdjustmentHandler struct {
	BaseHandler
	service *financeapp.AdjustmentService
	kind    finance.AdjustmentKind
}

// NewDiscountHandler creates the handler of /finance/discounts
func NewDiscountHandler(base BaseHandler, service *financeapp.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{BaseHandler: base, service: service, kind: finance.AdjustmentKindDiscount}
}

// NewScholarshipHandler creates the handler of /finance/scholarships
func NewScholarshipHandler(base BaseHandler, service *financeapp.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{BaseHandler: base, service: service, kind: finance.AdjustmentKindScholarship}
}

// Apply godoc
// @ID           applyAdjustment
// @Summary      Apply discount or scholarship
// @Description  Create a discount or a pending scholarship against a student fee
// @Tags         adjustments
// @Accept       json
// @Produce      json
// @Param        request body financeapp.ApplyAdjustmentRequest true "Adjustment"
// @Success      201 {object} dto.Response{data=financeapp.AdjustmentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/discounts [post]
// @Router       /finance/scholarships [post]
func (h *AdjustmentHandler) Apply(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	var req financeapp.ApplyAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	adj, err := h.service.Apply(c.Request.Context(), tenantID, userID, h.kind, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, adj)
}

// Get godoc
// @ID           getAdjustment
// @Summary      Get discount or scholarship
// @Description  Get one discount or scholarship
// @Tags         adjustments
// @Produce      json
// @Param        id path string true "Adjustment ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.AdjustmentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/discounts/{id} [get]
// @Router       /finance/scholarships/{id} [get]
func (h *AdjustmentHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	adj, err := h.service.Get(c.Request.Context(), tenantID, h.kind, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, adj)
}

// Approve godoc
// @ID           approveAdjustment
// @Summary      Approve discount or scholarship
// @Description  Apply a pending adjustment to its student fee ledger
// @Tags         adjustments
// @Produce      json
// @Param        id path string true "Adjustment ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.AdjustmentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/discounts/{id}/approve [post]
// @Router       /finance/scholarships/{id}/approve [post]
func (h *AdjustmentHandler) Approve(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	adj, err := h.service.Approve(c.Request.Context(), tenantID, userID, h.kind, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, adj)
}

// Reject godoc
// @ID           rejectAdjustment
// @Summary      Reject discount or scholarship
// @Description  Close a pending adjustment without touching the ledger
// @Tags         adjustments
// @Accept       json
// @Produce      json
// @Param        id path string true "Adjustment ID" format(uuid)
// @Param        request body financeapp.RejectRequest true "Rejection reason"
// @Success      200 {object} dto.Response{data=financeapp.AdjustmentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/discounts/{id}/reject [post]
// @Router       /finance/scholarships/{id}/reject [post]
func (h *AdjustmentHandler) Reject(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req financeapp.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	adj, err := h.service.Reject(c.Request.Context(), tenantID, userID, h.kind, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, adj)
}
