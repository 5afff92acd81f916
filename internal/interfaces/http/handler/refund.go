package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/schoolerp/feeledger/internal/application/finance"
)

// RefundHandler handles refund endpoints
type RefundHandler struct {
	BaseHandler
	service *financeapp.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(base BaseHandler, service *financeapp.RefundService) *RefundHandler {
	return &RefundHandler{BaseHandler: base, service: service}
}

// Initiate godoc
// @ID           initiateRefund
// @Summary      Initiate refund
// @Description  Start a refund against a payment
// @Tags         refunds
// @Accept       json
// @Produce      json
// @Param        request body financeapp.InitiateRefundRequest true "Refund"
// @Success      201 {object} dto.Response{data=financeapp.RefundResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/refunds [post]
func (h *RefundHandler) Initiate(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	var req financeapp.InitiateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	refund, err := h.service.Initiate(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, refund)
}

// List godoc
// @ID           listRefunds
// @Summary      List refunds
// @Description  List refunds with paging and filters
// @Tags         refunds
// @Produce      json
// @Param        filter query financeapp.RefundListFilter false "Filters and paging"
// @Success      200 {object} dto.Response{data=[]financeapp.RefundResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/refunds [get]
func (h *RefundHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter financeapp.RefundListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	defaultPaging(&filter.Page, &filter.PageSize)

	items, total, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getRefund
// @Summary      Get refund
// @Description  Get one refund
// @Tags         refunds
// @Produce      json
// @Param        id path string true "Refund ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.RefundResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/refunds/{id} [get]
func (h *RefundHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	refund, err := h.service.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, refund)
}

type refundTransition func(ctx context.Context, tenantID, userID, id uuid.UUID) (*financeapp.RefundResponse, error)

func (h *RefundHandler) transition(c *gin.Context, fn refundTransition) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	refund, err := fn(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, refund)
}

// Submit godoc
// @ID           submitRefund
// @Summary      Submit refund
// @Description  Send an initiated refund for approval
// @Tags         refunds
// @Produce      json
// @Param        id path string true "Refund ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.RefundResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/refunds/{id}/submit [post]
func (h *RefundHandler) Submit(c *gin.Context) { h.transition(c, h.service.Submit) }

// Approve godoc
// @ID           approveRefund
// @Summary      Approve refund
// @Description  Approve a refund after re-checking the refundable amount of its payment
// @Tags         refunds
// @Produce      json
// @Param        id path string true "Refund ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.RefundResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/refunds/{id}/approve [post]
func (h *RefundHandler) Approve(c *gin.Context) { h.transition(c, h.service.Approve) }

// Process godoc
// @ID           processRefund
// @Summary      Process refund
// @Description  Mark an approved refund as paid out
// @Tags         refunds
// @Produce      json
// @Param        id path string true "Refund ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.RefundResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/refunds/{id}/process [post]
func (h *RefundHandler) Process(c *gin.Context) { h.transition(c, h.service.Process) }

// Complete godoc
// @ID           completeRefund
// @Summary      Complete refund
// @Description  Close a processed refund
// @Tags         refunds
// @Produce      json
// @Param        id path string true "Refund ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.RefundResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/refunds/{id}/complete [post]
func (h *RefundHandler) Complete(c *gin.Context) { h.transition(c, h.service.Complete) }

// Reject godoc
// @ID           rejectRefund
// @Summary      Reject refund
// @Description  Reject a refund that has not been approved
// @Tags         refunds
// @Accept       json
// @Produce      json
// @Param        id path string true "Refund ID" format(uuid)
// @Param        request body financeapp.RejectRequest true "Rejection reason"
// @Success      200 {object} dto.Response{data=financeapp.RefundResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/refunds/{id}/reject [post]
func (h *RefundHandler) Reject(c *gin.Context) {
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
	refund, err := h.service.Reject(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, refund)
}
