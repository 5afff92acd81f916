package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	financeapp "github.com/schoolerp/feeledger/internal/application/finance"
	"github.com/schoolerp/feeledger/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader lets clients retry a collection safely
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 200

// PaymentHandler handles fee payment endpoints
type PaymentHandler struct {
	BaseHandler
	service *financeapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(base BaseHandler, service *financeapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{BaseHandler: base, service: service}
}

// Collect godoc
// @ID           collectPayment
// @Summary      Collect payment
// @Description  Record a payment against a student fee and issue a receipt number. A replayed Idempotency-Key answers 200 with the original payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client key for safe retries"
// @Param        request body financeapp.CollectPaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=financeapp.PaymentResponse}
// @Success      200 {object} dto.Response{data=financeapp.PaymentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/payments/collect [post]
func (h *PaymentHandler) Collect(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.ValidationError(c, []dto.ValidationDetail{{Field: IdempotencyKeyHeader, Message: "Must be at most 200 characters"}})
		return
	}
	var req financeapp.CollectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.service.Collect(c.Request.Context(), tenantID, userID, key, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if result.Replayed {
		c.Header("Idempotent-Replayed", "true")
		c.JSON(http.StatusOK, dto.NewSuccessResponseWithMessage(result.Payment, "Payment already collected"))
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponseWithMessage(result.Payment, "Payment collected"))
}

// List godoc
// @ID           listPayments
// @Summary      List payments
// @Description  List collected payments with paging and filters
// @Tags         payments
// @Produce      json
// @Param        filter query financeapp.PaymentListFilter false "Filters and paging"
// @Success      200 {object} dto.Response{data=[]financeapp.PaymentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter financeapp.PaymentListFilter
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
// @ID           getPayment
// @Summary      Get payment
// @Description  Get one payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.PaymentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	payment, err := h.service.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, payment)
}
