package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	financeapp "github.com/schoolerp/feeledger/internal/application/finance"
	"github.com/schoolerp/feeledger/internal/interfaces/http/dto"
)

// DocumentHandler serves receipts and invoices
type DocumentHandler struct {
	BaseHandler
	service *financeapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(base BaseHandler, service *financeapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{BaseHandler: base, service: service}
}

func (h *DocumentHandler) documentNumber(c *gin.Context, param string) (string, bool) {
	n := strings.TrimSpace(c.Param(param))
	if n == "" || len(n) > 64 {
		h.ValidationError(c, []dto.ValidationDetail{{Field: param, Message: "Invalid document number"}})
		return "", false
	}
	return n, true
}

// GetReceipt godoc
// @ID           getReceipt
// @Summary      Get receipt
// @Description  Get the receipt of a payment by receipt number
// @Tags         documents
// @Produce      json
// @Param        receiptNumber path string true "Receipt number"
// @Success      200 {object} dto.Response{data=finance.Receipt}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/receipts/{receiptNumber} [get]
func (h *DocumentHandler) GetReceipt(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	number, ok := h.documentNumber(c, "receiptNumber")
	if !ok {
		return
	}
	receipt, err := h.service.GetReceipt(c.Request.Context(), tenantID, number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, receipt)
}

// GetReceiptPDF godoc
// @ID           getReceiptPDF
// @Summary      Print receipt
// @Description  Render the receipt as a PDF
// @Tags         documents
// @Produce      application/pdf
// @Param        receiptNumber path string true "Receipt number"
// @Success      200 {file}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Failure      501 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/receipts/{receiptNumber}/pdf [get]
func (h *DocumentHandler) GetReceiptPDF(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	number, ok := h.documentNumber(c, "receiptNumber")
	if !ok {
		return
	}
	pdf, err := h.service.RenderReceiptPDF(c.Request.Context(), tenantID, number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", number+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// GenerateInvoice godoc
// @ID           generateInvoice
// @Summary      Generate invoice
// @Description  Snapshot a student fee ledger into a numbered invoice
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        request body financeapp.GenerateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response{data=finance.Invoice}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/invoices [post]
func (h *DocumentHandler) GenerateInvoice(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	var req financeapp.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	invoice, err := h.service.GenerateInvoice(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetInvoice godoc
// @ID           getInvoice
// @Summary      Get invoice
// @Description  Get an invoice by number
// @Tags         documents
// @Produce      json
// @Param        invoiceNumber path string true "Invoice number"
// @Success      200 {object} dto.Response{data=finance.Invoice}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/invoices/{invoiceNumber} [get]
func (h *DocumentHandler) GetInvoice(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	number, ok := h.documentNumber(c, "invoiceNumber")
	if !ok {
		return
	}
	invoice, err := h.service.GetInvoice(c.Request.Context(), tenantID, number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, invoice)
}
