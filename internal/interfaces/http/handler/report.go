package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	financeapp "github.com/schoolerp/feeledger/internal/application/finance"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles collection and dues reports
type ReportHandler struct {
	BaseHandler
	service *financeapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(base BaseHandler, service *financeapp.ReportService) *ReportHandler {
	return &ReportHandler{BaseHandler: base, service: service}
}

// CollectionSummary godoc
// @ID           getCollectionSummary
// @Summary      Collection summary
// @Description  Totals collected in a date range, grouped by method and day
// @Tags         reports
// @Produce      json
// @Param        query query financeapp.CollectionSummaryQuery false "Date range"
// @Success      200 {object} dto.Response{data=finance.CollectionSummary}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/reports/collection-summary [get]
func (h *ReportHandler) CollectionSummary(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q financeapp.CollectionSummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	summary, err := h.service.CollectionSummary(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}

// ExportCollectionSummary godoc
// @ID           exportCollectionSummary
// @Summary      Export collection summary
// @Description  Download the collection summary as an Excel workbook
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        query query financeapp.CollectionSummaryQuery false "Date range"
// @Success      200 {file}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Failure      501 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/reports/collection-summary/export [get]
func (h *ReportHandler) ExportCollectionSummary(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q financeapp.CollectionSummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	data, filename, err := h.service.ExportCollectionSummary(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Dues godoc
// @ID           getDuesSummary
// @Summary      Dues summary
// @Description  Outstanding balances of the school, overdue first
// @Tags         reports
// @Produce      json
// @Param        query query financeapp.DuesSummaryQuery false "Filters"
// @Success      200 {object} dto.Response{data=finance.DuesSummary}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/reports/dues [get]
func (h *ReportHandler) Dues(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q financeapp.DuesSummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	summary, err := h.service.DuesSummary(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}
