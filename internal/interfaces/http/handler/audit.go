package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/schoolerp/feeledger/internal/application/finance"
)

// AuditHandler exposes the finance audit trail
type AuditHandler struct {
	BaseHandler
	service *financeapp.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(base BaseHandler, service *financeapp.AuditService) *AuditHandler {
	return &AuditHandler{BaseHandler: base, service: service}
}

// List godoc
// @ID           listAuditLogs
// @Summary      List audit logs
// @Description  List the finance audit trail of the school
// @Tags         audit
// @Produce      json
// @Param        filter query financeapp.AuditLogListFilter false "Filters and paging"
// @Success      200 {object} dto.Response{data=[]finance.AuditLog}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter financeapp.AuditLogListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	defaultPaging(&filter.Page, &filter.PageSize)

	logs, total, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, logs, total, filter.Page, filter.PageSize)
}
