package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/schoolerp/feeledger/internal/application/finance"
)

// SettingsHandler handles per-school finance settings
type SettingsHandler struct {
	BaseHandler
	service *financeapp.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(base BaseHandler, service *financeapp.SettingsService) *SettingsHandler {
	return &SettingsHandler{BaseHandler: base, service: service}
}

// Get godoc
// @ID           getFinanceSettings
// @Summary      Get finance settings
// @Description  Get the school's numbering prefixes, padding and currency
// @Tags         settings
// @Produce      json
// @Success      200 {object} dto.Response{data=finance.FinanceSettings}
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	settings, err := h.service.Get(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, settings)
}

// Update godoc
// @ID           updateFinanceSettings
// @Summary      Update finance settings
// @Description  Change prefixes, padding or currency. Counters are not writable
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request body financeapp.UpdateSettingsRequest true "Settings"
// @Success      200 {object} dto.Response{data=finance.FinanceSettings}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	var req financeapp.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	settings, err := h.service.Update(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMessage(c, settings, "Settings updated")
}
