package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/schoolerp/feeledger/internal/application/finance"
)

// FeeStructureHandler handles fee structure endpoints
type FeeStructureHandler struct {
	BaseHandler
	service *financeapp.FeeStructureService
}

// NewFeeStructureHandler creates a new FeeStructureHandler
func NewFeeStructureHandler(base BaseHandler, service *financeapp.FeeStructureService) *FeeStructureHandler {
	return &FeeStructureHandler{BaseHandler: base, service: service}
}

// Create godoc
// @ID           createFeeStructure
// @Summary      Create fee structure
// @Description  Create a fee structure with its components and installments
// @Tags         fee-structures
// @Accept       json
// @Produce      json
// @Param        request body financeapp.CreateFeeStructureRequest true "Fee structure"
// @Success      201 {object} dto.Response{data=financeapp.FeeStructureResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/fee-structures [post]
func (h *FeeStructureHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	var req financeapp.CreateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	fs, err := h.service.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, fs)
}

// List godoc
// @ID           listFeeStructures
// @Summary      List fee structures
// @Description  List fee structures of the school with paging and filters
// @Tags         fee-structures
// @Produce      json
// @Param        filter query financeapp.FeeStructureListFilter false "Filters and paging"
// @Success      200 {object} dto.Response{data=[]financeapp.FeeStructureResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/fee-structures [get]
func (h *FeeStructureHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter financeapp.FeeStructureListFilter
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
// @ID           getFeeStructure
// @Summary      Get fee structure
// @Description  Get a fee structure with its components
// @Tags         fee-structures
// @Produce      json
// @Param        id path string true "Fee structure ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.FeeStructureResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/fee-structures/{id} [get]
func (h *FeeStructureHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	fs, err := h.service.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, fs)
}

// Update godoc
// @ID           updateFeeStructure
// @Summary      Update fee structure
// @Description  Update a fee structure that no student fee uses yet
// @Tags         fee-structures
// @Accept       json
// @Produce      json
// @Param        id path string true "Fee structure ID" format(uuid)
// @Param        request body financeapp.UpdateFeeStructureRequest true "Changes"
// @Success      200 {object} dto.Response{data=financeapp.FeeStructureResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/fee-structures/{id} [put]
func (h *FeeStructureHandler) Update(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req financeapp.UpdateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	fs, err := h.service.Update(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, fs)
}

// Deactivate godoc
// @ID           deactivateFeeStructure
// @Summary      Deactivate fee structure
// @Description  Stop a fee structure from being assigned to new students
// @Tags         fee-structures
// @Produce      json
// @Param        id path string true "Fee structure ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.FeeStructureResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/fee-structures/{id}/deactivate [post]
func (h *FeeStructureHandler) Deactivate(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	fs, err := h.service.Deactivate(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMessage(c, fs, "Fee structure deactivated")
}
