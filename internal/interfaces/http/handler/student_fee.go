package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	financeapp "github.com/schoolerp/feeledger/internal/application/finance"
)

// StudentFeeHandler handles student fee ledger endpoints
type StudentFeeHandler struct {
	BaseHandler
	service *financeapp.StudentFeeService
}

// NewStudentFeeHandler creates a new StudentFeeHandler
func NewStudentFeeHandler(base BaseHandler, service *financeapp.StudentFeeService) *StudentFeeHandler {
	return &StudentFeeHandler{BaseHandler: base, service: service}
}

// Create godoc
// @ID           createStudentFee
// @Summary      Assign fee to student
// @Description  Instantiate a student fee ledger from a fee structure
// @Tags         student-fees
// @Accept       json
// @Produce      json
// @Param        request body financeapp.CreateStudentFeeRequest true "Assignment"
// @Success      201 {object} dto.Response{data=financeapp.StudentFeeResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/student-fees [post]
func (h *StudentFeeHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	var req financeapp.CreateStudentFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	fee, err := h.service.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, fee)
}

// BulkCreate godoc
// @ID           bulkCreateStudentFees
// @Summary      Assign fee to many students
// @Description  Instantiate ledgers for many students; students that already have the structure are skipped
// @Tags         student-fees
// @Accept       json
// @Produce      json
// @Param        request body financeapp.BulkCreateStudentFeesRequest true "Assignments"
// @Success      201 {object} dto.Response{data=financeapp.BulkCreateStudentFeesResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/student-fees/bulk [post]
func (h *StudentFeeHandler) BulkCreate(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	var req financeapp.BulkCreateStudentFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.service.BulkCreate(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, result)
}

// List godoc
// @ID           listStudentFees
// @Summary      List student fees
// @Description  List student fee ledgers with paging and filters
// @Tags         student-fees
// @Produce      json
// @Param        filter query financeapp.StudentFeeListFilter false "Filters and paging"
// @Success      200 {object} dto.Response{data=[]financeapp.StudentFeeResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/student-fees [get]
func (h *StudentFeeHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter financeapp.StudentFeeListFilter
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
// @ID           getStudentFee
// @Summary      Get student fee
// @Description  Get a student fee ledger with its payments and adjustments
// @Tags         student-fees
// @Produce      json
// @Param        id path string true "Student fee ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.StudentFeeDetailResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/student-fees/{id} [get]
func (h *StudentFeeHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	fee, err := h.service.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, fee)
}

// MarkOverdue godoc
// @ID           markStudentFeesOverdue
// @Summary      Mark overdue fees
// @Description  Flag unpaid fees of the caller's school whose due date has passed
// @Tags         student-fees
// @Produce      json
// @Success      200 {object} dto.Response{data=financeapp.MarkOverdueResult}
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /finance/student-fees/mark-overdue [post]
func (h *StudentFeeHandler) MarkOverdue(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	result, err := h.service.MarkOverdue(c.Request.Context(), &tenantID, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMessage(c, result, fmt.Sprintf("%d fees marked overdue", result.Marked))
}
