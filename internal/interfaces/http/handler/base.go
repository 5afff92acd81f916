package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/schoolerp/feeledger/internal/infrastructure/logger"
	"github.com/schoolerp/feeledger/internal/interfaces/http/dto"
	"github.com/schoolerp/feeledger/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

var errMissingIdentity = shared.NewDomainError(shared.CodeUnauthorized, "Authentication required")

// BaseHandler provides common handler utilities
type BaseHandler struct {
	// exposeInternalErrors returns the error text of 500 responses.
	// Only set outside production.
	exposeInternalErrors bool
}

// NewBaseHandler creates the shared handler base for an app environment
func NewBaseHandler(env string) BaseHandler {
	return BaseHandler{exposeInternalErrors: env != "production"}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(logger.GinRequestIDKey)
}

// getTenantID returns the school of the caller from the JWT claims
func getTenantID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.GetJWTTenantID(c))
	if err != nil {
		return uuid.Nil, errMissingIdentity
	}
	return id, nil
}

// getUserID returns the acting user from the JWT claims
func getUserID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.GetJWTUserID(c))
	if err != nil {
		return uuid.Nil, errMissingIdentity
	}
	return id, nil
}

// identity returns school and user, answering 401 itself when either is missing
func (h *BaseHandler) identity(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := getUserID(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, userID, true
}

// tenant returns the caller's school, answering 401 itself when missing
func (h *BaseHandler) tenant(c *gin.Context) (uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return uuid.Nil, false
	}
	return tenantID, true
}

// pathID parses the :id path parameter, answering 400 itself when malformed
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.ValidationError(c, []dto.ValidationDetail{{Field: "id", Message: "Invalid UUID format"}})
		return uuid.Nil, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMessage sends a success response with a message
func (h *BaseHandler) SuccessWithMessage(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMessage(data, message))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// BindError answers a failed ShouldBind* with field details when there
// are some, otherwise with a plain 400.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details, ok := middleware.ValidationDetails(err); ok {
		h.ValidationError(c, details)
		return
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	if errors.Is(err, io.EOF) {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is required")
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Malformed request body")
}

// HandleDomainError converts errors to HTTP responses. Domain errors keep
// their code; anything else is a logged 500.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := dto.GetHTTPStatus(domainErr.Code)
		if status == http.StatusServiceUnavailable {
			c.Header("Retry-After", dto.RetryAfterSeconds)
		}
		if status == http.StatusInternalServerError {
			logger.GetGinLogger(c).Error("Request failed", zap.String("code", domainErr.Code), zap.Error(err))
		}
		h.Error(c, status, domainErr.Code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unexpected error", zap.Error(err))
	_ = c.Error(err)
	message := "An unexpected error occurred"
	if h.exposeInternalErrors {
		message = err.Error()
	}
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// defaultPaging fills in page defaults the way the response meta reports them
func defaultPaging(page, pageSize *int) {
	if *page <= 0 {
		*page = dto.DefaultPage
	}
	if *pageSize <= 0 {
		*pageSize = dto.DefaultPageSize
	}
}
