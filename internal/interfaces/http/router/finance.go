package router

import (
	"github.com/gin-gonic/gin"
	"github.com/schoolerp/feeledger/internal/infrastructure/auth"
	"github.com/schoolerp/feeledger/internal/interfaces/http/handler"
	"github.com/schoolerp/feeledger/internal/interfaces/http/middleware"
)

// FinanceHandlers are the handlers mounted under /finance
type FinanceHandlers struct {
	FeeStructures *handler.FeeStructureHandler
	StudentFees   *handler.StudentFeeHandler
	Discounts     *handler.AdjustmentHandler
	Scholarships  *handler.AdjustmentHandler
	Payments      *handler.PaymentHandler
	Refunds       *handler.RefundHandler
	Reports       *handler.ReportHandler
	Documents     *handler.DocumentHandler
	Settings      *handler.SettingsHandler
	Audit         *handler.AuditHandler
}

// NewFinanceRoutes builds the /finance group. Reads need finance:read,
// ledger changes finance:write, and approvals or school-wide runs
// finance:approve.
func NewFinanceRoutes(h FinanceHandlers) *DomainGroup {
	read := middleware.RequirePermission(auth.PermissionFinanceRead)
	write := middleware.RequirePermission(auth.PermissionFinanceWrite)
	approve := middleware.RequirePermission(auth.PermissionFinanceApprove)

	g := NewDomainGroup("finance", "/finance")

	g.POST("/fee-structures", write, h.FeeStructures.Create)
	g.GET("/fee-structures", read, h.FeeStructures.List)
	g.GET("/fee-structures/:id", read, h.FeeStructures.Get)
	g.PUT("/fee-structures/:id", write, h.FeeStructures.Update)
	g.POST("/fee-structures/:id/deactivate", write, h.FeeStructures.Deactivate)

	g.POST("/student-fees", write, h.StudentFees.Create)
	g.POST("/student-fees/bulk", write, h.StudentFees.BulkCreate)
	g.POST("/student-fees/mark-overdue", approve, h.StudentFees.MarkOverdue)
	g.GET("/student-fees", read, h.StudentFees.List)
	g.GET("/student-fees/:id", read, h.StudentFees.Get)

	adjustments := func(prefix string, a *handler.AdjustmentHandler) {
		g.POST(prefix, write, a.Apply)
		g.GET(prefix+"/:id", read, a.Get)
		g.POST(prefix+"/:id/approve", approve, a.Approve)
		g.POST(prefix+"/:id/reject", approve, a.Reject)
	}
	adjustments("/discounts", h.Discounts)
	adjustments("/scholarships", h.Scholarships)

	g.POST("/payments/collect", write, h.Payments.Collect)
	g.GET("/payments", read, h.Payments.List)
	g.GET("/payments/:id", read, h.Payments.Get)

	g.POST("/refunds", write, h.Refunds.Initiate)
	g.GET("/refunds", read, h.Refunds.List)
	g.GET("/refunds/:id", read, h.Refunds.Get)
	g.POST("/refunds/:id/submit", write, h.Refunds.Submit)
	g.POST("/refunds/:id/approve", approve, h.Refunds.Approve)
	g.POST("/refunds/:id/reject", approve, h.Refunds.Reject)
	g.POST("/refunds/:id/process", approve, h.Refunds.Process)
	g.POST("/refunds/:id/complete", approve, h.Refunds.Complete)

	g.GET("/reports/collection-summary", read, h.Reports.CollectionSummary)
	g.GET("/reports/collection-summary/export", read, h.Reports.ExportCollectionSummary)
	g.GET("/reports/dues", read, h.Reports.Dues)

	g.GET("/receipts/:receiptNumber", read, h.Documents.GetReceipt)
	g.GET("/receipts/:receiptNumber/pdf", read, h.Documents.GetReceiptPDF)
	g.POST("/invoices", write, h.Documents.GenerateInvoice)
	g.GET("/invoices/:invoiceNumber", read, h.Documents.GetInvoice)

	g.GET("/settings", read, h.Settings.Get)
	g.PUT("/settings", approve, h.Settings.Update)
	g.GET("/audit-logs", approve, h.Audit.List)
	return g
}

// RegisterHealth mounts the probes outside the versioned API
func RegisterHealth(engine *gin.Engine, h *handler.HealthHandler) {
	engine.GET("/health", h.Health)
	engine.GET("/ready", h.Ready)
}

// APIMiddleware is the authenticated chain of /api/v1
func APIMiddleware(jwtConfig middleware.JWTMiddlewareConfig, profiling bool) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.TracingAttributeInjector(),
		middleware.Profiling(profiling),
	}
}
