package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/schoolerp/feeledger/internal/application/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/cache"
	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence"
	"github.com/schoolerp/feeledger/internal/interfaces/http/dto"
	"github.com/schoolerp/feeledger/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// testEnv serves the finance handlers over an in-memory SQLite ledger.
// Requests act as tenantID/userID unless a test overrides the identity.
type testEnv struct {
	engine   *gin.Engine
	db       *persistence.Database
	tenantID uuid.UUID
	userID   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrateFeeLedger())

	deps := financeapp.Dependencies{
		Scope: persistence.NewGormFeeTransactionScope(db.DB, 5*time.Second, 0),
		Repos: persistence.NewFeeRepositories(db.DB),
	}
	base := NewBaseHandler("development")
	structures := NewFeeStructureHandler(base, financeapp.NewFeeStructureService(deps))
	fees := NewStudentFeeHandler(base, financeapp.NewStudentFeeService(deps))
	discounts := NewDiscountHandler(base, financeapp.NewAdjustmentService(deps))
	scholarships := NewScholarshipHandler(base, financeapp.NewAdjustmentService(deps))
	payments := NewPaymentHandler(base, financeapp.NewPaymentService(deps, cache.NewInMemoryRequestKeyStore()))
	refunds := NewRefundHandler(base, financeapp.NewRefundService(deps))
	reports := NewReportHandler(base, financeapp.NewReportService(persistence.NewGormFeeReportRepository(db.DB), nil))
	documents := NewDocumentHandler(base, financeapp.NewDocumentService(deps, nil, nil))
	settings := NewSettingsHandler(base, financeapp.NewSettingsService(deps))
	audit := NewAuditHandler(base, financeapp.NewAuditService(persistence.NewGormAuditLogRepository(db.DB)))

	env := &testEnv{db: db, tenantID: uuid.New(), userID: uuid.New()}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		tenant, user := env.tenantID.String(), env.userID.String()
		if h := c.GetHeader("X-Test-Tenant"); h != "" {
			tenant = h
		}
		if tenant != "none" {
			c.Set(middleware.JWTTenantIDKey, tenant)
			c.Set(middleware.JWTUserIDKey, user)
		}
		c.Next()
	})

	f := r.Group("/api/v1/finance")
	f.POST("/fee-structures", structures.Create)
	f.GET("/fee-structures", structures.List)
	f.GET("/fee-structures/:id", structures.Get)
	f.PUT("/fee-structures/:id", structures.Update)
	f.POST("/fee-structures/:id/deactivate", structures.Deactivate)
	f.POST("/student-fees", fees.Create)
	f.POST("/student-fees/bulk", fees.BulkCreate)
	f.POST("/student-fees/mark-overdue", fees.MarkOverdue)
	f.GET("/student-fees", fees.List)
	f.GET("/student-fees/:id", fees.Get)
	f.POST("/discounts", discounts.Apply)
	f.POST("/discounts/:id/approve", discounts.Approve)
	f.POST("/scholarships", scholarships.Apply)
	f.GET("/scholarships/:id", scholarships.Get)
	f.POST("/scholarships/:id/approve", scholarships.Approve)
	f.POST("/scholarships/:id/reject", scholarships.Reject)
	f.POST("/payments/collect", payments.Collect)
	f.GET("/payments", payments.List)
	f.GET("/payments/:id", payments.Get)
	f.POST("/refunds", refunds.Initiate)
	f.GET("/refunds/:id", refunds.Get)
	f.POST("/refunds/:id/submit", refunds.Submit)
	f.POST("/refunds/:id/approve", refunds.Approve)
	f.POST("/refunds/:id/reject", refunds.Reject)
	f.GET("/reports/collection-summary", reports.CollectionSummary)
	f.GET("/reports/collection-summary/export", reports.ExportCollectionSummary)
	f.GET("/reports/dues", reports.Dues)
	f.GET("/receipts/:receiptNumber", documents.GetReceipt)
	f.GET("/receipts/:receiptNumber/pdf", documents.GetReceiptPDF)
	f.POST("/invoices", documents.GenerateInvoice)
	f.GET("/invoices/:invoiceNumber", documents.GetInvoice)
	f.GET("/settings", settings.Get)
	f.PUT("/settings", settings.Update)
	f.GET("/audit-logs", audit.List)
	env.engine = r
	return env
}

func (e *testEnv) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, "/api/v1/finance"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Message string          `json:"message"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// createStructure authors a single-component structure of the given total
func (e *testEnv) createStructure(t *testing.T, total string) financeapp.FeeStructureResponse {
	t.Helper()
	w := e.do(http.MethodPost, "/fee-structures", map[string]any{
		"academic_year_id": uuid.New(),
		"name":             "Grade 5 - 2025",
		"due_date":         time.Now().UTC().AddDate(0, 1, 0),
		"components": []map[string]any{
			{"name": "Tuition", "fee_type": "TUITION", "amount": total, "frequency": "ANNUAL"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var fs financeapp.FeeStructureResponse
	decode(t, w, &fs)
	return fs
}

// createStudentFee instantiates a fresh structure for one student
func (e *testEnv) createStudentFee(t *testing.T, total string) financeapp.StudentFeeResponse {
	t.Helper()
	fs := e.createStructure(t, total)
	w := e.do(http.MethodPost, "/student-fees", map[string]any{
		"fee_structure_id": fs.ID,
		"student_id":       uuid.New(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var fee financeapp.StudentFeeResponse
	decode(t, w, &fee)
	return fee
}

func (e *testEnv) collect(t *testing.T, feeID uuid.UUID, amount string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(http.MethodPost, "/payments/collect", map[string]any{
		"student_fee_id": feeID,
		"amount":         amount,
		"method":         "CASH",
	}, headers...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
