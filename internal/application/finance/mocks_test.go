package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockFeeStructureRepository struct {
	mock.Mock
}

func (m *MockFeeStructureRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.FeeStructure, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.FeeStructureFilter) ([]finance.FeeStructure, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]finance.FeeStructure), args.Get(1).(int64), args.Error(2)
}

func (m *MockFeeStructureRepository) Save(ctx context.Context, fs *finance.FeeStructure) error {
	return m.Called(ctx, fs).Error(0)
}

func (m *MockFeeStructureRepository) IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

type MockStudentFeeRepository struct {
	mock.Mock
}

func (m *MockStudentFeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.StudentFee, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.StudentFee, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.StudentFeeFilter) ([]finance.StudentFee, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]finance.StudentFee), args.Get(1).(int64), args.Error(2)
}

func (m *MockStudentFeeRepository) ExistsForStudent(ctx context.Context, tenantID, studentID, feeStructureID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, studentID, feeStructureID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStudentFeeRepository) Create(ctx context.Context, fee *finance.StudentFee) error {
	return m.Called(ctx, fee).Error(0)
}

func (m *MockStudentFeeRepository) SaveWithLock(ctx context.Context, fee *finance.StudentFee) error {
	return m.Called(ctx, fee).Error(0)
}

func (m *MockStudentFeeRepository) MarkOverdue(ctx context.Context, tenantID *uuid.UUID, now time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockAdjustmentRepository struct {
	mock.Mock
}

func (m *MockAdjustmentRepository) FindByIDForTenant(ctx context.Context, tenantID uuid.UUID, kind finance.AdjustmentKind, id uuid.UUID) (*finance.Adjustment, error) {
	args := m.Called(ctx, tenantID, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) FindByIDForUpdate(ctx context.Context, tenantID uuid.UUID, kind finance.AdjustmentKind, id uuid.UUID) (*finance.Adjustment, error) {
	args := m.Called(ctx, tenantID, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) FindByStudentFee(ctx context.Context, tenantID, studentFeeID uuid.UUID) ([]finance.Adjustment, error) {
	args := m.Called(ctx, tenantID, studentFeeID)
	return args.Get(0).([]finance.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) Create(ctx context.Context, a *finance.Adjustment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAdjustmentRepository) SaveWithLock(ctx context.Context, a *finance.Adjustment) error {
	return m.Called(ctx, a).Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*finance.Payment, error) {
	args := m.Called(ctx, tenantID, receiptNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.PaymentFilter) ([]finance.Payment, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]finance.Payment), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentRepository) FindByStudentFee(ctx context.Context, tenantID, studentFeeID uuid.UUID) ([]finance.Payment, error) {
	args := m.Called(ctx, tenantID, studentFeeID)
	return args.Get(0).([]finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *finance.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) SumByStudentFee(ctx context.Context, tenantID, studentFeeID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, studentFeeID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockRefundRepository struct {
	mock.Mock
}

func (m *MockRefundRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.Refund, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Refund), args.Error(1)
}

func (m *MockRefundRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Refund, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Refund), args.Error(1)
}

func (m *MockRefundRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.RefundFilter) ([]finance.Refund, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]finance.Refund), args.Get(1).(int64), args.Error(2)
}

func (m *MockRefundRepository) Create(ctx context.Context, r *finance.Refund) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRefundRepository) SaveWithLock(ctx context.Context, r *finance.Refund) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRefundRepository) SumCommittedByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, paymentID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *finance.Invoice) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*finance.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Invoice), args.Error(1)
}

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context, tenantID uuid.UUID) (*finance.FinanceSettings, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.FinanceSettings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, s *finance.FinanceSettings) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSettingsRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, kind finance.SequenceKind) (string, error) {
	args := m.Called(ctx, tenantID, kind)
	return args.String(0), args.Error(1)
}

// MockAuditLogRepository records appended entries
type MockAuditLogRepository struct {
	mock.Mock
	entries []*finance.AuditLog
}

func (m *MockAuditLogRepository) Append(ctx context.Context, entries ...*finance.AuditLog) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *MockAuditLogRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.AuditLogFilter) ([]finance.AuditLog, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]finance.AuditLog), args.Get(1).(int64), args.Error(2)
}

func (m *MockAuditLogRepository) actions() []finance.AuditAction {
	out := make([]finance.AuditAction, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}

// MockTransactionScope runs fn directly with the mock repositories. committed
// counts calls whose fn returned nil.
type MockTransactionScope struct {
	repos     finance.Repositories
	committed int
}

func (s *MockTransactionScope) Execute(ctx context.Context, fn func(repos finance.Repositories) error) error {
	if err := fn(s.repos); err != nil {
		return err
	}
	s.committed++
	return nil
}

// MockEventPublisher collects published events
type MockEventPublisher struct {
	events []shared.DomainEvent
}

func (p *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *MockEventPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type MockFeeMetrics struct {
	mock.Mock
}

func (m *MockFeeMetrics) RecordPaymentCollected(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	m.Called(ctx, tenantID, method, amount)
}

func (m *MockFeeMetrics) RecordRefundApproved(ctx context.Context, tenantID uuid.UUID, amount decimal.Decimal) {
	m.Called(ctx, tenantID, amount)
}

func (m *MockFeeMetrics) RecordAdjustmentApproved(ctx context.Context, tenantID uuid.UUID, kind string) {
	m.Called(ctx, tenantID, kind)
}

func (m *MockFeeMetrics) RecordMarkedOverdue(ctx context.Context, count int64) {
	m.Called(ctx, count)
}

type MockRequestKeyStore struct {
	mock.Mock
}

func (m *MockRequestKeyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *MockRequestKeyStore) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockRequestKeyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockRequestKeyStore) Close() error {
	return m.Called().Error(0)
}

// =============================================================================
// Fixture
// =============================================================================

type fixture struct {
	tenantID   uuid.UUID
	userID     uuid.UUID
	structures *MockFeeStructureRepository
	fees       *MockStudentFeeRepository
	adjs       *MockAdjustmentRepository
	payments   *MockPaymentRepository
	refunds    *MockRefundRepository
	invoices   *MockInvoiceRepository
	settings   *MockSettingsRepository
	audits     *MockAuditLogRepository
	scope      *MockTransactionScope
	publisher  *MockEventPublisher
	metrics    *MockFeeMetrics
}

func newFixture() *fixture {
	f := &fixture{
		tenantID:   uuid.New(),
		userID:     uuid.New(),
		structures: new(MockFeeStructureRepository),
		fees:       new(MockStudentFeeRepository),
		adjs:       new(MockAdjustmentRepository),
		payments:   new(MockPaymentRepository),
		refunds:    new(MockRefundRepository),
		invoices:   new(MockInvoiceRepository),
		settings:   new(MockSettingsRepository),
		audits:     new(MockAuditLogRepository),
		publisher:  new(MockEventPublisher),
		metrics:    new(MockFeeMetrics),
	}
	f.scope = &MockTransactionScope{repos: f.repos()}
	return f
}

func (f *fixture) repos() finance.Repositories {
	return finance.Repositories{
		FeeStructures: f.structures,
		StudentFees:   f.fees,
		Adjustments:   f.adjs,
		Payments:      f.payments,
		Refunds:       f.refunds,
		Invoices:      f.invoices,
		Settings:      f.settings,
		AuditLogs:     f.audits,
	}
}

func (f *fixture) deps(opts Options) Dependencies {
	return Dependencies{
		Scope:          f.scope,
		Repos:          f.repos(),
		EventPublisher: f.publisher,
		Metrics:        f.metrics,
		Options:        opts,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newStructure builds an active structure of the given total
func (f *fixture) newStructure(total string) *finance.FeeStructure {
	due := time.Now().AddDate(0, 1, 0)
	fs, err := finance.NewFeeStructure(f.tenantID, uuid.New(), nil, "Grade 5 - 2025", "", &due, []finance.ComponentInput{
		{Name: "Tuition", FeeType: finance.FeeTypeTuition, Amount: dec(total), Frequency: finance.FrequencyAnnual, IsMandatory: true},
	})
	if err != nil {
		panic(err)
	}
	fs.ClearDomainEvents()
	return fs
}

// newFee builds a PENDING student fee of the given total
func (f *fixture) newFee(total string) *finance.StudentFee {
	sf, err := finance.NewStudentFee(f.newStructure(total), uuid.New(), nil, decimal.Zero, nil)
	if err != nil {
		panic(err)
	}
	sf.ClearDomainEvents()
	return sf
}

// newPayment builds a payment of amount already applied to a fee of total
func (f *fixture) newPayment(total, amount string) (*finance.StudentFee, *finance.Payment) {
	sf := f.newFee(total)
	if err := sf.RecordPayment(dec(amount)); err != nil {
		panic(err)
	}
	p, err := finance.NewPayment(sf, "RCP-000001", finance.PaymentInput{Amount: dec(amount), Method: finance.PaymentMethodCash}, f.userID)
	if err != nil {
		panic(err)
	}
	p.ClearDomainEvents()
	return sf, p
}
