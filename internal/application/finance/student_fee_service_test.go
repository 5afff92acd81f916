package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStudentFeeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("copies the structure total", func(t *testing.T) {
		f := newFixture()
		fs := f.newStructure("12000")
		studentID := uuid.New()
		tax := dec("180")
		svc := NewStudentFeeService(f.deps(Options{}))

		f.structures.On("FindByIDForTenant", mock.Anything, f.tenantID, fs.ID).Return(fs, nil)
		f.fees.On("ExistsForStudent", mock.Anything, f.tenantID, studentID, fs.ID).Return(false, nil)
		f.fees.On("Create", mock.Anything, mock.AnythingOfType("*finance.StudentFee")).Return(nil)

		resp, err := svc.Create(ctx, f.tenantID, f.userID, CreateStudentFeeRequest{FeeStructureID: fs.ID, StudentID: studentID, TaxAmount: &tax})
		require.NoError(t, err)
		assert.True(t, resp.TotalAmount.Equal(dec("12000")))
		assert.True(t, resp.FinalAmount.Equal(dec("12180")))
		assert.True(t, resp.BalanceAmount.Equal(dec("12180")))
		assert.Equal(t, "PENDING", resp.Status)
		assert.Equal(t, []string{finance.EventTypeStudentFeeCreated}, f.publisher.types())
	})

	t.Run("second fee for the same student and structure conflicts", func(t *testing.T) {
		f := newFixture()
		fs := f.newStructure("12000")
		studentID := uuid.New()
		svc := NewStudentFeeService(f.deps(Options{}))

		f.structures.On("FindByIDForTenant", mock.Anything, f.tenantID, fs.ID).Return(fs, nil)
		f.fees.On("ExistsForStudent", mock.Anything, f.tenantID, studentID, fs.ID).Return(true, nil)

		_, err := svc.Create(ctx, f.tenantID, f.userID, CreateStudentFeeRequest{FeeStructureID: fs.ID, StudentID: studentID})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("inactive structures cannot be assigned", func(t *testing.T) {
		f := newFixture()
		fs := f.newStructure("12000")
		require.NoError(t, fs.Deactivate())
		svc := NewStudentFeeService(f.deps(Options{}))

		f.structures.On("FindByIDForTenant", mock.Anything, f.tenantID, fs.ID).Return(fs, nil)
		f.fees.On("ExistsForStudent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

		_, err := svc.Create(ctx, f.tenantID, f.userID, CreateStudentFeeRequest{FeeStructureID: fs.ID, StudentID: uuid.New()})
		de, ok := shared.GetDomainError(err)
		require.True(t, ok)
		assert.Equal(t, finance.CodeStructureInactive, de.Code)
	})
}

func TestStudentFeeService_BulkCreate(t *testing.T) {
	f := newFixture()
	fs := f.newStructure("8000")
	charged, fresh := uuid.New(), uuid.New()
	svc := NewStudentFeeService(f.deps(Options{}))

	f.structures.On("FindByIDForTenant", mock.Anything, f.tenantID, fs.ID).Return(fs, nil)
	f.fees.On("ExistsForStudent", mock.Anything, f.tenantID, charged, fs.ID).Return(true, nil)
	f.fees.On("ExistsForStudent", mock.Anything, f.tenantID, fresh, fs.ID).Return(false, nil)
	f.fees.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.BulkCreate(context.Background(), f.tenantID, f.userID, BulkCreateStudentFeesRequest{
		FeeStructureID: fs.ID,
		StudentIDs:     []uuid.UUID{charged, fresh, fresh},
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, fresh, result.Created[0].StudentID)
	assert.Equal(t, []uuid.UUID{charged}, result.Skipped)
	f.fees.AssertNumberOfCalls(t, "Create", 1)
	assert.Equal(t, 1, f.scope.committed)
}

func TestStudentFeeService_MarkOverdue(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("per school run is audited", func(t *testing.T) {
		f := newFixture()
		svc := NewStudentFeeService(f.deps(Options{}))
		svc.now = func() time.Time { return now }

		f.fees.On("MarkOverdue", mock.Anything, &f.tenantID, now).Return(int64(3), nil)
		f.metrics.On("RecordMarkedOverdue", mock.Anything, int64(3)).Return()

		result, err := svc.MarkOverdue(context.Background(), &f.tenantID, f.userID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.Marked)
		assert.Equal(t, now, result.AsOf)
		assert.Equal(t, []finance.AuditAction{finance.AuditStudentFeesMarkedDue}, f.audits.actions())
		f.metrics.AssertExpectations(t)
	})

	t.Run("all-school sweep writes no audit entry", func(t *testing.T) {
		f := newFixture()
		svc := NewStudentFeeService(f.deps(Options{}))
		svc.now = func() time.Time { return now }

		f.fees.On("MarkOverdue", mock.Anything, (*uuid.UUID)(nil), now).Return(int64(7), nil)
		f.metrics.On("RecordMarkedOverdue", mock.Anything, int64(7)).Return()

		result, err := svc.MarkOverdue(context.Background(), nil, uuid.Nil)
		require.NoError(t, err)
		assert.Equal(t, int64(7), result.Marked)
		assert.Empty(t, f.audits.entries)
	})
}
