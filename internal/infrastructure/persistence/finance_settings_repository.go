package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingsRepository implements finance.SettingsRepository. Counters are
// only ever advanced by NextNumber.
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// ensure inserts the default row once. Concurrent callers race on the
// primary key and the loser does nothing.
func (r *GormSettingsRepository) ensure(ctx context.Context, tenantID uuid.UUID) error {
	model := models.FinanceSettingsModelFromDomain(finance.DefaultFinanceSettings(tenantID))
	return translateError(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model).Error)
}

// Get returns the settings of a school, creating defaults if needed
func (r *GormSettingsRepository) Get(ctx context.Context, tenantID uuid.UUID) (*finance.FinanceSettings, error) {
	if err := r.ensure(ctx, tenantID); err != nil {
		return nil, err
	}
	var model models.FinanceSettingsModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save writes prefixes, padding and currency
func (r *GormSettingsRepository) Save(ctx context.Context, s *finance.FinanceSettings) error {
	if err := r.ensure(ctx, s.TenantID); err != nil {
		return err
	}
	return translateError(r.db.WithContext(ctx).
		Model(&models.FinanceSettingsModel{}).
		Where("tenant_id = ?", s.TenantID).
		Updates(map[string]interface{}{
			"receipt_prefix":   s.ReceiptPrefix,
			"invoice_prefix":   s.InvoicePrefix,
			"refund_prefix":    s.RefundPrefix,
			"sequence_padding": s.SequencePadding,
			"currency":         s.Currency,
			"updated_at":       time.Now().UTC(),
		}).Error)
}

func sequenceColumn(kind finance.SequenceKind) (string, error) {
	switch kind {
	case finance.SequenceReceipt:
		return "receipt_seq", nil
	case finance.SequenceInvoice:
		return "invoice_seq", nil
	case finance.SequenceRefund:
		return "refund_seq", nil
	}
	return "", fmt.Errorf("%w: unknown sequence kind %q", shared.ErrInvalidInput, kind)
}

// NextNumber increments the counter in a single UPDATE ... RETURNING. The
// row lock taken by the update serializes concurrent collectors of one
// school until their transactions end.
func (r *GormSettingsRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, kind finance.SequenceKind) (string, error) {
	column, err := sequenceColumn(kind)
	if err != nil {
		return "", err
	}
	if err := r.ensure(ctx, tenantID); err != nil {
		return "", err
	}

	var row models.FinanceSettingsModel
	result := r.db.WithContext(ctx).
		Model(&row).
		Clauses(clause.Returning{}).
		Where("tenant_id = ?", tenantID).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return "", translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return "", shared.ErrNotFound
	}

	switch kind {
	case finance.SequenceInvoice:
		return finance.FormatSequence(row.InvoicePrefix, row.SequencePadding, row.InvoiceSeq), nil
	case finance.SequenceRefund:
		return finance.FormatSequence(row.RefundPrefix, row.SequencePadding, row.RefundSeq), nil
	default:
		return finance.FormatSequence(row.ReceiptPrefix, row.SequencePadding, row.ReceiptSeq), nil
	}
}

var _ finance.SettingsRepository = (*GormSettingsRepository)(nil)
