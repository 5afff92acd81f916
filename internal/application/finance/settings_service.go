package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
)

// SettingsService reads and updates a school's numbering and currency
type SettingsService struct {
	deps Dependencies
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(deps Dependencies) *SettingsService {
	return &SettingsService{deps: deps.withDefaults()}
}

// Get returns the school's settings, creating defaults on first access
func (s *SettingsService) Get(ctx context.Context, tenantID uuid.UUID) (*finance.FinanceSettings, error) {
	return s.deps.Repos.Settings.Get(ctx, tenantID)
}

// Update changes prefixes, padding or currency. Counters cannot be written,
// so numbers already issued are never reused.
func (s *SettingsService) Update(ctx context.Context, tenantID, userID uuid.UUID, req UpdateSettingsRequest) (*finance.FinanceSettings, error) {
	var settings *finance.FinanceSettings
	err := s.deps.Scope.Execute(ctx, func(repos finance.Repositories) error {
		var err error
		settings, err = repos.Settings.Get(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		if err := settings.Apply(finance.SettingsUpdate{
			ReceiptPrefix:   req.ReceiptPrefix,
			InvoicePrefix:   req.InvoicePrefix,
			RefundPrefix:    req.RefundPrefix,
			SequencePadding: req.SequencePadding,
			Currency:        req.Currency,
		}); err != nil {
			return err
		}
		if err := repos.Settings.Save(ctx, settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		return repos.AuditLogs.Append(ctx,
			finance.NewAuditLog(tenantID, finance.AuditSettingsUpdated, "finance_settings", tenantID, userID).
				With("receipt_prefix", settings.ReceiptPrefix).
				With("invoice_prefix", settings.InvoicePrefix).
				With("refund_prefix", settings.RefundPrefix).
				With("sequence_padding", settings.SequencePadding).
				With("currency", settings.Currency))
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}
