package finance

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"
)

// SequenceKind selects one of the per-school counters
type SequenceKind string

const (
	SequenceReceipt SequenceKind = "RECEIPT"
	SequenceInvoice SequenceKind = "INVOICE"
	SequenceRefund  SequenceKind = "REFUND"
)

const (
	DefaultReceiptPrefix   = "RCP-"
	DefaultInvoicePrefix   = "INV-"
	DefaultRefundPrefix    = "RFD-"
	DefaultSequencePadding = 6
	DefaultCurrency        = "INR"
	maxSequencePadding     = 12
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9/_-]{0,20}$`)

// FinanceSettings holds a school's document counters and numbering format.
// The Seq fields are only advanced by the repository's atomic increment.
type FinanceSettings struct {
	TenantID        uuid.UUID `json:"school_id"`
	ReceiptPrefix   string    `json:"receipt_prefix"`
	ReceiptSeq      int64     `json:"receipt_seq"`
	InvoicePrefix   string    `json:"invoice_prefix"`
	InvoiceSeq      int64     `json:"invoice_seq"`
	RefundPrefix    string    `json:"refund_prefix"`
	RefundSeq       int64     `json:"refund_seq"`
	SequencePadding int       `json:"sequence_padding"`
	Currency        string    `json:"currency"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultFinanceSettings returns the settings a school starts with
func DefaultFinanceSettings(tenantID uuid.UUID) *FinanceSettings {
	return &FinanceSettings{
		TenantID:        tenantID,
		ReceiptPrefix:   DefaultReceiptPrefix,
		InvoicePrefix:   DefaultInvoicePrefix,
		RefundPrefix:    DefaultRefundPrefix,
		SequencePadding: DefaultSequencePadding,
		Currency:        DefaultCurrency,
		UpdatedAt:       time.Now(),
	}
}

// SettingsUpdate lists the writable settings. Nil fields are left unchanged.
type SettingsUpdate struct {
	ReceiptPrefix   *string
	InvoicePrefix   *string
	RefundPrefix    *string
	SequencePadding *int
	Currency        *string
}

// Apply validates and applies an update. Counters are not writable.
func (s *FinanceSettings) Apply(u SettingsUpdate) error {
	for _, p := range []*string{u.ReceiptPrefix, u.InvoicePrefix, u.RefundPrefix} {
		if p != nil && !prefixPattern.MatchString(*p) {
			return invalid(fmt.Sprintf("Invalid prefix %q: up to 20 letters, digits, '-', '_' or '/'", *p))
		}
	}
	if u.SequencePadding != nil && (*u.SequencePadding < 1 || *u.SequencePadding > maxSequencePadding) {
		return invalid(fmt.Sprintf("Sequence padding must be between 1 and %d", maxSequencePadding))
	}
	if u.Currency != nil {
		code := strings.ToUpper(strings.TrimSpace(*u.Currency))
		if _, err := currency.ParseISO(code); err != nil {
			return invalid(fmt.Sprintf("Unknown currency code %q", *u.Currency))
		}
		s.Currency = code
	}
	if u.ReceiptPrefix != nil {
		s.ReceiptPrefix = *u.ReceiptPrefix
	}
	if u.InvoicePrefix != nil {
		s.InvoicePrefix = *u.InvoicePrefix
	}
	if u.RefundPrefix != nil {
		s.RefundPrefix = *u.RefundPrefix
	}
	if u.SequencePadding != nil {
		s.SequencePadding = *u.SequencePadding
	}
	s.UpdatedAt = time.Now()
	return nil
}

// FormatSequence renders prefix + zero-padded seq, e.g. RCP-000042
func FormatSequence(prefix string, padding int, seq int64) string {
	if padding < 1 {
		padding = DefaultSequencePadding
	}
	return fmt.Sprintf("%s%0*d", prefix, padding, seq)
}
