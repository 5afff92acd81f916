package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
	"github.com/schoolerp/feeledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrPrintingDisabled is returned when receipt PDFs are requested but no
// renderer is configured
var ErrPrintingDisabled = shared.NewDomainError("PRINTING_DISABLED", "Receipt printing is not enabled")

// DocumentService produces receipts and invoices
type DocumentService struct {
	deps     Dependencies
	renderer ReceiptRenderer
	archive  ReceiptArchive
}

// NewDocumentService creates a new DocumentService. renderer and archive are optional.
func NewDocumentService(deps Dependencies, renderer ReceiptRenderer, archive ReceiptArchive) *DocumentService {
	return &DocumentService{deps: deps.withDefaults(), renderer: renderer, archive: archive}
}

// GetReceipt projects a payment and its current ledger into a receipt
func (s *DocumentService) GetReceipt(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*finance.Receipt, error) {
	repos := s.deps.Repos
	payment, err := repos.Payments.FindByReceiptNumber(ctx, tenantID, receiptNumber)
	if err != nil {
		return nil, err
	}
	fee, err := repos.StudentFees.FindByIDForTenant(ctx, tenantID, payment.StudentFeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student fee: %w", err)
	}
	structureName := ""
	if structure, err := repos.FeeStructures.FindByIDForTenant(ctx, tenantID, fee.FeeStructureID); err == nil {
		structureName = structure.Name
	}
	currency := finance.DefaultCurrency
	if settings, err := repos.Settings.Get(ctx, tenantID); err == nil {
		currency = settings.Currency
	}
	return finance.NewReceipt(payment, fee, structureName, currency), nil
}

// RenderReceiptPDF renders a receipt as PDF. When an archive is configured the
// file is stored there too; an archive failure does not fail the download.
func (s *DocumentService) RenderReceiptPDF(ctx context.Context, tenantID uuid.UUID, receiptNumber string) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrPrintingDisabled
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "render_pdf")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		telemetry.SpanAttrReceiptNumber, receiptNumber,
	)

	receipt, err := s.GetReceipt(ctx, tenantID, receiptNumber)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var pdf []byte
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationRenderReceipt, tenantID.String()), func(c context.Context) {
		pdf, err = s.renderer.RenderReceipt(c, receipt)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	telemetry.SetAttribute(span, "pdf_bytes", len(pdf))

	if s.archive != nil {
		if err := s.archive.PutReceipt(ctx, tenantID, receiptNumber, pdf); err != nil {
			s.deps.Logger.Warn("Failed to archive receipt",
				zap.String("school_id", tenantID.String()),
				zap.String("receipt_number", receiptNumber),
				zap.Error(err))
		}
	}
	return pdf, nil
}

// GenerateInvoice snapshots a student fee into a numbered invoice
func (s *DocumentService) GenerateInvoice(ctx context.Context, tenantID, userID uuid.UUID, req GenerateInvoiceRequest) (*finance.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "generate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSchoolID, tenantID.String(),
		telemetry.SpanAttrStudentFeeID, req.StudentFeeID.String(),
	)

	var inv *finance.Invoice
	err := s.deps.Scope.Execute(ctx, func(repos finance.Repositories) error {
		fee, err := repos.StudentFees.FindByIDForTenant(ctx, tenantID, req.StudentFeeID)
		if err != nil {
			return err
		}
		structure, err := repos.FeeStructures.FindByIDForTenant(ctx, tenantID, fee.FeeStructureID)
		if err != nil {
			return err
		}
		number, err := repos.Settings.NextNumber(ctx, tenantID, finance.SequenceInvoice)
		if err != nil {
			return fmt.Errorf("failed to allocate invoice number: %w", err)
		}
		inv, err = finance.NewInvoice(number, fee, structure, userID)
		if err != nil {
			return err
		}
		if err := repos.Invoices.Create(ctx, inv); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return repos.AuditLogs.Append(ctx,
			finance.NewAuditLog(tenantID, finance.AuditInvoiceGenerated, "invoice", inv.ID, userID).
				WithAmount(inv.BalanceAmount).
				With("invoice_number", inv.InvoiceNumber).
				With("student_fee_id", fee.ID.String()))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return inv, nil
}

// GetInvoice returns an invoice by its number
func (s *DocumentService) GetInvoice(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*finance.Invoice, error) {
	return s.deps.Repos.Invoices.FindByNumber(ctx, tenantID, invoiceNumber)
}
