package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditAction names a mutating finance action
type AuditAction string

const (
	AuditFeeStructureCreated     AuditAction = "FEE_STRUCTURE_CREATED"
	AuditFeeStructureUpdated     AuditAction = "FEE_STRUCTURE_UPDATED"
	AuditFeeStructureDeactivated AuditAction = "FEE_STRUCTURE_DEACTIVATED"
	AuditStudentFeeCreated       AuditAction = "STUDENT_FEE_CREATED"
	AuditStudentFeesMarkedDue    AuditAction = "STUDENT_FEES_MARKED_OVERDUE"
	AuditAdjustmentCreated       AuditAction = "ADJUSTMENT_CREATED"
	AuditAdjustmentApproved      AuditAction = "ADJUSTMENT_APPROVED"
	AuditAdjustmentRejected      AuditAction = "ADJUSTMENT_REJECTED"
	AuditPaymentCollected        AuditAction = "PAYMENT_COLLECTED"
	AuditRefundInitiated         AuditAction = "REFUND_INITIATED"
	AuditRefundSubmitted         AuditAction = "REFUND_SUBMITTED"
	AuditRefundApproved          AuditAction = "REFUND_APPROVED"
	AuditRefundRejected          AuditAction = "REFUND_REJECTED"
	AuditRefundProcessed         AuditAction = "REFUND_PROCESSED"
	AuditRefundCompleted         AuditAction = "REFUND_COMPLETED"
	AuditInvoiceGenerated        AuditAction = "INVOICE_GENERATED"
	AuditSettingsUpdated         AuditAction = "SETTINGS_UPDATED"
)

// AuditLog is an append-only record of a finance mutation
type AuditLog struct {
	ID         uuid.UUID              `json:"id"`
	TenantID   uuid.UUID              `json:"school_id"`
	Action     AuditAction            `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   uuid.UUID              `json:"entity_id"`
	ActorID    *uuid.UUID             `json:"actor_id,omitempty"`
	Amount     *decimal.Decimal       `json:"amount,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewAuditLog creates an audit entry. A nil actor means a system job.
func NewAuditLog(tenantID uuid.UUID, action AuditAction, entityType string, entityID uuid.UUID, actorID uuid.UUID) *AuditLog {
	log := &AuditLog{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    map[string]interface{}{},
		CreatedAt:  time.Now(),
	}
	if actorID != uuid.Nil {
		log.ActorID = &actorID
	}
	return log
}

// WithAmount attaches the monetary amount of the action
func (l *AuditLog) WithAmount(amount decimal.Decimal) *AuditLog {
	l.Amount = &amount
	return l
}

// With adds a detail key
func (l *AuditLog) With(key string, value interface{}) *AuditLog {
	l.Details[key] = value
	return l
}
