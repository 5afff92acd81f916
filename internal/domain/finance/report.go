package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionQuery bounds a collection summary
type CollectionQuery struct {
	FromDate       time.Time
	ToDate         time.Time
	AcademicYearID *uuid.UUID
}

// CollectionBucket is one group of a collection summary
type CollectionBucket struct {
	Key    string          `json:"key"`
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

// CollectionSummary aggregates SUCCESS payments in a date range
type CollectionSummary struct {
	FromDate     time.Time          `json:"from_date"`
	ToDate       time.Time          `json:"to_date"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	PaymentCount int64              `json:"payment_count"`
	ByDate       []CollectionBucket `json:"by_date"`
	ByMethod     []CollectionBucket `json:"by_method"`
	ByClass      []CollectionBucket `json:"by_class"`
}

// DuesQuery filters the dues summary
type DuesQuery struct {
	AcademicYearID *uuid.UUID
	AcademicUnitID *uuid.UUID
	OverdueOnly    bool
	AsOf           time.Time
}

// DuesItem is one outstanding student fee
type DuesItem struct {
	StudentFeeID   uuid.UUID       `json:"student_fee_id"`
	StudentID      uuid.UUID       `json:"student_id"`
	AcademicUnitID *uuid.UUID      `json:"academic_unit_id,omitempty"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceAmount  decimal.Decimal `json:"balance_amount"`
	Status         FeeStatus       `json:"status"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
}

// DuesSummary aggregates outstanding balances
type DuesSummary struct {
	TotalOutstanding decimal.Decimal    `json:"total_outstanding"`
	FeeCount         int64              `json:"fee_count"`
	ByClass          []CollectionBucket `json:"by_class"`
	Items            []DuesItem         `json:"items"`
}
