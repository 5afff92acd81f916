package printing

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReceipt() *finance.Receipt {
	return &finance.Receipt{
		ReceiptNumber:    "RCP-000042",
		PaymentID:        uuid.New(),
		PaymentDate:      time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC),
		Amount:           decimal.RequireFromString("12180.50"),
		Method:           finance.PaymentMethodBankTransfer,
		BankName:         "State Bank",
		ReferenceNumber:  "UTR123",
		StudentID:        uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		StudentFeeID:     uuid.New(),
		FeeStructureName: "Grade 5 Tuition <2025>",
		FinalAmount:      decimal.RequireFromString("20000"),
		PaidAmount:       decimal.RequireFromString("12180.50"),
		BalanceAmount:    decimal.RequireFromString("7819.50"),
		FeeStatus:        finance.FeeStatusPartial,
		Currency:         "INR",
	}
}

func TestAmountFormatter_Money(t *testing.T) {
	f := newAmountFormatter("en")
	assert.Equal(t, "INR 12,180.50", f.Money("INR", decimal.RequireFromString("12180.5")))
	assert.Equal(t, "USD 0.00", f.Money("USD", decimal.Zero))
	assert.Equal(t, "INR 1.01", f.Money("not-a-code", decimal.RequireFromString("1.005")))
}

func TestAmountFormatter_InvalidLocaleFallsBackToEnglish(t *testing.T) {
	f := newAmountFormatter("??")
	assert.Equal(t, "INR 1,000.00", f.Money("INR", decimal.NewFromInt(1000)))
}

func TestAmountInWords(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		amount string
		want   string
	}{
		{"zero", "INR", "0", "INR Zero Only"},
		{"teens", "INR", "15", "INR Fifteen Only"},
		{"with paise", "INR", "12180.50", "INR Twelve Thousand One Hundred Eighty and 50/100 Only"},
		{"lakh", "INR", "250000", "INR Two Lakh Fifty Thousand Only"},
		{"crore", "INR", "12500000", "INR One Crore Twenty Five Lakh Only"},
		{"million", "USD", "1200000", "USD One Million Two Hundred Thousand Only"},
		{"negative uses magnitude", "USD", "-42", "USD Forty Two Only"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, amountInWords(tt.code, decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestMethodLabel(t *testing.T) {
	assert.Equal(t, "UPI", methodLabel(finance.PaymentMethodUPI))
	assert.Equal(t, "Bank Transfer", methodLabel(finance.PaymentMethodBankTransfer))
	assert.Equal(t, "Cash", methodLabel(finance.PaymentMethodCash))
}

func TestReceiptComposer_HTML(t *testing.T) {
	c := newReceiptComposer("Green Valley School", "en")

	html, err := c.HTML(sampleReceipt())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<h1>Green Valley School</h1>")
	assert.Contains(t, html, "RCP-000042")
	assert.Contains(t, html, "14 Jul 2025")
	assert.Contains(t, html, "INR 12,180.50")
	assert.Contains(t, html, "INR 7,819.50")
	assert.Contains(t, html, "Bank Transfer")
	assert.Contains(t, html, "UTR123")
	assert.Contains(t, html, "PARTIAL")
	assert.Contains(t, html, "Twelve Thousand One Hundred Eighty and 50/100 Only")
	assert.Contains(t, html, "Grade 5 Tuition &lt;2025&gt;", "values are HTML escaped")
	assert.NotContains(t, html, "Remarks:")
}

func TestReceiptComposer_DefaultsCurrencyAndOmitsEmptySchool(t *testing.T) {
	r := sampleReceipt()
	r.Currency = ""
	r.BankName = ""

	html, err := newReceiptComposer("", "").HTML(r)
	require.NoError(t, err)
	assert.NotContains(t, html, "<h1>")
	assert.NotContains(t, html, ">Bank<")
	assert.Contains(t, html, finance.DefaultCurrency+" 20,000.00")
}
