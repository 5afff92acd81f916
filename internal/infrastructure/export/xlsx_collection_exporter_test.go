package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXCollectionExporter_Export(t *testing.T) {
	summary := &finance.CollectionSummary{
		FromDate:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ToDate:       time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		TotalAmount:  decimal.RequireFromString("12180.5"),
		PaymentCount: 3,
		ByDate: []finance.CollectionBucket{
			{Key: "2025-06-02", Amount: decimal.RequireFromString("10000"), Count: 2},
			{Key: "2025-06-15", Amount: decimal.RequireFromString("2180.5"), Count: 1},
		},
		ByMethod: []finance.CollectionBucket{
			{Key: "CASH", Amount: decimal.RequireFromString("12180.5"), Count: 3},
		},
	}

	data, err := NewXLSXCollectionExporter().ExportCollectionSummary(summary)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetByDate, SheetByMethod, SheetByClass}, f.GetSheetList())

	raw := excelize.Options{RawCellValue: true}
	v, err := f.GetCellValue(SheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", v)
	v, err = f.GetCellValue(SheetSummary, "B3", raw)
	require.NoError(t, err)
	assert.Equal(t, "12180.5", v)
	v, err = f.GetCellValue(SheetSummary, "B4", raw)
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	rows, err := f.GetRows(SheetByDate, raw)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Amount", "Payments"}, rows[0])
	assert.Equal(t, []string{"2025-06-15", "2180.5", "1"}, rows[2])

	rows, err = f.GetRows(SheetByClass)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "empty grouping keeps only the header")
}

func TestXLSXCollectionExporter_NilSummary(t *testing.T) {
	_, err := NewXLSXCollectionExporter().ExportCollectionSummary(nil)
	assert.Error(t, err)
}
