// Package export renders reports as spreadsheet files.
package export

import (
	"bytes"
	"fmt"

	appfinance "github.com/schoolerp/feeledger/internal/application/finance"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the collection workbook
const (
	SheetSummary  = "Summary"
	SheetByDate   = "By Date"
	SheetByMethod = "By Method"
	SheetByClass  = "By Class"
)

// excelize built-in number format "#,##0.00"
const amountNumFmt = 4

// XLSXCollectionExporter writes a collection summary as an XLSX workbook:
// a summary sheet plus one sheet per grouping.
type XLSXCollectionExporter struct{}

// NewXLSXCollectionExporter creates an exporter
func NewXLSXCollectionExporter() *XLSXCollectionExporter {
	return &XLSXCollectionExporter{}
}

type workbookStyles struct {
	header int
	amount int
}

// ExportCollectionSummary returns the workbook bytes
func (e *XLSXCollectionExporter) ExportCollectionSummary(summary *finance.CollectionSummary) ([]byte, error) {
	if summary == nil {
		return nil, fmt.Errorf("collection summary is nil")
	}
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, styles, summary); err != nil {
		return nil, err
	}

	groups := []struct {
		sheet   string
		keyName string
		buckets []finance.CollectionBucket
	}{
		{SheetByDate, "Date", summary.ByDate},
		{SheetByMethod, "Payment Method", summary.ByMethod},
		{SheetByClass, "Class", summary.ByClass},
	}
	for _, g := range groups {
		if _, err := f.NewSheet(g.sheet); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", g.sheet, err)
		}
		if err := writeBucketSheet(f, styles, g.sheet, g.keyName, g.buckets); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return workbookStyles{}, fmt.Errorf("create header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: amountNumFmt})
	if err != nil {
		return workbookStyles{}, fmt.Errorf("create amount style: %w", err)
	}
	return workbookStyles{header: header, amount: amount}, nil
}

func writeSummarySheet(f *excelize.File, s workbookStyles, summary *finance.CollectionSummary) error {
	rows := [][]interface{}{
		{"From", summary.FromDate.Format("2006-01-02")},
		{"To", summary.ToDate.Format("2006-01-02")},
		{"Total Collected", summary.TotalAmount.InexactFloat64()},
		{"Payments", summary.PaymentCount},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "A4", s.header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "B3", "B3", s.amount); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "B", 18)
}

func writeBucketSheet(f *excelize.File, s workbookStyles, sheet, keyName string, buckets []finance.CollectionBucket) error {
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{keyName, "Amount", "Payments"}); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", s.header); err != nil {
		return err
	}
	for i, b := range buckets {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{b.Key, b.Amount.InexactFloat64(), b.Count}); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	if len(buckets) > 0 {
		last := fmt.Sprintf("B%d", len(buckets)+1)
		if err := f.SetCellStyle(sheet, "B2", last, s.amount); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 20); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "C", 14)
}

var _ appfinance.CollectionExporter = (*XLSXCollectionExporter)(nil)
