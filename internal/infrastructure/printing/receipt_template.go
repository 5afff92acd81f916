package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Receipt {{.ReceiptNumber}}</title>
<style>
body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 11px; color: #222; }
h1 { font-size: 16px; margin: 0 0 4px 0; text-align: center; }
h2 { font-size: 13px; margin: 0 0 12px 0; text-align: center; font-weight: normal; }
table { width: 100%; border-collapse: collapse; margin-bottom: 10px; }
td { padding: 4px 6px; border-bottom: 1px solid #ddd; }
td.label { color: #666; width: 40%; }
td.amount { text-align: right; font-variant-numeric: tabular-nums; }
.words { font-style: italic; margin: 8px 0; }
.status { font-weight: bold; }
.footer { margin-top: 24px; font-size: 9px; color: #888; text-align: center; }
</style>
</head>
<body>
{{if .School}}<h1>{{.School}}</h1>{{end}}
<h2>Fee Payment Receipt</h2>
<table>
<tr><td class="label">Receipt number</td><td>{{.ReceiptNumber}}</td></tr>
<tr><td class="label">Payment date</td><td>{{.PaymentDate}}</td></tr>
<tr><td class="label">Student</td><td>{{.StudentID}}</td></tr>
{{if .FeeStructure}}<tr><td class="label">Fee</td><td>{{.FeeStructure}}</td></tr>{{end}}
<tr><td class="label">Payment method</td><td>{{.Method}}</td></tr>
{{if .BankName}}<tr><td class="label">Bank</td><td>{{.BankName}}</td></tr>{{end}}
{{if .Reference}}<tr><td class="label">Reference</td><td>{{.Reference}}</td></tr>{{end}}
</table>
<table>
<tr><td class="label">Amount received</td><td class="amount">{{.Amount}}</td></tr>
<tr><td class="label">Total fee</td><td class="amount">{{.FinalAmount}}</td></tr>
<tr><td class="label">Paid to date</td><td class="amount">{{.PaidAmount}}</td></tr>
<tr><td class="label">Balance due</td><td class="amount">{{.BalanceAmount}}</td></tr>
</table>
<p class="words">{{.AmountInWords}}</p>
<p>Fee status: <span class="status">{{.FeeStatus}}</span></p>
{{if .Remarks}}<p>Remarks: {{.Remarks}}</p>{{end}}
<p class="footer">This is a computer generated receipt and does not require a signature.</p>
</body>
</html>`))

// receiptView is the template data of a receipt, with every value already
// formatted for display.
type receiptView struct {
	School        string
	ReceiptNumber string
	PaymentDate   string
	StudentID     string
	FeeStructure  string
	Method        string
	BankName      string
	Reference     string
	Amount        string
	FinalAmount   string
	PaidAmount    string
	BalanceAmount string
	AmountInWords string
	FeeStatus     string
	Remarks       string
}

// amountFormatter formats money for one locale
type amountFormatter struct {
	printer *message.Printer
}

func newAmountFormatter(locale string) *amountFormatter {
	tag, err := language.Parse(locale)
	if locale == "" || err != nil {
		tag = language.English
	}
	return &amountFormatter{printer: message.NewPrinter(tag)}
}

// Money formats an amount with its ISO currency code and two decimals,
// grouped the way the locale groups digits. Unknown codes fall back to the
// default currency.
func (f *amountFormatter) Money(code string, d decimal.Decimal) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.MustParseISO(finance.DefaultCurrency)
	}
	return unit.String() + " " + f.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// receiptComposer binds receipts to the HTML template
type receiptComposer struct {
	school    string
	formatter *amountFormatter
}

func newReceiptComposer(school, locale string) *receiptComposer {
	return &receiptComposer{school: school, formatter: newAmountFormatter(locale)}
}

func (c *receiptComposer) view(r *finance.Receipt) receiptView {
	code := r.Currency
	if code == "" {
		code = finance.DefaultCurrency
	}
	money := func(d decimal.Decimal) string { return c.formatter.Money(code, d) }
	return receiptView{
		School:        c.school,
		ReceiptNumber: r.ReceiptNumber,
		PaymentDate:   r.PaymentDate.Format("02 Jan 2006"),
		StudentID:     r.StudentID.String(),
		FeeStructure:  r.FeeStructureName,
		Method:        methodLabel(r.Method),
		BankName:      r.BankName,
		Reference:     r.ReferenceNumber,
		Amount:        money(r.Amount),
		FinalAmount:   money(r.FinalAmount),
		PaidAmount:    money(r.PaidAmount),
		BalanceAmount: money(r.BalanceAmount),
		AmountInWords: amountInWords(code, r.Amount),
		FeeStatus:     string(r.FeeStatus),
		Remarks:       r.Remarks,
	}
}

// HTML renders the complete receipt document
func (c *receiptComposer) HTML(r *finance.Receipt) (string, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, c.view(r)); err != nil {
		return "", fmt.Errorf("failed to execute receipt template: %w", err)
	}
	return buf.String(), nil
}

func methodLabel(m finance.PaymentMethod) string {
	if m == finance.PaymentMethodUPI {
		return "UPI"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(strings.ToLower(string(m)), "_", " "))
}

var (
	smallNumbers = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tensNames = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
)

// amountInWords spells an amount the way cheques and receipts do, e.g.
// "INR Twelve Thousand One Hundred Eighty and 50/100 Only". Rupee amounts
// use lakh and crore grouping.
func amountInWords(code string, d decimal.Decimal) string {
	d = d.Abs().Round(2)
	whole := d.IntPart()
	fraction := d.Sub(decimal.NewFromInt(whole)).Mul(decimal.NewFromInt(100)).IntPart()

	var words string
	if code == "INR" {
		words = indianWords(whole)
	} else {
		words = internationalWords(whole)
	}
	words = cases.Title(language.English).String(words)

	if fraction > 0 {
		return fmt.Sprintf("%s %s and %02d/100 Only", code, words, fraction)
	}
	return fmt.Sprintf("%s %s Only", code, words)
}

func belowThousand(n int64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, smallNumbers[n/100], "hundred")
		n %= 100
	}
	if n >= 20 {
		t := tensNames[n/10]
		if n%10 != 0 {
			t += " " + smallNumbers[n%10]
		}
		parts = append(parts, t)
	} else if n > 0 {
		parts = append(parts, smallNumbers[n])
	}
	return strings.Join(parts, " ")
}

type scale struct {
	size int64
	name string
}

func spell(n int64, scales []scale) string {
	if n == 0 {
		return smallNumbers[0]
	}
	var parts []string
	for _, s := range scales {
		if n >= s.size {
			parts = append(parts, spell(n/s.size, scales), s.name)
			n %= s.size
		}
	}
	if n > 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}

func indianWords(n int64) string {
	return spell(n, []scale{{10_000_000, "crore"}, {100_000, "lakh"}, {1_000, "thousand"}})
}

func internationalWords(n int64) string {
	return spell(n, []scale{{1_000_000_000, "billion"}, {1_000_000, "million"}, {1_000, "thousand"}})
}
