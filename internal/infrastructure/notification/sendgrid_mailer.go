// Package notification delivers outbound messages to payers.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"

	appfinance "github.com/schoolerp/feeledger/internal/application/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	defaultHost  = "https://api.sendgrid.com"
	sendEndpoint = "/v3/mail/send"
)

var receiptHTML = template.Must(template.New("receipt").Parse(`<p>Dear parent,</p>
<p>We have received your payment of <strong>{{.Amount}}</strong> by {{.Method}} on {{.Date}}.</p>
<table>
<tr><td>Receipt number</td><td>{{.ReceiptNumber}}</td></tr>
<tr><td>Balance due</td><td>{{.Balance}}</td></tr>
<tr><td>Fee status</td><td>{{.Status}}</td></tr>
</table>
<p>Thank you.</p>`))

type receiptView struct {
	ReceiptNumber string
	Amount        string
	Method        string
	Date          string
	Balance       string
	Status        string
}

// SendGridMailer sends receipt emails through the SendGrid v3 API
type SendGridMailer struct {
	apiKey string
	host   string
	from   *sgmail.Email
	logger *zap.Logger
}

// NewSendGridMailer creates a mailer from email configuration
func NewSendGridMailer(cfg config.EmailConfig, logger *zap.Logger) *SendGridMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridMailer{
		apiKey: cfg.APIKey,
		host:   defaultHost,
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

func (m *SendGridMailer) build(msg appfinance.ReceiptEmail) (*sgmail.SGMailV3, error) {
	view := receiptView{
		ReceiptNumber: msg.ReceiptNumber,
		Amount:        msg.Amount.StringFixed(2),
		Method:        string(msg.Method),
		Date:          msg.PaymentDate.Format("02 Jan 2006"),
		Balance:       msg.BalanceAmount.StringFixed(2),
		Status:        string(msg.FeeStatus),
	}
	var html bytes.Buffer
	if err := receiptHTML.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("render receipt email: %w", err)
	}
	text := fmt.Sprintf("Payment of %s received by %s on %s.\nReceipt number: %s\nBalance due: %s (%s)\n",
		view.Amount, view.Method, view.Date, view.ReceiptNumber, view.Balance, view.Status)

	p := sgmail.NewPersonalization()
	p.Subject = "Fee payment receipt " + msg.ReceiptNumber
	p.AddTos(sgmail.NewEmail("", msg.To))

	mail := sgmail.NewV3Mail()
	mail.SetFrom(m.from)
	mail.AddPersonalizations(p)
	mail.AddContent(
		sgmail.NewContent("text/plain", text),
		sgmail.NewContent("text/html", html.String()),
	)
	return mail, nil
}

// SendReceipt sends one receipt email. Non-2xx responses are errors. The
// SendGrid client takes no context, so ctx is only checked before sending.
func (m *SendGridMailer) SendReceipt(ctx context.Context, msg appfinance.ReceiptEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mail, err := m.build(msg)
	if err != nil {
		return err
	}

	req := sendgrid.GetRequest(m.apiKey, sendEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(mail)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected receipt %s: status %d: %s", msg.ReceiptNumber, res.StatusCode, res.Body)
	}
	m.logger.Debug("Receipt email sent",
		zap.String("receipt_number", msg.ReceiptNumber),
		zap.Int("status", res.StatusCode))
	return nil
}

var _ appfinance.ReceiptMailer = (*SendGridMailer)(nil)
