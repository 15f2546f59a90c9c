// Package notification delivers the end-of-batch summary email to the
// purchasing team.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"sourcing_backend/internal/sourcing"
	"sourcing_backend/internal/sourcing/domain"
	"sourcing_backend/platform/config"
)

// SummarySender mails a batch summary over SMTP.
type SummarySender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	recipient string
}

// NewSummarySender creates a sender from the email configuration.
func NewSummarySender(cfg config.EmailConfig) *SummarySender {
	return &SummarySender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		recipient: cfg.GetSummaryRecipient(),
	}
}

var summaryTmpl = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
<h2>Sourcing batch {{.BatchID}} finished</h2>
{{if .DryRun}}<p><strong>Dry run:</strong> no inquiries were actually sent.</p>{{end}}
<p>{{.Lines}} lines processed in {{.Duration}}.</p>
<table border="0" cellpadding="4">
<tr><td>Sent</td><td align="right">{{.Sent}}</td></tr>
<tr><td>Failed</td><td align="right">{{.Failed}}</td></tr>
<tr><td>Omitted (min order)</td><td align="right">{{.Omitted}}</td></tr>
<tr><td>No suppliers</td><td align="right">{{.NoSuppliers}}</td></tr>
</table>
{{if .TopSuppliers}}
<h3>Most contacted suppliers</h3>
<ol>
{{range .TopSuppliers}}<li>{{.Supplier}} ({{.Count}})</li>
{{end}}</ol>
{{end}}
<p>Full results: {{.ReportPath}}</p>
</body>
</html>`))

type summaryData struct {
	BatchID      string
	DryRun       bool
	Lines        int
	Duration     string
	Sent         int
	Failed       int
	Omitted      int
	NoSuppliers  int
	TopSuppliers []sourcing.SupplierCount
	ReportPath   string
}

// SendSummary renders and delivers the batch summary.
func (s *SummarySender) SendSummary(ctx context.Context, summary *sourcing.Summary, dryRun bool, reportPath string) error {
	data := summaryData{
		BatchID:      summary.BatchID,
		DryRun:       dryRun,
		Lines:        summary.Lines,
		Duration:     summary.Duration().Round(time.Second).String(),
		Sent:         summary.StatusCounts[domain.StatusSent],
		Failed:       summary.StatusCounts[domain.StatusFailed],
		Omitted:      summary.StatusCounts[domain.StatusOmitted],
		NoSuppliers:  summary.StatusCounts[domain.StatusNoSuppliers],
		TopSuppliers: summary.TopSuppliers(5),
		ReportPath:   reportPath,
	}

	var body bytes.Buffer
	if err := summaryTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render summary email: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("summary email from: %w", err)
	}
	if err := msg.To(s.recipient); err != nil {
		return fmt.Errorf("summary email to: %w", err)
	}
	msg.Subject(fmt.Sprintf("Sourcing batch %s: %d sent, %d lines", summary.BatchID, data.Sent, summary.Lines))
	msg.SetBodyString(gomail.TypeTextHTML, body.String())

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
