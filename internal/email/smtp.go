// Package email delivers estimate summaries over SMTP.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	gomail "github.com/wneessen/go-mail"

	"pcbuild_backend/internal/chat/domain"
	"pcbuild_backend/platform/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var estimateTemplate = template.Must(template.ParseFS(templateFS, "templates/estimate.html"))

const subjectEstimate = "PC 조립 견적서"

// SMTPSender delivers estimate emails via a direct SMTP connection.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

// NewSMTPSender creates an SMTP estimate sender from config.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

type estimateEmailData struct {
	Title          string
	Description    string
	Components     []estimateEmailComponent
	TotalFormatted string
	Notes          string
}

type estimateEmailComponent struct {
	Category       string
	Name           string
	PriceFormatted string
}

// SendEstimate renders the estimate summary and mails it to the recipient.
func (s *SMTPSender) SendEstimate(ctx context.Context, to string, estimate domain.EstimateResult) error {
	data := estimateEmailData{
		Title:          estimate.Title,
		Description:    estimate.Description,
		TotalFormatted: formatKRW(estimate.TotalPrice),
		Notes:          estimate.Notes,
	}
	if data.Title == "" {
		data.Title = subjectEstimate
	}
	for _, component := range estimate.Components {
		data.Components = append(data.Components, estimateEmailComponent{
			Category:       string(component.Category),
			Name:           component.Name,
			PriceFormatted: formatKRW(component.Price),
		})
	}

	var body bytes.Buffer
	if err := estimateTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render estimate email: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subjectEstimate)
	msg.SetBodyString(gomail.TypeTextHTML, body.String())

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// formatKRW renders a price with thousands separators and the won suffix.
func formatKRW(price int64) string {
	digits := fmt.Sprintf("%d", price)
	if price < 0 {
		return digits + "원"
	}

	var out []byte
	for i, ch := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, ch)
	}
	return string(out) + "원"
}
