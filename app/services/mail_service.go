package services

import (
	"context"
	"fmt"

	"github.com/StevenOng97/backend-saas/config"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailService sends transactional email
type MailService interface {
	Send(ctx context.Context, toEmail, toName, subject, plainBody, htmlBody string) error
}

// SendGridMailService implements MailService on the SendGrid v3 API
type SendGridMailService struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func NewSendGridMailService(cfg config.SendGridConfig) *SendGridMailService {
	return &SendGridMailService{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}
}

func (s *SendGridMailService) Send(ctx context.Context, toEmail, toName, subject, plainBody, htmlBody string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainBody, htmlBody)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send failed with status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
