package services

import (
	"context"
	"fmt"
	"log"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/models"
)

// NotificationService fans admin alerts out over email. Implements
// businessflow.AdminNotifier and businessflow.ReminderMailer.
type NotificationService struct {
	mailer MailService
	logger *log.Logger
}

func NewNotificationService(mailer MailService, logger *log.Logger) *NotificationService {
	if logger == nil {
		logger = log.Default()
	}
	return &NotificationService{mailer: mailer, logger: logger}
}

// NotifyNegativeFeedback emails every admin. Individual failures are
// collected and logged, never aborting the remaining sends.
func (s *NotificationService) NotifyNegativeFeedback(ctx context.Context, admins []*models.User, business *models.Business, customer *models.Customer, content string) []businessflow.NotifyResult {
	businessName := "your business"
	if business != nil {
		businessName = business.Name
	}
	customerName := "A customer"
	if customer != nil {
		customerName = customer.FullName()
	}

	subject := fmt.Sprintf("New private feedback for %s", businessName)
	plain := fmt.Sprintf("%s left private feedback for %s:\n\n%s\n", customerName, businessName, content)
	html := fmt.Sprintf("<p><strong>%s</strong> left private feedback for <strong>%s</strong>:</p><blockquote>%s</blockquote>", customerName, businessName, content)

	results := make([]businessflow.NotifyResult, 0, len(admins))
	for _, admin := range admins {
		name := admin.Email
		if admin.Name != nil && *admin.Name != "" {
			name = *admin.Name
		}
		err := s.mailer.Send(ctx, admin.Email, name, subject, plain, html)
		if err != nil {
			s.logger.Printf("notification: feedback alert to %s failed: %v", admin.Email, err)
		}
		results = append(results, businessflow.NotifyResult{Email: admin.Email, Err: err})
	}
	return results
}

// SendRegistrationReminder nudges an admin whose business has no customers yet
func (s *NotificationService) SendRegistrationReminder(ctx context.Context, admin *models.User, business *models.Business) error {
	name := admin.Email
	if admin.Name != nil && *admin.Name != "" {
		name = *admin.Name
	}
	subject := fmt.Sprintf("Finish setting up %s", business.Name)
	plain := fmt.Sprintf("Hi %s,\n\n%s has no customers yet. Import your customer list to start sending review invitations.\n", name, business.Name)
	html := fmt.Sprintf("<p>Hi %s,</p><p><strong>%s</strong> has no customers yet. Import your customer list to start sending review invitations.</p>", name, business.Name)

	if err := s.mailer.Send(ctx, admin.Email, name, subject, plain, html); err != nil {
		s.logger.Printf("notification: registration reminder to %s failed: %v", admin.Email, err)
		return err
	}
	return nil
}
