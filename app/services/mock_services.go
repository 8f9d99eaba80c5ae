package services

import (
	"context"
	"fmt"
	"sync"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/utils"
)

// MockSMSService records outbound messages instead of calling the provider.
// Used in tests and in environments without Twilio credentials.
type MockSMSService struct {
	mu       sync.Mutex
	messages []businessflow.SMSMessage

	// SendErr, when set, is returned by every Send call
	SendErr error
}

func NewMockSMSService() *MockSMSService {
	return &MockSMSService{}
}

func (s *MockSMSService) Send(ctx context.Context, msg businessflow.SMSMessage) (string, error) {
	if s.SendErr != nil {
		return "", s.SendErr
	}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	sid, err := utils.GenerateSyntheticSID()
	if err != nil {
		return "", err
	}
	return sid, nil
}

// SentMessages returns a copy of everything sent so far
func (s *MockSMSService) SentMessages() []businessflow.SMSMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]businessflow.SMSMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *MockSMSService) ClearSentMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// SentMail records one mail handed to the mock mailer
type SentMail struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// MockMailService records outbound email instead of calling SendGrid
type MockMailService struct {
	mu    sync.Mutex
	mails []SentMail

	// FailFor makes Send fail for specific recipient addresses
	FailFor map[string]bool
}

func NewMockMailService() *MockMailService {
	return &MockMailService{FailFor: map[string]bool{}}
}

func (s *MockMailService) Send(ctx context.Context, toEmail, toName, subject, plainBody, htmlBody string) error {
	if s.FailFor[toEmail] {
		return fmt.Errorf("mock mail failure for %s", toEmail)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mails = append(s.mails, SentMail{
		ToEmail:   toEmail,
		ToName:    toName,
		Subject:   subject,
		PlainBody: plainBody,
		HTMLBody:  htmlBody,
	})
	return nil
}

// SentMails returns a copy of everything sent so far
func (s *MockMailService) SentMails() []SentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMail, len(s.mails))
	copy(out, s.mails)
	return out
}
