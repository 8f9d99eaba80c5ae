package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/StevenOng97/backend-saas/models"
	"github.com/StevenOng97/backend-saas/repository"
	"github.com/StevenOng97/backend-saas/utils"
)

// SMSMessage is one outbound message handed to the transport provider.
// Exactly one of From or MessagingServiceSID is set.
type SMSMessage struct {
	To                  string
	Body                string
	From                *string
	MessagingServiceSID *string
}

// SMSSender is the transport provider boundary
type SMSSender interface {
	Send(ctx context.Context, msg SMSMessage) (string, error)
}

// ProviderError is an API-level rejection from the transport provider.
// These are semantic failures (bad number, blocked content) and must not
// be retried; network-level errors stay plain and retryable.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider rejected message (code %s): %s", e.Code, e.Message)
}

// DispatchResult reports the outcome of one dispatch attempt
type DispatchResult struct {
	ProviderMessageID string
	Success           bool
	Reason            string
}

// DispatchFlow consumes queue jobs, renders the invitation body, calls the
// transport provider, and records the outcome
type DispatchFlow interface {
	Dispatch(ctx context.Context, job DispatchJob) (*DispatchResult, error)
	FailDispatch(ctx context.Context, job DispatchJob, reason string) error
}

type DispatchFlowImpl struct {
	inviteRepo   repository.InviteRepository
	customerRepo repository.CustomerRepository
	businessRepo repository.BusinessRepository
	templateRepo repository.SmsTemplateRepository
	smsLogRepo   repository.SmsLogRepository
	sender       SMSSender
	frontendBase string
}

func NewDispatchFlow(
	inviteRepo repository.InviteRepository,
	customerRepo repository.CustomerRepository,
	businessRepo repository.BusinessRepository,
	templateRepo repository.SmsTemplateRepository,
	smsLogRepo repository.SmsLogRepository,
	sender SMSSender,
	frontendBase string,
) DispatchFlow {
	return &DispatchFlowImpl{
		inviteRepo:   inviteRepo,
		customerRepo: customerRepo,
		businessRepo: businessRepo,
		templateRepo: templateRepo,
		smsLogRepo:   smsLogRepo,
		sender:       sender,
		frontendBase: strings.TrimRight(frontendBase, "/"),
	}
}

func (f *DispatchFlowImpl) Dispatch(ctx context.Context, job DispatchJob) (*DispatchResult, error) {
	now := utils.UTCNow()

	invite, err := f.inviteRepo.ByID(ctx, job.InviteID)
	if err != nil {
		return nil, NewBusinessError("INVITE_LOOKUP_FAILED", "Failed to lookup invite", err)
	}
	if invite == nil {
		// Entity deleted after scheduling; audit and stop
		return f.failWithoutTransport(ctx, job, nil, "Invite not found")
	}

	// Duplicate delivery of the same job is expected under at-least-once;
	// an invite that already left PENDING needs no second send
	if invite.Status == models.InviteStatusSent || invite.Status == models.InviteStatusDelivered {
		return &DispatchResult{Success: true, Reason: "already dispatched"}, nil
	}

	// Guard against early dequeue of scheduled invites
	if invite.SendAt != nil && now.Add(utils.ScheduleTolerance).Before(*invite.SendAt) {
		return nil, ErrDequeuedTooEarly
	}

	business, err := f.businessRepo.ByID(ctx, job.BusinessID)
	if err != nil {
		return nil, NewBusinessError("BUSINESS_LOOKUP_FAILED", "Failed to lookup business", err)
	}
	if business == nil {
		return f.failWithoutTransport(ctx, job, invite, "Business not found")
	}

	customer, err := f.customerRepo.ByID(ctx, job.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}
	if customer == nil {
		return f.failWithoutTransport(ctx, job, invite, "Customer not found")
	}

	if utils.IsTrue(customer.OptedOut) {
		return f.failWithoutTransport(ctx, job, invite, utils.OptedOutNote)
	}

	if customer.Phone == nil || *customer.Phone == "" {
		return f.failWithoutTransport(ctx, job, invite, "Customer has no phone number")
	}

	to, err := utils.NormalizeE164(*customer.Phone)
	if err != nil {
		return f.failWithoutTransport(ctx, job, invite, fmt.Sprintf("Invalid phone number: %s", *customer.Phone))
	}

	body, err := f.renderBody(ctx, invite, business, customer)
	if err != nil {
		return f.failWithoutTransport(ctx, job, invite, fmt.Sprintf("Template error: %v", err))
	}

	msg := SMSMessage{
		To:                  to,
		Body:                body,
		From:                business.FromNumber,
		MessagingServiceSID: business.MessagingServiceSID,
	}

	sid, sendErr := f.sender.Send(ctx, msg)
	if sendErr != nil {
		var pe *ProviderError
		if errors.As(sendErr, &pe) {
			return f.failWithoutTransport(ctx, job, invite, pe.Error())
		}
		// Transient infrastructure error, let the queue retry
		return nil, NewBusinessError("SMS_SEND_FAILED", "Failed to send SMS", sendErr)
	}

	smsLog := &models.SmsLog{
		ProviderSID: sid,
		BusinessID:  job.BusinessID,
		CustomerID:  job.CustomerID,
		InviteID:    &invite.ID,
		PhoneNumber: to,
		Message:     body,
		Status:      models.SmsStatusQueued,
		SentAt:      utils.UTCNowPtr(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.smsLogRepo.Save(ctx, smsLog); err != nil {
		return nil, NewBusinessError("SMS_LOG_SAVE_FAILED", "Failed to save sms log", err)
	}

	if err := f.inviteRepo.UpdateStatus(ctx, invite.ID, models.InviteStatusSent); err != nil {
		return nil, NewBusinessError("INVITE_STATUS_UPDATE_FAILED", "Failed to update invite status", err)
	}

	return &DispatchResult{ProviderMessageID: sid, Success: true}, nil
}

// FailDispatch records a terminal failure for a job whose retries ran
// out, so the invite never sits PENDING without an audit trail
func (f *DispatchFlowImpl) FailDispatch(ctx context.Context, job DispatchJob, reason string) error {
	invite, err := f.inviteRepo.ByID(ctx, job.InviteID)
	if err != nil {
		return NewBusinessError("INVITE_LOOKUP_FAILED", "Failed to lookup invite", err)
	}
	// A duplicate delivery of the same job may have succeeded while this
	// copy was burning retries
	if invite != nil && (invite.Status == models.InviteStatusSent || invite.Status == models.InviteStatusDelivered) {
		return nil
	}
	if _, err := f.failWithoutTransport(ctx, job, invite, reason); err != nil && !IsTerminal(err) {
		return err
	}
	return nil
}

// failWithoutTransport records a failed delivery attempt with a synthetic
// provider SID and returns a terminal error so the queue does not retry
func (f *DispatchFlowImpl) failWithoutTransport(ctx context.Context, job DispatchJob, invite *models.Invite, reason string) (*DispatchResult, error) {
	sid, err := utils.GenerateSyntheticSID()
	if err != nil {
		return nil, NewBusinessError("SID_GENERATION_FAILED", "Failed to generate message sid", err)
	}

	now := utils.UTCNow()
	smsLog := &models.SmsLog{
		ProviderSID:  sid,
		BusinessID:   job.BusinessID,
		CustomerID:   job.CustomerID,
		PhoneNumber:  "",
		Message:      reason,
		Status:       models.SmsStatusFailed,
		ErrorMessage: utils.ToPtr(reason),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if invite != nil {
		smsLog.InviteID = &invite.ID
	}
	if err := f.smsLogRepo.Save(ctx, smsLog); err != nil {
		return nil, NewBusinessError("SMS_LOG_SAVE_FAILED", "Failed to save sms log", err)
	}

	if invite != nil {
		if err := f.inviteRepo.UpdateStatus(ctx, invite.ID, models.InviteStatusFailed); err != nil {
			return nil, NewBusinessError("INVITE_STATUS_UPDATE_FAILED", "Failed to update invite status", err)
		}
	}

	return &DispatchResult{ProviderMessageID: sid, Success: false, Reason: reason},
		Terminal(fmt.Errorf("dispatch failed: %s", reason))
}

func (f *DispatchFlowImpl) renderBody(ctx context.Context, invite *models.Invite, business *models.Business, customer *models.Customer) (string, error) {
	body := models.DefaultSmsTemplateBody
	if invite.Message != nil && *invite.Message != "" {
		body = *invite.Message
	} else {
		template, err := f.resolveTemplate(ctx, business)
		if err != nil {
			return "", err
		}
		if template != nil {
			body = template.Body
		}
	}

	reviewLink := f.frontendBase + "/rate/" + invite.ShortID
	body = strings.ReplaceAll(body, models.TemplateVarCustomerName, customer.FullName())
	body = strings.ReplaceAll(body, models.TemplateVarReviewLink, reviewLink)
	body = strings.ReplaceAll(body, models.TemplateVarBusinessName, business.Name)
	return body, nil
}

// resolveTemplate prefers the template the business pinned via
// DefaultTemplateID, then the is_default flag. A pinned template belonging
// to another business is ignored rather than leaked across tenants.
func (f *DispatchFlowImpl) resolveTemplate(ctx context.Context, business *models.Business) (*models.SmsTemplate, error) {
	if business.DefaultTemplateID != nil {
		template, err := f.templateRepo.ByID(ctx, *business.DefaultTemplateID)
		if err != nil {
			return nil, err
		}
		if template != nil && template.BusinessID == business.ID {
			return template, nil
		}
	}
	return f.templateRepo.DefaultForBusiness(ctx, business.ID)
}
