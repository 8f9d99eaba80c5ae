package businessflow

import (
	"context"
	"strings"

	"github.com/StevenOng97/backend-saas/models"
	"github.com/StevenOng97/backend-saas/repository"
	"github.com/StevenOng97/backend-saas/utils"
)

// Carrier error codes reported by delivery-status callbacks
var smsErrorReasons = map[string]string{
	"30001": "Queue overflow",
	"30002": "Account suspended",
	"30003": "Unreachable destination handset",
	"30004": "Message blocked",
	"30005": "Unknown destination handset",
	"30006": "Landline or unreachable carrier",
	"30007": "Message filtered",
	"30008": "Unknown error",
	"30009": "Missing inbound segment",
	"30010": "Message price exceeds max price",
	"30011": "MMS not supported by the receiving phone number in this region",
}

const unknownSmsErrorReason = "Unknown error"

// SmsErrorReason maps a carrier error code to a human-readable reason.
// Unmapped codes fall back to a generic message, never to silence.
func SmsErrorReason(code string) string {
	if reason, ok := smsErrorReasons[code]; ok {
		return reason
	}
	return unknownSmsErrorReason
}

// DeliveryOutcome is the carrier's verdict for one message
type DeliveryOutcome string

const (
	DeliveryOutcomeDelivered DeliveryOutcome = "delivered"
	DeliveryOutcomeFailed    DeliveryOutcome = "failed"
)

// InboundReply is the auto-reply decision for an inbound keyword
type InboundReply struct {
	// Body is empty when no auto-reply should be sent
	Body string
	// CustomersUpdated is how many customer rows changed consent state
	CustomersUpdated int64
}

// DeliveryFlow reconciles carrier callbacks and inbound keyword replies
// against delivery records and customer consent state
type DeliveryFlow interface {
	ApplyStatus(ctx context.Context, providerSID string, outcome DeliveryOutcome, errorCode *string) error
	ApplyInboundKeyword(ctx context.Context, fromNumber, body string) (*InboundReply, error)
}

type DeliveryFlowImpl struct {
	smsLogRepo   repository.SmsLogRepository
	inviteRepo   repository.InviteRepository
	customerRepo repository.CustomerRepository
	transactor   repository.Transactor
}

func NewDeliveryFlow(
	smsLogRepo repository.SmsLogRepository,
	inviteRepo repository.InviteRepository,
	customerRepo repository.CustomerRepository,
	transactor repository.Transactor,
) DeliveryFlow {
	return &DeliveryFlowImpl{
		smsLogRepo:   smsLogRepo,
		inviteRepo:   inviteRepo,
		customerRepo: customerRepo,
		transactor:   transactor,
	}
}

func (f *DeliveryFlowImpl) ApplyStatus(ctx context.Context, providerSID string, outcome DeliveryOutcome, errorCode *string) error {
	smsLog, err := f.smsLogRepo.ByProviderSID(ctx, providerSID)
	if err != nil {
		return NewBusinessError("SMS_LOG_LOOKUP_FAILED", "Failed to lookup sms log", err)
	}
	if smsLog == nil {
		return ErrSmsLogNotFound
	}

	// Webhook redelivery is expected; a record that already reached a
	// terminal state is left untouched
	if smsLog.Status.IsTerminal() {
		return nil
	}

	now := utils.UTCNow()
	failed := outcome == DeliveryOutcomeFailed || (errorCode != nil && *errorCode != "")

	return f.transactor.Do(ctx, func(txCtx context.Context) error {
		if failed {
			smsLog.Status = models.SmsStatusFailed
			if errorCode != nil && *errorCode != "" {
				smsLog.ErrorCode = errorCode
				smsLog.ErrorMessage = utils.ToPtr(SmsErrorReason(*errorCode))
			} else {
				smsLog.ErrorMessage = utils.ToPtr(unknownSmsErrorReason)
			}
		} else {
			smsLog.Status = models.SmsStatusDelivered
			smsLog.DeliveredAt = &now
		}
		smsLog.UpdatedAt = now

		if err := f.smsLogRepo.Update(txCtx, smsLog); err != nil {
			return NewBusinessError("SMS_LOG_UPDATE_FAILED", "Failed to update sms log", err)
		}

		if smsLog.InviteID != nil {
			status := models.InviteStatusDelivered
			if failed {
				status = models.InviteStatusFailed
			}
			if err := f.inviteRepo.UpdateStatus(txCtx, *smsLog.InviteID, status); err != nil {
				return NewBusinessError("INVITE_STATUS_UPDATE_FAILED", "Failed to update invite status", err)
			}
		}

		if !failed {
			if err := f.customerRepo.UpdateStatus(txCtx, smsLog.CustomerID, models.CustomerStatusRequestSent); err != nil {
				return NewBusinessError("CUSTOMER_STATUS_UPDATE_FAILED", "Failed to update customer status", err)
			}
		}

		return nil
	})
}

// ApplyInboundKeyword handles STOP/START/HELP replies. Keyword matching is
// exact after trim and case-fold, and zero matching customers is a
// successful no-op so senders cannot probe for known numbers.
func (f *DeliveryFlowImpl) ApplyInboundKeyword(ctx context.Context, fromNumber, body string) (*InboundReply, error) {
	keyword := strings.ToUpper(strings.TrimSpace(body))

	switch keyword {
	case "STOP":
		updated, err := f.customerRepo.SetOptedOutByPhone(ctx, fromNumber, true)
		if err != nil {
			return nil, NewBusinessError("OPT_OUT_FAILED", "Failed to opt out customer", err)
		}
		return &InboundReply{Body: utils.OptOutReply, CustomersUpdated: updated}, nil
	case "START":
		updated, err := f.customerRepo.SetOptedOutByPhone(ctx, fromNumber, false)
		if err != nil {
			return nil, NewBusinessError("OPT_IN_FAILED", "Failed to opt in customer", err)
		}
		return &InboundReply{Body: utils.OptInReply, CustomersUpdated: updated}, nil
	case "HELP":
		return &InboundReply{Body: utils.HelpReply}, nil
	default:
		return &InboundReply{}, nil
	}
}
