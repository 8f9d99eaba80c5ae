// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"time"

	"github.com/StevenOng97/backend-saas/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client-related information for open tracking
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// DispatchJob identifies one invite to send
type DispatchJob struct {
	InviteID   uint `json:"invite_id"`
	BusinessID uint `json:"business_id"`
	CustomerID uint `json:"customer_id"`
}

// DispatchEnqueuer hands dispatch jobs to the durable queue. Implemented
// by the worker queue; flows depend on the interface so tests can capture
// enqueued jobs in memory.
type DispatchEnqueuer interface {
	EnqueueDispatch(ctx context.Context, job DispatchJob, delay time.Duration) error
	EnqueueDispatchBatch(ctx context.Context, jobs []DispatchJob, baseDelay, interval time.Duration) error
}

// QuotaChecker enforces per-organization invite limits before creation
type QuotaChecker interface {
	CheckInviteQuota(ctx context.Context, organizationID uint, count int) error
}

// NotifyResult records one admin notification attempt; the fan-out never
// aborts on individual failures
type NotifyResult struct {
	Email string
	Err   error
}

// AdminNotifier alerts organization admins about negative feedback
type AdminNotifier interface {
	NotifyNegativeFeedback(ctx context.Context, admins []*models.User, business *models.Business, customer *models.Customer, content string) []NotifyResult
}
