package models

import "time"

// SmsStatus mirrors the provider-side message lifecycle
type SmsStatus string

const (
	SmsStatusQueued    SmsStatus = "queued"
	SmsStatusDelivered SmsStatus = "delivered"
	SmsStatusFailed    SmsStatus = "failed"
)

// IsTerminal reports whether no further status callbacks are expected
func (s SmsStatus) IsTerminal() bool {
	return s == SmsStatusDelivered || s == SmsStatusFailed
}

// SmsLog records one outbound message accepted by the SMS provider.
// ProviderSID is the provider's message identifier and is the lookup key
// for delivery status callbacks.
type SmsLog struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ProviderSID string `gorm:"size:64;not null;uniqueIndex:uk_sms_logs_provider_sid" json:"provider_sid"`

	BusinessID uint  `gorm:"not null;index:idx_sms_logs_business_id" json:"business_id"`
	CustomerID uint  `gorm:"not null;index:idx_sms_logs_customer_id" json:"customer_id"`
	InviteID   *uint `gorm:"index:idx_sms_logs_invite_id" json:"invite_id,omitempty"`

	PhoneNumber string    `gorm:"size:20;not null" json:"phone_number"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Status      SmsStatus `gorm:"type:sms_status;not null;default:'queued';index:idx_sms_logs_status" json:"status"`

	// ErrorCode and ErrorMessage are populated from failed status callbacks
	ErrorCode    *string `gorm:"size:16" json:"error_code,omitempty"`
	ErrorMessage *string `gorm:"type:text" json:"error_message,omitempty"`

	SentAt      *time.Time `json:"sent_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_sms_logs_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Invite *Invite `gorm:"foreignKey:InviteID;references:ID" json:"invite,omitempty"`
}

func (SmsLog) TableName() string { return "sms_logs" }

// SmsLogFilter provides filter fields for repository queries
type SmsLogFilter struct {
	ID            *uint
	ProviderSID   *string
	BusinessID    *uint
	CustomerID    *uint
	InviteID      *uint
	Status        *SmsStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
