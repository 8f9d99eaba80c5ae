package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus represents the delivery lifecycle of a review invitation
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusSent      InviteStatus = "sent"
	InviteStatusDelivered InviteStatus = "delivered"
	InviteStatusFailed    InviteStatus = "failed"
)

// InviteExpiry is how long a rating link stays valid after creation
const InviteExpiry = 30 * 24 * time.Hour

// Invite is a single review invitation sent to a customer over SMS.
// ShortID is the public slug embedded in the rating link; Token is the
// secret used for signed redirects and never serialized to clients.
type Invite struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_invites_uuid" json:"uuid"`

	ShortID string `gorm:"size:6;not null;uniqueIndex:uk_invites_short_id" json:"short_id"`
	Token   string `gorm:"size:64;not null;uniqueIndex:uk_invites_token" json:"-"`

	BusinessID     uint `gorm:"not null;index:idx_invites_business_id" json:"business_id"`
	CustomerID     uint `gorm:"not null;index:idx_invites_customer_id" json:"customer_id"`
	OrganizationID uint `gorm:"not null;index:idx_invites_organization_id" json:"organization_id"`

	Status InviteStatus `gorm:"type:invite_status;not null;default:'pending';index:idx_invites_status" json:"status"`

	// Message optionally overrides the business template body
	Message *string `gorm:"type:text" json:"message,omitempty"`

	// SendAt delays dispatch; nil means send immediately
	SendAt    *time.Time `gorm:"index:idx_invites_send_at" json:"send_at,omitempty"`
	ExpiresAt time.Time  `gorm:"not null;index:idx_invites_expires_at" json:"expires_at"`

	// Open tracking recorded on the first GET of the rating page
	OpenedAt   *time.Time `json:"opened_at,omitempty"`
	DeviceInfo *string    `gorm:"type:text" json:"device_info,omitempty"`
	IPAddress  *string    `gorm:"size:45" json:"ip_address,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_invites_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Business     *Business     `gorm:"foreignKey:BusinessID;references:ID" json:"business,omitempty"`
	Customer     *Customer     `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	Organization *Organization `gorm:"foreignKey:OrganizationID;references:ID" json:"-"`
}

func (Invite) TableName() string { return "invites" }

// IsExpired reports whether the rating link is no longer valid at now
func (i *Invite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// InviteFilter provides filter fields for repository queries
type InviteFilter struct {
	ID             *uint
	UUID           *uuid.UUID
	ShortID        *string
	BusinessID     *uint
	CustomerID     *uint
	OrganizationID *uint
	Status         *InviteStatus
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
