package models

import (
	"time"

	"github.com/lib/pq"
)

// CustomerStatus tracks where a customer sits in the review-request funnel
type CustomerStatus string

const (
	CustomerStatusActive      CustomerStatus = "active"
	CustomerStatusRequestSent CustomerStatus = "request_sent"
)

// Customer is a review-invite recipient owned by a business. OptedOut is
// toggled by inbound STOP/START keywords and checked before every send.
type Customer struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	BusinessID uint `gorm:"not null;index:idx_customers_business_id" json:"business_id"`

	FirstName string  `gorm:"size:255;not null" json:"first_name"`
	LastName  *string `gorm:"size:255" json:"last_name,omitempty"`
	Email     *string `gorm:"size:255;index:idx_customers_email" json:"email,omitempty"`

	// Phone is stored as entered; normalization to E.164 happens at send time.
	// Not unique: the same number may exist under several businesses.
	Phone *string `gorm:"size:20;index:idx_customers_phone" json:"phone,omitempty"`

	OptedOut *bool          `gorm:"default:false;index:idx_customers_opted_out" json:"opted_out"`
	Status   CustomerStatus `gorm:"type:customer_status;not null;default:'active'" json:"status"`

	// Tags are free-form labels set at import time ("vip", "march-campaign")
	Tags pq.StringArray `gorm:"type:text[]" json:"tags,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_customers_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Business *Business `gorm:"foreignKey:BusinessID;references:ID" json:"business,omitempty"`
	Invites  []Invite  `gorm:"foreignKey:CustomerID" json:"-"`
}

func (Customer) TableName() string { return "customers" }

// FullName returns the customer's display name for template rendering
func (c *Customer) FullName() string {
	if c.LastName != nil && *c.LastName != "" {
		return c.FirstName + " " + *c.LastName
	}
	return c.FirstName
}

// CustomerFilter provides filter fields for repository queries
type CustomerFilter struct {
	ID            *uint
	BusinessID    *uint
	Phone         *string
	Email         *string
	OptedOut      *bool
	Status        *CustomerStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
