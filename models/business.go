package models

import "time"

// Business holds the sender configuration and review destination for one
// storefront. FromNumber and MessagingServiceSID are mutually exclusive
// sender identities; the shared-tier messaging service is used when the
// business has no dedicated number.
type Business struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	OrganizationID uint `gorm:"not null;index:idx_businesses_organization_id" json:"organization_id"`

	Name string `gorm:"size:255;not null" json:"name"`

	// ReviewLink is where thumbs-up customers are redirected (e.g. the
	// business's Google reviews URL); nil falls back to a search link
	ReviewLink *string `gorm:"type:text" json:"review_link,omitempty"`

	FromNumber          *string `gorm:"size:20" json:"from_number,omitempty"`
	MessagingServiceSID *string `gorm:"size:64" json:"messaging_service_sid,omitempty"`

	// DefaultTemplateID selects the SMS body; nil uses the built-in default
	DefaultTemplateID *uint `gorm:"index:idx_businesses_default_template_id" json:"default_template_id,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_businesses_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Organization    *Organization `gorm:"foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`
	DefaultTemplate *SmsTemplate  `gorm:"foreignKey:DefaultTemplateID;references:ID" json:"default_template,omitempty"`
	Customers       []Customer    `gorm:"foreignKey:BusinessID" json:"-"`
}

func (Business) TableName() string { return "businesses" }

// BusinessFilter provides filter fields for repository queries
type BusinessFilter struct {
	ID             *uint
	OrganizationID *uint
	Name           *string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
