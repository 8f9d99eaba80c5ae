package models

import "time"

// Template placeholders substituted at dispatch time
const (
	TemplateVarCustomerName = "{customer_name}"
	TemplateVarReviewLink   = "{review_link}"
	TemplateVarBusinessName = "{business_name}"
)

// DefaultSmsTemplateBody is used when a business has no template configured
const DefaultSmsTemplateBody = "Hi {customer_name}, thanks for visiting {business_name}! We'd love your feedback: {review_link}"

// SmsTemplate is a reusable invitation body owned by a business
type SmsTemplate struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	BusinessID uint   `gorm:"not null;index:idx_sms_templates_business_id" json:"business_id"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Body       string `gorm:"type:text;not null" json:"body"`
	IsDefault  *bool  `gorm:"default:false;index:idx_sms_templates_is_default" json:"is_default"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (SmsTemplate) TableName() string { return "sms_templates" }

// SmsTemplateFilter provides filter fields for repository queries
type SmsTemplateFilter struct {
	ID         *uint
	BusinessID *uint
	IsDefault  *bool
}
