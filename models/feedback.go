package models

import "time"

// Feedback is the private text a customer leaves after a thumbs-down
// rating. The unique index on RatingID enforces one feedback per rating.
type Feedback struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	RatingID uint   `gorm:"not null;uniqueIndex:uk_feedbacks_rating_id" json:"rating_id"`
	Content  string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_feedbacks_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Rating *Rating `gorm:"foreignKey:RatingID;references:ID" json:"rating,omitempty"`
}

func (Feedback) TableName() string { return "feedbacks" }

// FeedbackFilter provides filter fields for repository queries
type FeedbackFilter struct {
	ID            *uint
	RatingID      *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
