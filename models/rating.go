package models

import "time"

// RatingValue is a binary thumbs rating
type RatingValue int16

const (
	RatingThumbsDown RatingValue = 0
	RatingThumbsUp   RatingValue = 1
)

// IsNegative reports whether the rating routes to the private feedback form
func (v RatingValue) IsNegative() bool { return v == RatingThumbsDown }

// Valid reports whether v is one of the two accepted values
func (v RatingValue) Valid() bool {
	return v == RatingThumbsDown || v == RatingThumbsUp
}

// Rating is the customer's thumbs-up/down answer for one invite. The
// unique index on InviteID enforces at most one rating per invite.
type Rating struct {
	ID       uint        `gorm:"primaryKey" json:"id"`
	InviteID uint        `gorm:"not null;uniqueIndex:uk_ratings_invite_id" json:"invite_id"`
	Value    RatingValue `gorm:"not null" json:"value"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_ratings_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Invite   *Invite   `gorm:"foreignKey:InviteID;references:ID" json:"invite,omitempty"`
	Feedback *Feedback `gorm:"foreignKey:RatingID" json:"feedback,omitempty"`
}

func (Rating) TableName() string { return "ratings" }

// RatingFilter provides filter fields for repository queries
type RatingFilter struct {
	ID            *uint
	InviteID      *uint
	Value         *RatingValue
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
