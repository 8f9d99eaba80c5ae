package dto

import "time"

// SubmitRatingRequest carries the thumbs up/down value from the public rating page
type SubmitRatingRequest struct {
	Value *int16 `json:"value" validate:"required,oneof=0 1"`
}

// SubmitFeedbackRequest carries the private feedback text for a negative rating
type SubmitFeedbackRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// FeedbackResponse is one captured feedback entry for the dashboard list
type FeedbackResponse struct {
	ID        uint      `json:"id"`
	RatingID  uint      `json:"rating_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ListFeedbackResponse wraps a page of feedback entries
type ListFeedbackResponse struct {
	Feedback []FeedbackResponse `json:"feedback"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}
