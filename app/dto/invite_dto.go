package dto

import "time"

// CreateInviteRequest defines input for creating a single review invitation
type CreateInviteRequest struct {
	BusinessID     uint       `json:"business_id" validate:"required"`
	OrganizationID uint       `json:"organization_id" validate:"required"`
	CustomerID     uint       `json:"customer_id" validate:"required"`
	Message        *string    `json:"message,omitempty" validate:"omitempty,max=1600"`
	SendAt         *time.Time `json:"send_at,omitempty"`
}

// CreateBatchInviteRequest defines input for creating invitations for many customers at once
type CreateBatchInviteRequest struct {
	BusinessID     uint       `json:"business_id" validate:"required"`
	OrganizationID uint       `json:"organization_id" validate:"required"`
	CustomerIDs    []uint     `json:"customer_ids" validate:"required,min=1,max=500,dive,required"`
	Message        *string    `json:"message,omitempty" validate:"omitempty,max=1600"`
	SendAt         *time.Time `json:"send_at,omitempty"`
}

// InviteResponse is the public shape of a created invitation
type InviteResponse struct {
	ID        uint       `json:"id"`
	UUID      string     `json:"uuid"`
	ShortID   string     `json:"short_id"`
	Status    string     `json:"status"`
	SendAt    *time.Time `json:"send_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// CreateBatchInviteResponse wraps the invitations created by one batch call
type CreateBatchInviteResponse struct {
	Invites []InviteResponse `json:"invites"`
	Total   int              `json:"total"`
}
