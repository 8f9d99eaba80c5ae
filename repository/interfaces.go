// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/StevenOng97/backend-saas/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// InviteRepository defines operations for review invitations
type InviteRepository interface {
	Repository[models.Invite, models.InviteFilter]
	ByShortID(ctx context.Context, shortID string) (*models.Invite, error)
	ExistsByShortID(ctx context.Context, shortID string) (bool, error)
	Update(ctx context.Context, invite *models.Invite) error
	UpdateStatus(ctx context.Context, inviteID uint, status models.InviteStatus) error
	ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*models.Invite, error)
}

// SmsLogRepository defines operations for outbound SMS records
type SmsLogRepository interface {
	Repository[models.SmsLog, models.SmsLogFilter]
	ByProviderSID(ctx context.Context, sid string) (*models.SmsLog, error)
	Update(ctx context.Context, log *models.SmsLog) error
}

// RatingRepository defines operations for thumbs ratings
type RatingRepository interface {
	Repository[models.Rating, models.RatingFilter]
	ByInviteID(ctx context.Context, inviteID uint) (*models.Rating, error)
}

// FeedbackRepository defines operations for private feedback
type FeedbackRepository interface {
	Repository[models.Feedback, models.FeedbackFilter]
	ByRatingID(ctx context.Context, ratingID uint) (*models.Feedback, error)
	ListByBusiness(ctx context.Context, businessID uint, limit, offset int) ([]*models.Feedback, error)
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByIDForBusiness(ctx context.Context, customerID, businessID uint) (*models.Customer, error)
	ListByPhone(ctx context.Context, phone string) ([]*models.Customer, error)
	SetOptedOutByPhone(ctx context.Context, phone string, optedOut bool) (int64, error)
	UpdateStatus(ctx context.Context, customerID uint, status models.CustomerStatus) error
}

// BusinessRepository defines operations for businesses
type BusinessRepository interface {
	Repository[models.Business, models.BusinessFilter]
	ListByOrganization(ctx context.Context, organizationID uint) ([]*models.Business, error)
}

// UserRepository defines operations for organization users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ListAdminsByOrganization(ctx context.Context, organizationID uint) ([]*models.User, error)
}

// SmsTemplateRepository defines operations for SMS templates
type SmsTemplateRepository interface {
	Repository[models.SmsTemplate, models.SmsTemplateFilter]
	DefaultForBusiness(ctx context.Context, businessID uint) (*models.SmsTemplate, error)
}
