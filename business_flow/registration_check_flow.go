package businessflow

import (
	"context"
	"time"

	"github.com/StevenOng97/backend-saas/models"
	"github.com/StevenOng97/backend-saas/repository"
)

// RegistrationCheckSchedule spaces the onboarding reminder checks after a
// business signs up. A stage index addresses this slice.
var RegistrationCheckSchedule = []time.Duration{
	30 * time.Minute,
	2 * time.Hour,
	6 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
}

// RegistrationCheckEnqueuer schedules the next onboarding check
type RegistrationCheckEnqueuer interface {
	EnqueueRegistrationCheck(ctx context.Context, businessID uint, stage int, delay time.Duration) error
}

// ReminderMailer sends onboarding reminder emails to admins
type ReminderMailer interface {
	SendRegistrationReminder(ctx context.Context, admin *models.User, business *models.Business) error
}

// RegistrationCheckFlow nudges businesses that signed up but never added
// customers. Each check either finds activity and stops, or reminds the
// admins and schedules the next stage.
type RegistrationCheckFlow interface {
	ScheduleInitialCheck(ctx context.Context, businessID uint) error
	CheckRegistration(ctx context.Context, businessID uint, stage int) error
}

type RegistrationCheckFlowImpl struct {
	businessRepo repository.BusinessRepository
	customerRepo repository.CustomerRepository
	userRepo     repository.UserRepository
	enqueuer     RegistrationCheckEnqueuer
	mailer       ReminderMailer
}

func NewRegistrationCheckFlow(
	businessRepo repository.BusinessRepository,
	customerRepo repository.CustomerRepository,
	userRepo repository.UserRepository,
	enqueuer RegistrationCheckEnqueuer,
	mailer ReminderMailer,
) RegistrationCheckFlow {
	return &RegistrationCheckFlowImpl{
		businessRepo: businessRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		enqueuer:     enqueuer,
		mailer:       mailer,
	}
}

func (f *RegistrationCheckFlowImpl) ScheduleInitialCheck(ctx context.Context, businessID uint) error {
	return f.enqueuer.EnqueueRegistrationCheck(ctx, businessID, 0, RegistrationCheckSchedule[0])
}

func (f *RegistrationCheckFlowImpl) CheckRegistration(ctx context.Context, businessID uint, stage int) error {
	business, err := f.businessRepo.ByID(ctx, businessID)
	if err != nil {
		return NewBusinessError("BUSINESS_LOOKUP_FAILED", "Failed to lookup business", err)
	}
	if business == nil {
		// Business deleted after scheduling, nothing to check
		return nil
	}

	count, err := f.customerRepo.Count(ctx, models.CustomerFilter{BusinessID: &businessID})
	if err != nil {
		return NewBusinessError("CUSTOMER_COUNT_FAILED", "Failed to count customers", err)
	}
	if count > 0 {
		// Onboarding complete, stop the reminder chain
		return nil
	}

	admins, err := f.userRepo.ListAdminsByOrganization(ctx, business.OrganizationID)
	if err != nil {
		return NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to lookup admins", err)
	}

	// Best effort: a failed email never blocks the remaining admins or
	// the next scheduled check
	for _, admin := range admins {
		_ = f.mailer.SendRegistrationReminder(ctx, admin, business)
	}

	next := stage + 1
	if next >= len(RegistrationCheckSchedule) {
		return nil
	}
	return f.enqueuer.EnqueueRegistrationCheck(ctx, businessID, next, RegistrationCheckSchedule[next])
}
