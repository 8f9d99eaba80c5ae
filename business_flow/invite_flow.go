package businessflow

import (
	"context"
	"time"

	"github.com/StevenOng97/backend-saas/models"
	"github.com/StevenOng97/backend-saas/repository"
	"github.com/StevenOng97/backend-saas/utils"
	"github.com/google/uuid"
)

// CreateInviteInput carries the parameters for a single invite
type CreateInviteInput struct {
	BusinessID     uint
	OrganizationID uint
	CustomerID     uint
	Message        *string
	SendAt         *time.Time
}

// CreateBatchInput carries the parameters for a batch of invites
type CreateBatchInput struct {
	BusinessID     uint
	OrganizationID uint
	CustomerIDs    []uint
	Message        *string
	SendAt         *time.Time
}

// InviteFlow creates review invitations and hands them to the dispatch queue
type InviteFlow interface {
	CreateInvite(ctx context.Context, input CreateInviteInput) (*models.Invite, error)
	CreateBatch(ctx context.Context, input CreateBatchInput) ([]*models.Invite, error)
}

type InviteFlowImpl struct {
	inviteRepo   repository.InviteRepository
	customerRepo repository.CustomerRepository
	businessRepo repository.BusinessRepository
	transactor   repository.Transactor
	enqueuer     DispatchEnqueuer
	quota        QuotaChecker
}

func NewInviteFlow(
	inviteRepo repository.InviteRepository,
	customerRepo repository.CustomerRepository,
	businessRepo repository.BusinessRepository,
	transactor repository.Transactor,
	enqueuer DispatchEnqueuer,
	quota QuotaChecker,
) InviteFlow {
	return &InviteFlowImpl{
		inviteRepo:   inviteRepo,
		customerRepo: customerRepo,
		businessRepo: businessRepo,
		transactor:   transactor,
		enqueuer:     enqueuer,
		quota:        quota,
	}
}

func (f *InviteFlowImpl) CreateInvite(ctx context.Context, input CreateInviteInput) (*models.Invite, error) {
	now := utils.UTCNow()

	if err := f.validateSchedule(input.SendAt, now); err != nil {
		return nil, err
	}

	if err := f.quota.CheckInviteQuota(ctx, input.OrganizationID, 1); err != nil {
		return nil, err
	}

	business, err := f.businessRepo.ByID(ctx, input.BusinessID)
	if err != nil {
		return nil, NewBusinessError("BUSINESS_LOOKUP_FAILED", "Failed to lookup business", err)
	}
	if business == nil {
		return nil, ErrBusinessNotFound
	}

	customer, err := f.customerRepo.ByIDForBusiness(ctx, input.CustomerID, input.BusinessID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	invite, err := f.buildInvite(ctx, input.BusinessID, input.OrganizationID, input.CustomerID, input.Message, input.SendAt, now, nil)
	if err != nil {
		return nil, err
	}

	err = f.transactor.Do(ctx, func(txCtx context.Context) error {
		return f.inviteRepo.Save(txCtx, invite)
	})
	if err != nil {
		return nil, NewBusinessError("INVITE_SAVE_FAILED", "Failed to save invite", err)
	}

	// Enqueue after commit. If the process dies here the invite stays
	// PENDING and the requeue sweeper re-enqueues it.
	job := DispatchJob{InviteID: invite.ID, BusinessID: invite.BusinessID, CustomerID: invite.CustomerID}
	if err := f.enqueuer.EnqueueDispatch(ctx, job, dispatchDelay(input.SendAt, now)); err != nil {
		return nil, NewBusinessError("INVITE_ENQUEUE_FAILED", "Failed to enqueue dispatch job", err)
	}

	return invite, nil
}

// CreateBatch validates every customer before writing anything, persists
// all rows atomically, then staggers the dispatch jobs
func (f *InviteFlowImpl) CreateBatch(ctx context.Context, input CreateBatchInput) ([]*models.Invite, error) {
	now := utils.UTCNow()

	if len(input.CustomerIDs) == 0 {
		return []*models.Invite{}, nil
	}

	if err := f.validateSchedule(input.SendAt, now); err != nil {
		return nil, err
	}

	if err := f.quota.CheckInviteQuota(ctx, input.OrganizationID, len(input.CustomerIDs)); err != nil {
		return nil, err
	}

	business, err := f.businessRepo.ByID(ctx, input.BusinessID)
	if err != nil {
		return nil, NewBusinessError("BUSINESS_LOOKUP_FAILED", "Failed to lookup business", err)
	}
	if business == nil {
		return nil, ErrBusinessNotFound
	}

	// All-or-nothing: any unknown customer fails the batch before writes
	for _, customerID := range input.CustomerIDs {
		customer, err := f.customerRepo.ByIDForBusiness(ctx, customerID, input.BusinessID)
		if err != nil {
			return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
		}
		if customer == nil {
			return nil, NewBusinessErrorf("CUSTOMER_NOT_FOUND", "Customer %d not found for business", ErrCustomerNotFound, customerID)
		}
	}

	// Short ids chosen earlier in the batch are not persisted yet, so the
	// uniqueness probe must also consult the in-memory set
	chosen := make(map[string]bool, len(input.CustomerIDs))
	invites := make([]*models.Invite, 0, len(input.CustomerIDs))
	for _, customerID := range input.CustomerIDs {
		invite, err := f.buildInvite(ctx, input.BusinessID, input.OrganizationID, customerID, input.Message, input.SendAt, now, chosen)
		if err != nil {
			return nil, err
		}
		chosen[invite.ShortID] = true
		invites = append(invites, invite)
	}

	err = f.transactor.Do(ctx, func(txCtx context.Context) error {
		return f.inviteRepo.SaveBatch(txCtx, invites)
	})
	if err != nil {
		return nil, NewBusinessError("INVITE_BATCH_SAVE_FAILED", "Failed to save invite batch", err)
	}

	jobs := make([]DispatchJob, 0, len(invites))
	for _, invite := range invites {
		jobs = append(jobs, DispatchJob{InviteID: invite.ID, BusinessID: invite.BusinessID, CustomerID: invite.CustomerID})
	}
	if err := f.enqueuer.EnqueueDispatchBatch(ctx, jobs, dispatchDelay(input.SendAt, now), utils.BatchStaggerInterval); err != nil {
		return nil, NewBusinessError("INVITE_BATCH_ENQUEUE_FAILED", "Failed to enqueue dispatch jobs", err)
	}

	return invites, nil
}

func (f *InviteFlowImpl) validateSchedule(sendAt *time.Time, now time.Time) error {
	if sendAt != nil && !sendAt.After(now) {
		return ErrInvalidSchedule
	}
	return nil
}

func (f *InviteFlowImpl) buildInvite(ctx context.Context, businessID, organizationID, customerID uint, message *string, sendAt *time.Time, now time.Time, reserved map[string]bool) (*models.Invite, error) {
	shortID, err := utils.GenerateUniqueShortID(ctx, func(ctx context.Context, candidate string) (bool, error) {
		if reserved != nil && reserved[candidate] {
			return true, nil
		}
		return f.inviteRepo.ExistsByShortID(ctx, candidate)
	})
	if err != nil {
		return nil, NewBusinessError("SHORT_ID_GENERATION_FAILED", "Failed to generate short id", err)
	}

	token, err := utils.GenerateInviteToken()
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate invite token", err)
	}

	return &models.Invite{
		UUID:           uuid.New(),
		ShortID:        shortID,
		Token:          token,
		BusinessID:     businessID,
		CustomerID:     customerID,
		OrganizationID: organizationID,
		Status:         models.InviteStatusPending,
		Message:        message,
		SendAt:         sendAt,
		ExpiresAt:      now.Add(models.InviteExpiry),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func dispatchDelay(sendAt *time.Time, now time.Time) time.Duration {
	if sendAt == nil {
		return 0
	}
	d := sendAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
