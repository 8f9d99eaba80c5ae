package businessflow

import (
	"context"
	"fmt"
	"net/url"

	"github.com/StevenOng97/backend-saas/models"
	"github.com/StevenOng97/backend-saas/repository"
	"github.com/StevenOng97/backend-saas/utils"
)

// Redirect destinations after a rating submission
const (
	RedirectTypeGoogleReviews = "google_reviews"
	RedirectTypeFeedbackForm  = "feedback_form"
)

// RatingView is the public rating-page state for an invite
type RatingView struct {
	InviteID     uint   `json:"invite_id"`
	ShortID      string `json:"short_id"`
	BusinessName string `json:"business_name"`
	CustomerName string `json:"customer_name"`
	AlreadyRated bool   `json:"already_rated"`
}

// RatingDecision tells the client where to send the customer next. A
// negative rating is the only path to the feedback form and never reaches
// a public destination.
type RatingDecision struct {
	RatingID         uint   `json:"rating_id"`
	RedirectType     string `json:"redirect_type"`
	RedirectURL      string `json:"redirect_url"`
	RequiresFeedback bool   `json:"requires_feedback"`
}

// RatingFlow guards the rating state machine: an invite is rated at most
// once, and only negative ratings may receive feedback
type RatingFlow interface {
	GetForRating(ctx context.Context, shortID string) (*RatingView, error)
	SubmitRating(ctx context.Context, shortID string, value models.RatingValue, metadata *ClientMetadata) (*RatingDecision, error)
	SubmitFeedback(ctx context.Context, ratingID uint, content string) (*models.Feedback, []NotifyResult, error)
}

type RatingFlowImpl struct {
	inviteRepo   repository.InviteRepository
	ratingRepo   repository.RatingRepository
	feedbackRepo repository.FeedbackRepository
	customerRepo repository.CustomerRepository
	userRepo     repository.UserRepository
	transactor   repository.Transactor
	notifier     AdminNotifier
}

func NewRatingFlow(
	inviteRepo repository.InviteRepository,
	ratingRepo repository.RatingRepository,
	feedbackRepo repository.FeedbackRepository,
	customerRepo repository.CustomerRepository,
	userRepo repository.UserRepository,
	transactor repository.Transactor,
	notifier AdminNotifier,
) RatingFlow {
	return &RatingFlowImpl{
		inviteRepo:   inviteRepo,
		ratingRepo:   ratingRepo,
		feedbackRepo: feedbackRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		transactor:   transactor,
		notifier:     notifier,
	}
}

func (f *RatingFlowImpl) GetForRating(ctx context.Context, shortID string) (*RatingView, error) {
	invite, err := f.loadActionableInvite(ctx, shortID)
	if err != nil {
		return nil, err
	}

	rating, err := f.ratingRepo.ByInviteID(ctx, invite.ID)
	if err != nil {
		return nil, NewBusinessError("RATING_LOOKUP_FAILED", "Failed to lookup rating", err)
	}

	view := &RatingView{
		InviteID:     invite.ID,
		ShortID:      invite.ShortID,
		AlreadyRated: rating != nil,
	}
	if invite.Business != nil {
		view.BusinessName = invite.Business.Name
	}
	if invite.Customer != nil {
		view.CustomerName = invite.Customer.FullName()
	}
	return view, nil
}

func (f *RatingFlowImpl) SubmitRating(ctx context.Context, shortID string, value models.RatingValue, metadata *ClientMetadata) (*RatingDecision, error) {
	if !value.Valid() {
		return nil, ErrInvalidRatingValue
	}

	invite, err := f.loadActionableInvite(ctx, shortID)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	rating := &models.Rating{
		InviteID:  invite.ID,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = f.transactor.Do(ctx, func(txCtx context.Context) error {
		existing, err := f.ratingRepo.ByInviteID(txCtx, invite.ID)
		if err != nil {
			return NewBusinessError("RATING_LOOKUP_FAILED", "Failed to lookup rating", err)
		}
		if existing != nil {
			return ErrAlreadyRated
		}

		// First interaction with the rating page: record open tracking
		if invite.OpenedAt == nil {
			invite.OpenedAt = &now
			if metadata != nil {
				if metadata.UserAgent != "" {
					invite.DeviceInfo = utils.ToPtr(metadata.UserAgent)
				}
				if metadata.IPAddress != "" {
					invite.IPAddress = utils.ToPtr(metadata.IPAddress)
				}
			}
			invite.UpdatedAt = now
			if err := f.inviteRepo.Update(txCtx, invite); err != nil {
				return NewBusinessError("INVITE_UPDATE_FAILED", "Failed to update invite", err)
			}
		}

		if err := f.ratingRepo.Save(txCtx, rating); err != nil {
			return NewBusinessError("RATING_SAVE_FAILED", "Failed to save rating", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	decision := &RatingDecision{RatingID: rating.ID}
	if value.IsNegative() {
		decision.RedirectType = RedirectTypeFeedbackForm
		decision.RedirectURL = fmt.Sprintf("/feedback-form/%d", invite.ID)
		decision.RequiresFeedback = true
		return decision, nil
	}

	decision.RedirectType = RedirectTypeGoogleReviews
	decision.RedirectURL = reviewDestination(invite.Business)
	decision.RequiresFeedback = false
	return decision, nil
}

// SubmitFeedback persists the feedback atomically, then notifies every
// organization admin best-effort. Notification failures never roll back
// the feedback write.
func (f *RatingFlowImpl) SubmitFeedback(ctx context.Context, ratingID uint, content string) (*models.Feedback, []NotifyResult, error) {
	rating, err := f.ratingRepo.ByID(ctx, ratingID)
	if err != nil {
		return nil, nil, NewBusinessError("RATING_LOOKUP_FAILED", "Failed to lookup rating", err)
	}
	if rating == nil {
		return nil, nil, ErrRatingNotFound
	}
	if !rating.Value.IsNegative() {
		return nil, nil, ErrFeedbackNotApplicable
	}

	now := utils.UTCNow()
	feedback := &models.Feedback{
		RatingID:  ratingID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = f.transactor.Do(ctx, func(txCtx context.Context) error {
		existing, err := f.feedbackRepo.ByRatingID(txCtx, ratingID)
		if err != nil {
			return NewBusinessError("FEEDBACK_LOOKUP_FAILED", "Failed to lookup feedback", err)
		}
		if existing != nil {
			return ErrFeedbackAlreadyProvided
		}
		if err := f.feedbackRepo.Save(txCtx, feedback); err != nil {
			return NewBusinessError("FEEDBACK_SAVE_FAILED", "Failed to save feedback", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	results := f.notifyAdmins(ctx, rating.InviteID, content)
	return feedback, results, nil
}

func (f *RatingFlowImpl) loadActionableInvite(ctx context.Context, shortID string) (*models.Invite, error) {
	invite, err := f.inviteRepo.ByShortID(ctx, shortID)
	if err != nil {
		return nil, NewBusinessError("INVITE_LOOKUP_FAILED", "Failed to lookup invite", err)
	}
	if invite == nil {
		return nil, ErrInviteNotFound
	}
	if invite.IsExpired(utils.UTCNow()) {
		return nil, ErrInviteExpired
	}
	return invite, nil
}

func (f *RatingFlowImpl) notifyAdmins(ctx context.Context, inviteID uint, content string) []NotifyResult {
	invite, err := f.inviteRepo.ByID(ctx, inviteID)
	if err != nil || invite == nil {
		return nil
	}

	admins, err := f.userRepo.ListAdminsByOrganization(ctx, invite.OrganizationID)
	if err != nil || len(admins) == 0 {
		return nil
	}

	business, err := f.businessOf(ctx, invite)
	if err != nil {
		return nil
	}

	customer, err := f.customerRepo.ByID(ctx, invite.CustomerID)
	if err != nil {
		customer = nil
	}

	return f.notifier.NotifyNegativeFeedback(ctx, admins, business, customer, content)
}

func (f *RatingFlowImpl) businessOf(ctx context.Context, invite *models.Invite) (*models.Business, error) {
	if invite.Business != nil {
		return invite.Business, nil
	}
	// ByID on the invite repo does not preload relations
	loaded, err := f.inviteRepo.ByShortID(ctx, invite.ShortID)
	if err != nil || loaded == nil {
		return nil, err
	}
	return loaded.Business, nil
}

// reviewDestination returns the business review link, or a search fallback
// when none is configured
func reviewDestination(business *models.Business) string {
	if business != nil && business.ReviewLink != nil && *business.ReviewLink != "" {
		return *business.ReviewLink
	}
	name := ""
	if business != nil {
		name = business.Name
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(name+" reviews")
}
