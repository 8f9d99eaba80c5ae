package businessflow

import (
	"context"

	"github.com/StevenOng97/backend-saas/models"
	"github.com/StevenOng97/backend-saas/repository"
)

// FeedbackQueryFlow lists captured feedback for a business dashboard
type FeedbackQueryFlow interface {
	ListForBusiness(ctx context.Context, businessID uint, limit, offset int) ([]*models.Feedback, error)
}

type FeedbackQueryFlowImpl struct {
	feedbackRepo repository.FeedbackRepository
	businessRepo repository.BusinessRepository
}

func NewFeedbackQueryFlow(feedbackRepo repository.FeedbackRepository, businessRepo repository.BusinessRepository) FeedbackQueryFlow {
	return &FeedbackQueryFlowImpl{feedbackRepo: feedbackRepo, businessRepo: businessRepo}
}

func (f *FeedbackQueryFlowImpl) ListForBusiness(ctx context.Context, businessID uint, limit, offset int) ([]*models.Feedback, error) {
	business, err := f.businessRepo.ByID(ctx, businessID)
	if err != nil {
		return nil, NewBusinessError("BUSINESS_LOOKUP_FAILED", "Failed to lookup business", err)
	}
	if business == nil {
		return nil, ErrBusinessNotFound
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := f.feedbackRepo.ListByBusiness(ctx, businessID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("FEEDBACK_LIST_FAILED", "Failed to list feedback", err)
	}
	return rows, nil
}
