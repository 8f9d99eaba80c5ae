package repository

import (
	"context"
	"errors"

	"github.com/StevenOng97/backend-saas/models"
	"gorm.io/gorm"
)

// FeedbackRepositoryImpl implements FeedbackRepository
type FeedbackRepositoryImpl struct {
	*BaseRepository[models.Feedback, models.FeedbackFilter]
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &FeedbackRepositoryImpl{BaseRepository: NewBaseRepository[models.Feedback, models.FeedbackFilter](db)}
}

func (r *FeedbackRepositoryImpl) ByRatingID(ctx context.Context, ratingID uint) (*models.Feedback, error) {
	db := r.getDB(ctx)
	var row models.Feedback
	err := db.Where("rating_id = ?", ratingID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByBusiness joins through ratings and invites to scope feedback to one business
func (r *FeedbackRepositoryImpl) ListByBusiness(ctx context.Context, businessID uint, limit, offset int) ([]*models.Feedback, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Feedback{}).
		Joins("JOIN ratings ON ratings.id = feedbacks.rating_id").
		Joins("JOIN invites ON invites.id = ratings.invite_id").
		Where("invites.business_id = ?", businessID).
		Order("feedbacks.created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Feedback
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *FeedbackRepositoryImpl) applyFilter(db *gorm.DB, f models.FeedbackFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.RatingID != nil {
		db = db.Where("rating_id = ?", *f.RatingID)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *FeedbackRepositoryImpl) ByFilter(ctx context.Context, filter models.FeedbackFilter, orderBy string, limit, offset int) ([]*models.Feedback, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Feedback{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Feedback
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *FeedbackRepositoryImpl) Count(ctx context.Context, filter models.FeedbackFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Feedback{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *FeedbackRepositoryImpl) Exists(ctx context.Context, filter models.FeedbackFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
