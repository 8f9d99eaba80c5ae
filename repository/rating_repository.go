package repository

import (
	"context"
	"errors"

	"github.com/StevenOng97/backend-saas/models"
	"gorm.io/gorm"
)

// RatingRepositoryImpl implements RatingRepository
type RatingRepositoryImpl struct {
	*BaseRepository[models.Rating, models.RatingFilter]
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &RatingRepositoryImpl{BaseRepository: NewBaseRepository[models.Rating, models.RatingFilter](db)}
}

func (r *RatingRepositoryImpl) ByInviteID(ctx context.Context, inviteID uint) (*models.Rating, error) {
	db := r.getDB(ctx)
	var row models.Rating
	err := db.Where("invite_id = ?", inviteID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RatingRepositoryImpl) applyFilter(db *gorm.DB, f models.RatingFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.InviteID != nil {
		db = db.Where("invite_id = ?", *f.InviteID)
	}
	if f.Value != nil {
		db = db.Where("value = ?", *f.Value)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *RatingRepositoryImpl) ByFilter(ctx context.Context, filter models.RatingFilter, orderBy string, limit, offset int) ([]*models.Rating, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Rating{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Rating
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *RatingRepositoryImpl) Count(ctx context.Context, filter models.RatingFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Rating{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RatingRepositoryImpl) Exists(ctx context.Context, filter models.RatingFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
