package repository

import (
	"context"
	"errors"

	"github.com/StevenOng97/backend-saas/models"
	"gorm.io/gorm"
)

// BusinessRepositoryImpl implements BusinessRepository
type BusinessRepositoryImpl struct {
	*BaseRepository[models.Business, models.BusinessFilter]
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &BusinessRepositoryImpl{BaseRepository: NewBaseRepository[models.Business, models.BusinessFilter](db)}
}

func (r *BusinessRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Business, error) {
	db := r.getDB(ctx)
	var row models.Business
	err := db.Preload("DefaultTemplate").First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *BusinessRepositoryImpl) ListByOrganization(ctx context.Context, organizationID uint) ([]*models.Business, error) {
	filter := models.BusinessFilter{OrganizationID: &organizationID}
	return r.ByFilter(ctx, filter, "id ASC", 0, 0)
}

func (r *BusinessRepositoryImpl) applyFilter(db *gorm.DB, f models.BusinessFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.OrganizationID != nil {
		db = db.Where("organization_id = ?", *f.OrganizationID)
	}
	if f.Name != nil {
		db = db.Where("name = ?", *f.Name)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *BusinessRepositoryImpl) ByFilter(ctx context.Context, filter models.BusinessFilter, orderBy string, limit, offset int) ([]*models.Business, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Business{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Business
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BusinessRepositoryImpl) Count(ctx context.Context, filter models.BusinessFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Business{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *BusinessRepositoryImpl) Exists(ctx context.Context, filter models.BusinessFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
