package repository

import (
	"context"
	"errors"

	"github.com/StevenOng97/backend-saas/models"
	"gorm.io/gorm"
)

// SmsTemplateRepositoryImpl implements SmsTemplateRepository
type SmsTemplateRepositoryImpl struct {
	*BaseRepository[models.SmsTemplate, models.SmsTemplateFilter]
}

func NewSmsTemplateRepository(db *gorm.DB) SmsTemplateRepository {
	return &SmsTemplateRepositoryImpl{BaseRepository: NewBaseRepository[models.SmsTemplate, models.SmsTemplateFilter](db)}
}

// DefaultForBusiness returns the template flagged default for a business,
// or nil when none is configured
func (r *SmsTemplateRepositoryImpl) DefaultForBusiness(ctx context.Context, businessID uint) (*models.SmsTemplate, error) {
	db := r.getDB(ctx)
	var row models.SmsTemplate
	err := db.Where("business_id = ? AND is_default = ?", businessID, true).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *SmsTemplateRepositoryImpl) applyFilter(db *gorm.DB, f models.SmsTemplateFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.BusinessID != nil {
		db = db.Where("business_id = ?", *f.BusinessID)
	}
	if f.IsDefault != nil {
		db = db.Where("is_default = ?", *f.IsDefault)
	}
	return db
}

func (r *SmsTemplateRepositoryImpl) ByFilter(ctx context.Context, filter models.SmsTemplateFilter, orderBy string, limit, offset int) ([]*models.SmsTemplate, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SmsTemplate{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.SmsTemplate
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SmsTemplateRepositoryImpl) Count(ctx context.Context, filter models.SmsTemplateFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SmsTemplate{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SmsTemplateRepositoryImpl) Exists(ctx context.Context, filter models.SmsTemplateFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
