package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/StevenOng97/backend-saas/models"
	"gorm.io/gorm"
)

// SmsLogRepositoryImpl implements SmsLogRepository
type SmsLogRepositoryImpl struct {
	*BaseRepository[models.SmsLog, models.SmsLogFilter]
}

func NewSmsLogRepository(db *gorm.DB) SmsLogRepository {
	return &SmsLogRepositoryImpl{BaseRepository: NewBaseRepository[models.SmsLog, models.SmsLogFilter](db)}
}

func (r *SmsLogRepositoryImpl) ByProviderSID(ctx context.Context, sid string) (*models.SmsLog, error) {
	db := r.getDB(ctx)
	var row models.SmsLog
	err := db.Where("provider_sid = ?", sid).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *SmsLogRepositoryImpl) Update(ctx context.Context, log *models.SmsLog) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Save(log).Error
	if err != nil {
		return fmt.Errorf("failed to update sms log: %w", err)
	}

	return nil
}

func (r *SmsLogRepositoryImpl) applyFilter(db *gorm.DB, f models.SmsLogFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.ProviderSID != nil {
		db = db.Where("provider_sid = ?", *f.ProviderSID)
	}
	if f.BusinessID != nil {
		db = db.Where("business_id = ?", *f.BusinessID)
	}
	if f.CustomerID != nil {
		db = db.Where("customer_id = ?", *f.CustomerID)
	}
	if f.InviteID != nil {
		db = db.Where("invite_id = ?", *f.InviteID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *SmsLogRepositoryImpl) ByFilter(ctx context.Context, filter models.SmsLogFilter, orderBy string, limit, offset int) ([]*models.SmsLog, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SmsLog{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.SmsLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SmsLogRepositoryImpl) Count(ctx context.Context, filter models.SmsLogFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SmsLog{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SmsLogRepositoryImpl) Exists(ctx context.Context, filter models.SmsLogFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
