package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/StevenOng97/backend-saas/models"
	"gorm.io/gorm"
)

// CustomerRepositoryImpl implements CustomerRepository
type CustomerRepositoryImpl struct {
	*BaseRepository[models.Customer, models.CustomerFilter]
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &CustomerRepositoryImpl{BaseRepository: NewBaseRepository[models.Customer, models.CustomerFilter](db)}
}

// ByIDForBusiness fetches a customer only if it belongs to the given business
func (r *CustomerRepositoryImpl) ByIDForBusiness(ctx context.Context, customerID, businessID uint) (*models.Customer, error) {
	db := r.getDB(ctx)
	var row models.Customer
	err := db.Where("id = ? AND business_id = ?", customerID, businessID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *CustomerRepositoryImpl) ListByPhone(ctx context.Context, phone string) ([]*models.Customer, error) {
	filter := models.CustomerFilter{Phone: &phone}
	return r.ByFilter(ctx, filter, "id ASC", 0, 0)
}

// SetOptedOutByPhone flips the opt-out flag on every customer row sharing
// the phone number. Returns the number of rows updated.
func (r *CustomerRepositoryImpl) SetOptedOutByPhone(ctx context.Context, phone string, optedOut bool) (int64, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
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

	res := db.Model(&models.Customer{}).Where("phone = ?", phone).
		Updates(map[string]any{"opted_out": optedOut, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		err = fmt.Errorf("failed to update opt-out by phone: %w", res.Error)
		return 0, err
	}

	return res.RowsAffected, nil
}

func (r *CustomerRepositoryImpl) UpdateStatus(ctx context.Context, customerID uint, status models.CustomerStatus) error {
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

	err = db.Model(&models.Customer{}).Where("id = ?", customerID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("failed to update customer status: %w", err)
	}

	return nil
}

func (r *CustomerRepositoryImpl) applyFilter(db *gorm.DB, f models.CustomerFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.BusinessID != nil {
		db = db.Where("business_id = ?", *f.BusinessID)
	}
	if f.Phone != nil {
		db = db.Where("phone = ?", *f.Phone)
	}
	if f.Email != nil {
		db = db.Where("email = ?", *f.Email)
	}
	if f.OptedOut != nil {
		db = db.Where("opted_out = ?", *f.OptedOut)
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

func (r *CustomerRepositoryImpl) ByFilter(ctx context.Context, filter models.CustomerFilter, orderBy string, limit, offset int) ([]*models.Customer, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Customer{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Customer
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CustomerRepositoryImpl) Count(ctx context.Context, filter models.CustomerFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Customer{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CustomerRepositoryImpl) Exists(ctx context.Context, filter models.CustomerFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
