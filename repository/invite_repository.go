package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/StevenOng97/backend-saas/models"
	"gorm.io/gorm"
)

// InviteRepositoryImpl implements InviteRepository
type InviteRepositoryImpl struct {
	*BaseRepository[models.Invite, models.InviteFilter]
}

func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &InviteRepositoryImpl{BaseRepository: NewBaseRepository[models.Invite, models.InviteFilter](db)}
}

func (r *InviteRepositoryImpl) ByShortID(ctx context.Context, shortID string) (*models.Invite, error) {
	db := r.getDB(ctx)
	var row models.Invite
	err := db.Preload("Business").Preload("Customer").
		Where("short_id = ?", shortID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *InviteRepositoryImpl) ExistsByShortID(ctx context.Context, shortID string) (bool, error) {
	filter := models.InviteFilter{ShortID: &shortID}
	return r.Exists(ctx, filter)
}

func (r *InviteRepositoryImpl) Update(ctx context.Context, invite *models.Invite) error {
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

	err = db.Save(invite).Error
	if err != nil {
		return fmt.Errorf("failed to update invite: %w", err)
	}

	return nil
}

func (r *InviteRepositoryImpl) UpdateStatus(ctx context.Context, inviteID uint, status models.InviteStatus) error {
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

	err = db.Model(&models.Invite{}).Where("id = ?", inviteID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("failed to update invite status: %w", err)
	}

	return nil
}

// ListPendingOlderThan returns pending invites created before cutoff, used
// by the requeue sweeper to repair enqueue failures
func (r *InviteRepositoryImpl) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*models.Invite, error) {
	db := r.getDB(ctx)
	now := time.Now().UTC()
	query := db.Model(&models.Invite{}).
		Where("status = ?", models.InviteStatusPending).
		Where("created_at < ?", cutoff).
		Where("expires_at > ?", now).
		Where("send_at IS NULL OR send_at < ?", now).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []*models.Invite
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *InviteRepositoryImpl) applyFilter(db *gorm.DB, f models.InviteFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.ShortID != nil {
		db = db.Where("short_id = ?", *f.ShortID)
	}
	if f.BusinessID != nil {
		db = db.Where("business_id = ?", *f.BusinessID)
	}
	if f.CustomerID != nil {
		db = db.Where("customer_id = ?", *f.CustomerID)
	}
	if f.OrganizationID != nil {
		db = db.Where("organization_id = ?", *f.OrganizationID)
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

func (r *InviteRepositoryImpl) ByFilter(ctx context.Context, filter models.InviteFilter, orderBy string, limit, offset int) ([]*models.Invite, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Invite{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Invite
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *InviteRepositoryImpl) Count(ctx context.Context, filter models.InviteFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Invite{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *InviteRepositoryImpl) Exists(ctx context.Context, filter models.InviteFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
