package services

import (
	"context"
	"fmt"
	"time"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/redis/go-redis/v9"
)

// QuotaService caps invites per organization per calendar month using a
// redis counter. A limit of zero disables the check.
type QuotaService struct {
	rdb          *redis.Client
	monthlyLimit int64
}

func NewQuotaService(rdb *redis.Client, monthlyLimit int64) *QuotaService {
	return &QuotaService{rdb: rdb, monthlyLimit: monthlyLimit}
}

func (s *QuotaService) quotaKey(organizationID uint, now time.Time) string {
	return fmt.Sprintf("quota:invites:%d:%s", organizationID, now.Format("2006-01"))
}

// CheckInviteQuota reserves count invites against the monthly limit.
// The reservation is rolled back when it would exceed the cap.
func (s *QuotaService) CheckInviteQuota(ctx context.Context, organizationID uint, count int) error {
	if s.monthlyLimit <= 0 {
		return nil
	}

	key := s.quotaKey(organizationID, time.Now().UTC())
	total, err := s.rdb.IncrBy(ctx, key, int64(count)).Result()
	if err != nil {
		return fmt.Errorf("failed to update invite quota: %w", err)
	}
	// Counter keys expire well after the month rolls over
	s.rdb.Expire(ctx, key, 35*24*time.Hour)

	if total > s.monthlyLimit {
		if err := s.rdb.DecrBy(ctx, key, int64(count)).Err(); err != nil {
			return fmt.Errorf("failed to release invite quota: %w", err)
		}
		return businessflow.ErrQuotaExceeded
	}
	return nil
}
