package worker

import (
	"context"
	"log"
	"time"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/repository"
	"github.com/StevenOng97/backend-saas/utils"
)

// PendingSweeper repairs the gap between the invite write and the queue
// enqueue: an invite persisted right before a crash never got its job, so
// it sits PENDING past any plausible dispatch latency. The sweeper
// re-enqueues those invites; duplicates are safe because dispatch skips
// invites that already left PENDING.
type PendingSweeper struct {
	inviteRepo repository.InviteRepository
	enqueuer   businessflow.DispatchEnqueuer
	logger     *log.Logger
	interval   time.Duration
	minAge     time.Duration
	batchSize  int
}

func NewPendingSweeper(
	inviteRepo repository.InviteRepository,
	enqueuer businessflow.DispatchEnqueuer,
	logger *log.Logger,
	interval time.Duration,
	minAge time.Duration,
) *PendingSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if minAge <= 0 {
		minAge = 10 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PendingSweeper{
		inviteRepo: inviteRepo,
		enqueuer:   enqueuer,
		logger:     logger,
		interval:   interval,
		minAge:     minAge,
		batchSize:  100,
	}
}

// Start launches the sweep loop and returns a stop function
func (s *PendingSweeper) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *PendingSweeper) sweepOnce(ctx context.Context) {
	cutoff := utils.UTCNow().Add(-s.minAge)
	stale, err := s.inviteRepo.ListPendingOlderThan(ctx, cutoff, s.batchSize)
	if err != nil {
		s.logger.Printf("sweeper: list pending invites failed: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	s.logger.Printf("sweeper: re-enqueueing %d stale pending invites", len(stale))

	for _, invite := range stale {
		job := businessflow.DispatchJob{
			InviteID:   invite.ID,
			BusinessID: invite.BusinessID,
			CustomerID: invite.CustomerID,
		}
		if err := s.enqueuer.EnqueueDispatch(ctx, job, 0); err != nil {
			s.logger.Printf("sweeper: re-enqueue invite id=%d failed: %v", invite.ID, err)
		}
	}
}
