package businessflow_test

import (
	"context"
	"testing"
	"time"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/models"
	"github.com/StevenOng97/backend-saas/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inviteFlowEnv struct {
	flow         businessflow.InviteFlow
	inviteRepo   *memInviteRepo
	customerRepo *memCustomerRepo
	businessRepo *memBusinessRepo
	enqueuer     *fakeEnqueuer
	quota        *fakeQuota
}

func newInviteFlowEnv() *inviteFlowEnv {
	env := &inviteFlowEnv{
		inviteRepo:   newMemInviteRepo(),
		customerRepo: newMemCustomerRepo(),
		businessRepo: newMemBusinessRepo(),
		enqueuer:     &fakeEnqueuer{},
		quota:        &fakeQuota{},
	}
	env.businessRepo.add(&models.Business{ID: 1, OrganizationID: 10, Name: "Sunrise Dental"})
	env.customerRepo.add(&models.Customer{ID: 100, BusinessID: 1, FirstName: "Alice", Phone: utils.ToPtr("+15551234567")})
	env.customerRepo.add(&models.Customer{ID: 101, BusinessID: 1, FirstName: "Bob", Phone: utils.ToPtr("+15557654321")})
	env.flow = businessflow.NewInviteFlow(env.inviteRepo, env.customerRepo, env.businessRepo, &fakeTransactor{}, env.enqueuer, env.quota)
	return env
}

func TestCreateInvite(t *testing.T) {
	env := newInviteFlowEnv()

	invite, err := env.flow.CreateInvite(context.Background(), businessflow.CreateInviteInput{
		BusinessID:     1,
		OrganizationID: 10,
		CustomerID:     100,
	})
	require.NoError(t, err)
	require.NotNil(t, invite)

	assert.NotZero(t, invite.ID)
	assert.Len(t, invite.ShortID, utils.ShortIDLength)
	assert.Len(t, invite.Token, 40)
	assert.Equal(t, models.InviteStatusPending, invite.Status)
	assert.WithinDuration(t, utils.UTCNowAdd(models.InviteExpiry), invite.ExpiresAt, time.Minute)

	require.Len(t, env.enqueuer.jobs, 1)
	assert.Equal(t, invite.ID, env.enqueuer.jobs[0].InviteID)
	assert.Equal(t, time.Duration(0), env.enqueuer.delays[0])

	assert.Equal(t, []uint{10}, env.quota.orgIDs)
	assert.Equal(t, []int{1}, env.quota.counts)
}

func TestCreateInviteScheduled(t *testing.T) {
	env := newInviteFlowEnv()
	sendAt := utils.UTCNowAdd(2 * time.Hour)

	invite, err := env.flow.CreateInvite(context.Background(), businessflow.CreateInviteInput{
		BusinessID:     1,
		OrganizationID: 10,
		CustomerID:     100,
		SendAt:         &sendAt,
	})
	require.NoError(t, err)
	require.NotNil(t, invite.SendAt)

	require.Len(t, env.enqueuer.delays, 1)
	assert.InDelta(t, (2 * time.Hour).Seconds(), env.enqueuer.delays[0].Seconds(), 5)
}

func TestCreateInvitePastScheduleRejected(t *testing.T) {
	env := newInviteFlowEnv()
	sendAt := utils.UTCNowAdd(-time.Minute)

	_, err := env.flow.CreateInvite(context.Background(), businessflow.CreateInviteInput{
		BusinessID:     1,
		OrganizationID: 10,
		CustomerID:     100,
		SendAt:         &sendAt,
	})
	assert.True(t, businessflow.IsInvalidSchedule(err))
	assert.Empty(t, env.enqueuer.jobs)
	// Schedule validation runs before the quota reservation
	assert.Empty(t, env.quota.counts)
}

func TestCreateInviteUnknownBusiness(t *testing.T) {
	env := newInviteFlowEnv()

	_, err := env.flow.CreateInvite(context.Background(), businessflow.CreateInviteInput{
		BusinessID:     99,
		OrganizationID: 10,
		CustomerID:     100,
	})
	assert.True(t, businessflow.IsBusinessNotFound(err))
}

func TestCreateInviteCustomerFromOtherBusiness(t *testing.T) {
	env := newInviteFlowEnv()
	env.customerRepo.add(&models.Customer{ID: 200, BusinessID: 2, FirstName: "Eve"})

	_, err := env.flow.CreateInvite(context.Background(), businessflow.CreateInviteInput{
		BusinessID:     1,
		OrganizationID: 10,
		CustomerID:     200,
	})
	assert.True(t, businessflow.IsCustomerNotFound(err))
}

func TestCreateInviteQuotaExceeded(t *testing.T) {
	env := newInviteFlowEnv()
	env.quota.err = businessflow.ErrQuotaExceeded

	_, err := env.flow.CreateInvite(context.Background(), businessflow.CreateInviteInput{
		BusinessID:     1,
		OrganizationID: 10,
		CustomerID:     100,
	})
	assert.True(t, businessflow.IsQuotaExceeded(err))
	assert.Empty(t, env.enqueuer.jobs)
}

func TestCreateBatchStaggersJobs(t *testing.T) {
	env := newInviteFlowEnv()

	invites, err := env.flow.CreateBatch(context.Background(), businessflow.CreateBatchInput{
		BusinessID:     1,
		OrganizationID: 10,
		CustomerIDs:    []uint{100, 101},
	})
	require.NoError(t, err)
	require.Len(t, invites, 2)
	assert.NotEqual(t, invites[0].ShortID, invites[1].ShortID)

	require.Len(t, env.enqueuer.jobs, 2)
	assert.Equal(t, time.Duration(0), env.enqueuer.delays[0])
	assert.Equal(t, utils.BatchStaggerInterval, env.enqueuer.delays[1])

	assert.Equal(t, []int{2}, env.quota.counts)
}

func TestCreateBatchAllOrNothing(t *testing.T) {
	env := newInviteFlowEnv()

	_, err := env.flow.CreateBatch(context.Background(), businessflow.CreateBatchInput{
		BusinessID:     1,
		OrganizationID: 10,
		CustomerIDs:    []uint{100, 999},
	})
	require.Error(t, err)
	assert.True(t, businessflow.IsCustomerNotFound(err))

	// Nothing persisted, nothing enqueued
	assert.Empty(t, env.inviteRepo.invites)
	assert.Empty(t, env.enqueuer.jobs)
}

func TestCreateBatchEmptyInput(t *testing.T) {
	env := newInviteFlowEnv()

	invites, err := env.flow.CreateBatch(context.Background(), businessflow.CreateBatchInput{
		BusinessID:     1,
		OrganizationID: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, invites)
	assert.Empty(t, env.enqueuer.jobs)
}

func TestCreateInviteSaveFailureDoesNotEnqueue(t *testing.T) {
	env := newInviteFlowEnv()
	env.inviteRepo.saveErr = assert.AnError

	_, err := env.flow.CreateInvite(context.Background(), businessflow.CreateInviteInput{
		BusinessID:     1,
		OrganizationID: 10,
		CustomerID:     100,
	})
	require.Error(t, err)
	assert.Empty(t, env.enqueuer.jobs)
}
