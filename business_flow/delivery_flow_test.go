package businessflow_test

import (
	"context"
	"testing"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/models"
	"github.com/StevenOng97/backend-saas/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deliveryFlowEnv struct {
	flow         businessflow.DeliveryFlow
	smsLogRepo   *memSmsLogRepo
	inviteRepo   *memInviteRepo
	customerRepo *memCustomerRepo
}

func newDeliveryFlowEnv() *deliveryFlowEnv {
	env := &deliveryFlowEnv{
		smsLogRepo:   newMemSmsLogRepo(),
		inviteRepo:   newMemInviteRepo(),
		customerRepo: newMemCustomerRepo(),
	}
	env.customerRepo.add(&models.Customer{ID: 100, BusinessID: 1, FirstName: "Alice", Phone: utils.ToPtr("+15551234567")})
	env.flow = businessflow.NewDeliveryFlow(env.smsLogRepo, env.inviteRepo, env.customerRepo, &fakeTransactor{})
	return env
}

func (env *deliveryFlowEnv) addQueuedLog() *models.SmsLog {
	invite := env.inviteRepo.add(&models.Invite{
		ShortID:    "abc123",
		BusinessID: 1,
		CustomerID: 100,
		Status:     models.InviteStatusSent,
	})
	return env.smsLogRepo.add(&models.SmsLog{
		ProviderSID: "SMfeedbeef0123456789abcdef012345",
		BusinessID:  1,
		CustomerID:  100,
		InviteID:    &invite.ID,
		Status:      models.SmsStatusQueued,
	})
}

func TestApplyStatusDelivered(t *testing.T) {
	env := newDeliveryFlowEnv()
	smsLog := env.addQueuedLog()

	err := env.flow.ApplyStatus(context.Background(), smsLog.ProviderSID, businessflow.DeliveryOutcomeDelivered, nil)
	require.NoError(t, err)

	assert.Equal(t, models.SmsStatusDelivered, smsLog.Status)
	assert.NotNil(t, smsLog.DeliveredAt)

	invite, _ := env.inviteRepo.ByID(context.Background(), *smsLog.InviteID)
	assert.Equal(t, models.InviteStatusDelivered, invite.Status)

	customer, _ := env.customerRepo.ByID(context.Background(), 100)
	assert.Equal(t, models.CustomerStatusRequestSent, customer.Status)
}

func TestApplyStatusFailedWithKnownCode(t *testing.T) {
	env := newDeliveryFlowEnv()
	smsLog := env.addQueuedLog()

	err := env.flow.ApplyStatus(context.Background(), smsLog.ProviderSID, businessflow.DeliveryOutcomeFailed, utils.ToPtr("30004"))
	require.NoError(t, err)

	assert.Equal(t, models.SmsStatusFailed, smsLog.Status)
	require.NotNil(t, smsLog.ErrorCode)
	assert.Equal(t, "30004", *smsLog.ErrorCode)
	require.NotNil(t, smsLog.ErrorMessage)
	assert.Equal(t, "Message blocked", *smsLog.ErrorMessage)
	assert.Nil(t, smsLog.DeliveredAt)

	invite, _ := env.inviteRepo.ByID(context.Background(), *smsLog.InviteID)
	assert.Equal(t, models.InviteStatusFailed, invite.Status)

	// Failed delivery never marks the customer as contacted
	customer, _ := env.customerRepo.ByID(context.Background(), 100)
	assert.NotEqual(t, models.CustomerStatusRequestSent, customer.Status)
}

func TestApplyStatusFailedWithUnknownCode(t *testing.T) {
	env := newDeliveryFlowEnv()
	smsLog := env.addQueuedLog()

	err := env.flow.ApplyStatus(context.Background(), smsLog.ProviderSID, businessflow.DeliveryOutcomeFailed, utils.ToPtr("99999"))
	require.NoError(t, err)

	require.NotNil(t, smsLog.ErrorMessage)
	assert.Equal(t, "Unknown error", *smsLog.ErrorMessage)
}

func TestApplyStatusErrorCodeForcesFailure(t *testing.T) {
	env := newDeliveryFlowEnv()
	smsLog := env.addQueuedLog()

	// Some carriers report a code alongside a delivered outcome; the code wins
	err := env.flow.ApplyStatus(context.Background(), smsLog.ProviderSID, businessflow.DeliveryOutcomeDelivered, utils.ToPtr("30007"))
	require.NoError(t, err)

	assert.Equal(t, models.SmsStatusFailed, smsLog.Status)
	require.NotNil(t, smsLog.ErrorMessage)
	assert.Equal(t, "Message filtered", *smsLog.ErrorMessage)
}

func TestApplyStatusTerminalStateIsNoOp(t *testing.T) {
	env := newDeliveryFlowEnv()
	smsLog := env.addQueuedLog()
	smsLog.Status = models.SmsStatusDelivered
	deliveredAt := *utils.UTCNowPtr()
	smsLog.DeliveredAt = &deliveredAt

	err := env.flow.ApplyStatus(context.Background(), smsLog.ProviderSID, businessflow.DeliveryOutcomeFailed, utils.ToPtr("30004"))
	require.NoError(t, err)

	// Redelivered callback left everything untouched
	assert.Equal(t, models.SmsStatusDelivered, smsLog.Status)
	assert.Nil(t, smsLog.ErrorCode)
	invite, _ := env.inviteRepo.ByID(context.Background(), *smsLog.InviteID)
	assert.Equal(t, models.InviteStatusSent, invite.Status)
}

func TestApplyStatusUnknownSID(t *testing.T) {
	env := newDeliveryFlowEnv()

	err := env.flow.ApplyStatus(context.Background(), "SM0000000000000000000000000000ff", businessflow.DeliveryOutcomeDelivered, nil)
	assert.True(t, businessflow.IsSmsLogNotFound(err))
}

func TestSmsErrorReason(t *testing.T) {
	assert.Equal(t, "Queue overflow", businessflow.SmsErrorReason("30001"))
	assert.Equal(t, "Message filtered", businessflow.SmsErrorReason("30007"))
	assert.Equal(t, "MMS not supported by the receiving phone number in this region", businessflow.SmsErrorReason("30011"))
	assert.Equal(t, "Unknown error", businessflow.SmsErrorReason("12345"))
	assert.Equal(t, "Unknown error", businessflow.SmsErrorReason(""))
}

func TestInboundStopOptsOutAllMatches(t *testing.T) {
	env := newDeliveryFlowEnv()
	// Same number imported by two different businesses
	env.customerRepo.add(&models.Customer{ID: 200, BusinessID: 2, FirstName: "Alice", Phone: utils.ToPtr("+15551234567")})

	reply, err := env.flow.ApplyInboundKeyword(context.Background(), "+15551234567", "stop")
	require.NoError(t, err)
	assert.Equal(t, utils.OptOutReply, reply.Body)
	assert.Equal(t, int64(2), reply.CustomersUpdated)

	for _, id := range []uint{100, 200} {
		customer, _ := env.customerRepo.ByID(context.Background(), id)
		assert.True(t, utils.IsTrue(customer.OptedOut))
	}
}

func TestInboundStartRestoresConsent(t *testing.T) {
	env := newDeliveryFlowEnv()
	customer, _ := env.customerRepo.ByID(context.Background(), 100)
	customer.OptedOut = utils.ToPtr(true)

	reply, err := env.flow.ApplyInboundKeyword(context.Background(), "+15551234567", " START ")
	require.NoError(t, err)
	assert.Equal(t, utils.OptInReply, reply.Body)
	assert.Equal(t, int64(1), reply.CustomersUpdated)
	assert.False(t, utils.IsTrue(customer.OptedOut))
}

func TestInboundHelp(t *testing.T) {
	env := newDeliveryFlowEnv()

	reply, err := env.flow.ApplyInboundKeyword(context.Background(), "+15551234567", "Help")
	require.NoError(t, err)
	assert.Equal(t, utils.HelpReply, reply.Body)
	assert.Zero(t, reply.CustomersUpdated)
}

func TestInboundNonKeywordGetsNoReply(t *testing.T) {
	env := newDeliveryFlowEnv()

	cases := []string{"STOP PLEASE", "unsubscribe", "thanks!", ""}
	for _, body := range cases {
		reply, err := env.flow.ApplyInboundKeyword(context.Background(), "+15551234567", body)
		require.NoError(t, err)
		assert.Empty(t, reply.Body, "body %q", body)
	}

	customer, _ := env.customerRepo.ByID(context.Background(), 100)
	assert.False(t, utils.IsTrue(customer.OptedOut))
}

func TestInboundStopUnknownNumberStillReplies(t *testing.T) {
	env := newDeliveryFlowEnv()

	reply, err := env.flow.ApplyInboundKeyword(context.Background(), "+15550009999", "STOP")
	require.NoError(t, err)
	assert.Equal(t, utils.OptOutReply, reply.Body)
	assert.Zero(t, reply.CustomersUpdated)
}
