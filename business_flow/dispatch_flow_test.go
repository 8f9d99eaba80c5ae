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

type dispatchFlowEnv struct {
	flow         businessflow.DispatchFlow
	inviteRepo   *memInviteRepo
	customerRepo *memCustomerRepo
	businessRepo *memBusinessRepo
	templateRepo *memTemplateRepo
	smsLogRepo   *memSmsLogRepo
	sender       *fakeSender
}

func newDispatchFlowEnv() *dispatchFlowEnv {
	env := &dispatchFlowEnv{
		inviteRepo:   newMemInviteRepo(),
		customerRepo: newMemCustomerRepo(),
		businessRepo: newMemBusinessRepo(),
		templateRepo: newMemTemplateRepo(),
		smsLogRepo:   newMemSmsLogRepo(),
		sender:       &fakeSender{},
	}
	env.businessRepo.add(&models.Business{
		ID:                  1,
		OrganizationID:      10,
		Name:                "Sunrise Dental",
		MessagingServiceSID: utils.ToPtr("MG123"),
	})
	env.customerRepo.add(&models.Customer{ID: 100, BusinessID: 1, FirstName: "Alice", Phone: utils.ToPtr("+15551234567")})
	env.flow = businessflow.NewDispatchFlow(
		env.inviteRepo, env.customerRepo, env.businessRepo, env.templateRepo, env.smsLogRepo,
		env.sender, "https://app.example.com/",
	)
	return env
}

func (env *dispatchFlowEnv) addPendingInvite() *models.Invite {
	return env.inviteRepo.add(&models.Invite{
		ShortID:    "abc123",
		BusinessID: 1,
		CustomerID: 100,
		Status:     models.InviteStatusPending,
		ExpiresAt:  utils.UTCNowAdd(models.InviteExpiry),
	})
}

func (env *dispatchFlowEnv) job(invite *models.Invite) businessflow.DispatchJob {
	return businessflow.DispatchJob{InviteID: invite.ID, BusinessID: invite.BusinessID, CustomerID: invite.CustomerID}
}

func TestDispatchSendsAndRecords(t *testing.T) {
	env := newDispatchFlowEnv()
	invite := env.addPendingInvite()

	result, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.ProviderMessageID)

	require.Len(t, env.sender.messages, 1)
	msg := env.sender.messages[0]
	assert.Equal(t, "+15551234567", msg.To)
	assert.Contains(t, msg.Body, "Alice")
	assert.Contains(t, msg.Body, "Sunrise Dental")
	assert.Contains(t, msg.Body, "https://app.example.com/rate/abc123")
	require.NotNil(t, msg.MessagingServiceSID)
	assert.Equal(t, "MG123", *msg.MessagingServiceSID)

	logs := env.smsLogRepo.all()
	require.Len(t, logs, 1)
	assert.Equal(t, models.SmsStatusQueued, logs[0].Status)
	assert.Equal(t, result.ProviderMessageID, logs[0].ProviderSID)
	require.NotNil(t, logs[0].InviteID)
	assert.Equal(t, invite.ID, *logs[0].InviteID)

	stored, _ := env.inviteRepo.ByID(context.Background(), invite.ID)
	assert.Equal(t, models.InviteStatusSent, stored.Status)
}

func TestDispatchUsesDefaultTemplate(t *testing.T) {
	env := newDispatchFlowEnv()
	env.templateRepo.defaults[1] = &models.SmsTemplate{
		ID:         5,
		BusinessID: 1,
		Body:       "Hello {customer_name}! Rate {business_name}: {review_link}",
	}
	invite := env.addPendingInvite()

	_, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.NoError(t, err)

	require.Len(t, env.sender.messages, 1)
	assert.Equal(t, "Hello Alice! Rate Sunrise Dental: https://app.example.com/rate/abc123", env.sender.messages[0].Body)
}

func TestDispatchPinnedTemplateWinsOverDefaultFlag(t *testing.T) {
	env := newDispatchFlowEnv()
	env.templateRepo.defaults[1] = &models.SmsTemplate{ID: 5, BusinessID: 1, Body: "flagged default"}
	env.templateRepo.add(&models.SmsTemplate{ID: 9, BusinessID: 1, Body: "pinned for {customer_name}"})
	business, _ := env.businessRepo.ByID(context.Background(), 1)
	business.DefaultTemplateID = utils.ToPtr(uint(9))
	invite := env.addPendingInvite()

	_, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.NoError(t, err)

	require.Len(t, env.sender.messages, 1)
	assert.Equal(t, "pinned for Alice", env.sender.messages[0].Body)
}

func TestDispatchIgnoresForeignPinnedTemplate(t *testing.T) {
	env := newDispatchFlowEnv()
	env.templateRepo.defaults[1] = &models.SmsTemplate{ID: 5, BusinessID: 1, Body: "flagged default"}
	env.templateRepo.add(&models.SmsTemplate{ID: 9, BusinessID: 2, Body: "another tenant's template"})
	business, _ := env.businessRepo.ByID(context.Background(), 1)
	business.DefaultTemplateID = utils.ToPtr(uint(9))
	invite := env.addPendingInvite()

	_, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.NoError(t, err)

	require.Len(t, env.sender.messages, 1)
	assert.Equal(t, "flagged default", env.sender.messages[0].Body)
}

func TestDispatchMessageOverrideWinsOverTemplate(t *testing.T) {
	env := newDispatchFlowEnv()
	env.templateRepo.defaults[1] = &models.SmsTemplate{ID: 5, BusinessID: 1, Body: "template body"}
	invite := env.addPendingInvite()
	invite.Message = utils.ToPtr("Custom note for {customer_name}")

	_, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.NoError(t, err)

	require.Len(t, env.sender.messages, 1)
	assert.Equal(t, "Custom note for Alice", env.sender.messages[0].Body)
}

func TestDispatchAlreadySentIsNoOp(t *testing.T) {
	env := newDispatchFlowEnv()
	invite := env.addPendingInvite()
	invite.Status = models.InviteStatusSent

	result, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, env.sender.messages)
	assert.Empty(t, env.smsLogRepo.all())
}

func TestDispatchTooEarlyIsRetryable(t *testing.T) {
	env := newDispatchFlowEnv()
	invite := env.addPendingInvite()
	invite.SendAt = utils.UTCNowAddPtr(10 * time.Minute)

	_, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.Error(t, err)
	assert.True(t, businessflow.IsDequeuedTooEarly(err))
	assert.False(t, businessflow.IsTerminal(err))
	assert.Empty(t, env.sender.messages)
}

func TestDispatchWithinToleranceSends(t *testing.T) {
	env := newDispatchFlowEnv()
	invite := env.addPendingInvite()
	invite.SendAt = utils.UTCNowAddPtr(utils.ScheduleTolerance / 2)

	result, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, env.sender.messages, 1)
}

func TestDispatchOptedOutCustomer(t *testing.T) {
	env := newDispatchFlowEnv()
	invite := env.addPendingInvite()
	customer, _ := env.customerRepo.ByID(context.Background(), 100)
	customer.OptedOut = utils.ToPtr(true)

	result, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.Error(t, err)
	assert.True(t, businessflow.IsTerminal(err))
	assert.False(t, result.Success)
	assert.Equal(t, utils.OptedOutNote, result.Reason)
	assert.Empty(t, env.sender.messages)

	logs := env.smsLogRepo.all()
	require.Len(t, logs, 1)
	assert.Equal(t, models.SmsStatusFailed, logs[0].Status)
	assert.True(t, len(logs[0].ProviderSID) == 32 && logs[0].ProviderSID[:2] == "SM")

	stored, _ := env.inviteRepo.ByID(context.Background(), invite.ID)
	assert.Equal(t, models.InviteStatusFailed, stored.Status)
}

func TestDispatchMissingPhone(t *testing.T) {
	env := newDispatchFlowEnv()
	invite := env.addPendingInvite()
	customer, _ := env.customerRepo.ByID(context.Background(), 100)
	customer.Phone = nil

	result, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.Error(t, err)
	assert.True(t, businessflow.IsTerminal(err))
	assert.Contains(t, result.Reason, "no phone")
	assert.Empty(t, env.sender.messages)
}

func TestDispatchInvalidPhone(t *testing.T) {
	env := newDispatchFlowEnv()
	invite := env.addPendingInvite()
	customer, _ := env.customerRepo.ByID(context.Background(), 100)
	customer.Phone = utils.ToPtr("not-a-number")

	result, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.Error(t, err)
	assert.True(t, businessflow.IsTerminal(err))
	assert.Contains(t, result.Reason, "Invalid phone number")
	assert.Empty(t, env.sender.messages)
}

func TestDispatchMissingInvite(t *testing.T) {
	env := newDispatchFlowEnv()

	result, err := env.flow.Dispatch(context.Background(), businessflow.DispatchJob{InviteID: 999, BusinessID: 1, CustomerID: 100})
	require.Error(t, err)
	assert.True(t, businessflow.IsTerminal(err))
	assert.Equal(t, "Invite not found", result.Reason)

	// Audit record exists even though no invite row could be updated
	logs := env.smsLogRepo.all()
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].InviteID)
}

func TestDispatchProviderRejectionIsTerminal(t *testing.T) {
	env := newDispatchFlowEnv()
	invite := env.addPendingInvite()
	env.sender.err = &businessflow.ProviderError{StatusCode: 400, Code: "21211", Message: "Invalid 'To' phone number"}

	result, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.Error(t, err)
	assert.True(t, businessflow.IsTerminal(err))
	assert.Contains(t, result.Reason, "21211")

	stored, _ := env.inviteRepo.ByID(context.Background(), invite.ID)
	assert.Equal(t, models.InviteStatusFailed, stored.Status)
}

func TestDispatchTransportErrorIsRetryable(t *testing.T) {
	env := newDispatchFlowEnv()
	invite := env.addPendingInvite()
	env.sender.err = assert.AnError

	_, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.Error(t, err)
	assert.False(t, businessflow.IsTerminal(err))
	assert.False(t, businessflow.IsDequeuedTooEarly(err))

	// No failure record: the queue retries and the invite stays PENDING
	assert.Empty(t, env.smsLogRepo.all())
	stored, _ := env.inviteRepo.ByID(context.Background(), invite.ID)
	assert.Equal(t, models.InviteStatusPending, stored.Status)
}

func TestFailDispatchRecordsTerminalFailure(t *testing.T) {
	env := newDispatchFlowEnv()
	invite := env.addPendingInvite()

	err := env.flow.FailDispatch(context.Background(), env.job(invite), "Delivery attempts exhausted: connection refused")
	require.NoError(t, err)

	logs := env.smsLogRepo.all()
	require.Len(t, logs, 1)
	assert.Equal(t, models.SmsStatusFailed, logs[0].Status)
	require.NotNil(t, logs[0].ErrorMessage)
	assert.Contains(t, *logs[0].ErrorMessage, "exhausted")
	require.NotNil(t, logs[0].InviteID)
	assert.Equal(t, invite.ID, *logs[0].InviteID)

	stored, _ := env.inviteRepo.ByID(context.Background(), invite.ID)
	assert.Equal(t, models.InviteStatusFailed, stored.Status)
}

func TestFailDispatchSkipsDeliveredInvite(t *testing.T) {
	env := newDispatchFlowEnv()
	invite := env.addPendingInvite()
	invite.Status = models.InviteStatusSent

	// A duplicate job copy succeeded while this one was retrying
	err := env.flow.FailDispatch(context.Background(), env.job(invite), "Delivery attempts exhausted")
	require.NoError(t, err)

	assert.Empty(t, env.smsLogRepo.all())
	stored, _ := env.inviteRepo.ByID(context.Background(), invite.ID)
	assert.Equal(t, models.InviteStatusSent, stored.Status)
}

func TestFailDispatchMissingInvite(t *testing.T) {
	env := newDispatchFlowEnv()

	err := env.flow.FailDispatch(context.Background(), businessflow.DispatchJob{InviteID: 999, BusinessID: 1, CustomerID: 100}, "Delivery attempts exhausted")
	require.NoError(t, err)

	// The audit record still lands even without an invite row
	logs := env.smsLogRepo.all()
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].InviteID)
	assert.Equal(t, models.SmsStatusFailed, logs[0].Status)
}

func TestDispatchFromNumberWhenNoMessagingService(t *testing.T) {
	env := newDispatchFlowEnv()
	business, _ := env.businessRepo.ByID(context.Background(), 1)
	business.MessagingServiceSID = nil
	business.FromNumber = utils.ToPtr("+15550001111")
	invite := env.addPendingInvite()

	_, err := env.flow.Dispatch(context.Background(), env.job(invite))
	require.NoError(t, err)

	require.Len(t, env.sender.messages, 1)
	msg := env.sender.messages[0]
	assert.Nil(t, msg.MessagingServiceSID)
	require.NotNil(t, msg.From)
	assert.Equal(t, "+15550001111", *msg.From)
}
