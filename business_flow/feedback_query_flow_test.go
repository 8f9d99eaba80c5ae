package businessflow_test

import (
	"context"
	"fmt"
	"testing"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedbackQueryEnv(entries int) (businessflow.FeedbackQueryFlow, *memFeedbackRepo) {
	businessRepo := newMemBusinessRepo()
	businessRepo.add(&models.Business{ID: 1, OrganizationID: 10, Name: "Sunrise Dental"})

	feedbackRepo := newMemFeedbackRepo()
	for i := 0; i < entries; i++ {
		feedbackRepo.addForBusiness(1, &models.Feedback{
			RatingID: uint(i + 1),
			Content:  fmt.Sprintf("feedback %d", i),
		})
	}
	return businessflow.NewFeedbackQueryFlow(feedbackRepo, businessRepo), feedbackRepo
}

func TestListForBusiness(t *testing.T) {
	flow, _ := newFeedbackQueryEnv(3)

	rows, err := flow.ListForBusiness(context.Background(), 1, 50, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestListForBusinessPagination(t *testing.T) {
	flow, _ := newFeedbackQueryEnv(5)

	rows, err := flow.ListForBusiness(context.Background(), 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "feedback 2", rows[0].Content)
	assert.Equal(t, "feedback 3", rows[1].Content)
}

func TestListForBusinessClampsBadLimit(t *testing.T) {
	flow, _ := newFeedbackQueryEnv(60)

	for _, limit := range []int{0, -5, 500} {
		rows, err := flow.ListForBusiness(context.Background(), 1, limit, 0)
		require.NoError(t, err)
		assert.Len(t, rows, 50, "limit %d", limit)
	}
}

func TestListForBusinessUnknownBusiness(t *testing.T) {
	flow, _ := newFeedbackQueryEnv(0)

	_, err := flow.ListForBusiness(context.Background(), 99, 50, 0)
	assert.True(t, businessflow.IsBusinessNotFound(err))
}
