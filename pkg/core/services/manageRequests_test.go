package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

func subordinateRequests() []model.WFHRequest {
	return []model.WFHRequest{
		{RequestID: 3, RequestingStaffName: "Ann", Date: "2024-09-03", Type: "AM", Status: "Pending"},
		{RequestID: 1, RequestingStaffName: "Bob", Date: "2024-09-01", Type: "full", Status: "approved"},
		{RequestID: 2, RequestingStaffName: "Ann", Date: "2024-09-02", Type: "PM", Status: "pending"},
		{RequestID: 4, RequestingStaffName: "Cal", Date: "2024-09-02", Type: "PM", Status: "rejected", Remarks: "Team offsite"},
	}
}

func TestListSubordinateRequests_GroupsByStatus(t *testing.T) {
	client := &mockRequestsClient{requests: subordinateRequests()}

	result, err := ListSubordinateRequests(context.Background(), client, zap.NewNop(), 7)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Count(model.StatusPending))
	assert.Equal(t, 1, result.Count(model.StatusApproved))
	assert.Equal(t, 1, result.Count(model.StatusRejected))

	pending := result.ByStatus[model.StatusPending]
	assert.Equal(t, 2, pending[0].RequestID, "ordered by date")
	assert.Equal(t, 3, pending[1].RequestID)
	assert.Equal(t, model.StatusPending, pending[1].Status, "status is normalised")
}

func TestListSubordinateRequests_Error(t *testing.T) {
	_, err := ListSubordinateRequests(context.Background(), &mockRequestsClient{listErr: errors.New("boom")}, zap.NewNop(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch subordinate requests")
}

func TestGetRequestDetail(t *testing.T) {
	client := &mockRequestsClient{requests: subordinateRequests()}

	detail, err := GetRequestDetail(context.Background(), client, zap.NewNop(), 7, 4)
	require.NoError(t, err)
	assert.Equal(t, "Request #4 - Cal", detail.Title())
	assert.Equal(t, "Team offsite", detail.Request.Remarks)

	_, err = GetRequestDetail(context.Background(), client, zap.NewNop(), 7, 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReviewRequest_ApprovesPending(t *testing.T) {
	client := &mockRequestsClient{
		requests: subordinateRequests(),
		result:   &model.SubmissionResult{Success: true, Message: "Request approved"},
	}

	result, err := ReviewRequest(context.Background(), client, zap.NewNop(), 7, 3, model.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, "Request approved", result.Message)
	assert.Equal(t, []string{"7:3:approved:"}, client.updates)
}

func TestReviewRequest_Errors(t *testing.T) {
	tests := []struct {
		name      string
		client    *mockRequestsClient
		requestID int
		decision  model.RequestStatus
		errMsg    string
	}{
		{"invalid decision", &mockRequestsClient{}, 3, model.StatusPending, "invalid decision"},
		{"already reviewed", &mockRequestsClient{requests: subordinateRequests()}, 1, model.StatusRejected, "already approved"},
		{"unknown request", &mockRequestsClient{requests: subordinateRequests()}, 99, model.StatusApproved, "not found"},
		{"transport failure", &mockRequestsClient{requests: subordinateRequests(), updateErr: errors.New("boom")}, 2, model.StatusRejected, "failed to update request status"},
		{"service refuses", &mockRequestsClient{requests: subordinateRequests(), result: &model.SubmissionResult{Success: false, Message: "Not your report"}}, 2, model.StatusApproved, "Not your report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReviewRequest(context.Background(), tt.client, zap.NewNop(), 7, tt.requestID, tt.decision, "ok")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
