package requestsclient

import (
	"context"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

const subordinatesRequestQuery = `
query subordinatesRequest($staffId: Int!) {
  subordinatesRequest(staffId: $staffId) {
    subordinatesRequest {
      requestId
      staffId
      requestingStaffName
      department
      date
      type
      createdAt
      reason
      remarks
      status
      files
    }
  }
}`

const updateRequestStatusMutation = `
mutation updateRequestStatus($staffId: Int!, $requestId: Int!, $status: String!, $remarks: String) {
  updateRequestStatus(staffId: $staffId, requestId: $requestId, status: $status, remarks: $remarks) {
    success
    message
  }
}`

// SubordinatesRequest lists WFH requests raised by the manager's direct reports
func (c *Client) SubordinatesRequest(ctx context.Context, staffID int) ([]model.WFHRequest, error) {
	var out struct {
		SubordinatesRequest []model.WFHRequest `json:"subordinatesRequest"`
	}
	if err := c.gql.Query(ctx, "subordinatesRequest", subordinatesRequestQuery, map[string]any{
		"staffId": staffID,
	}, &out); err != nil {
		return nil, err
	}
	return out.SubordinatesRequest, nil
}

// UpdateRequestStatus approves or rejects a request on behalf of reviewer staffID
func (c *Client) UpdateRequestStatus(ctx context.Context, staffID, requestID int, status model.RequestStatus, remarks string) (*model.SubmissionResult, error) {
	var remarksVar any
	if remarks != "" {
		remarksVar = remarks
	}

	var result model.SubmissionResult
	if err := c.gql.Query(ctx, "updateRequestStatus", updateRequestStatusMutation, map[string]any{
		"staffId":   staffID,
		"requestId": requestID,
		"status":    string(status),
		"remarks":   remarksVar,
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
