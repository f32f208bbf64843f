package employeeclient

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/clients/gqlclient"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// DefaultEndpoint is where the employee service listens by default
const DefaultEndpoint = "http://localhost:5002/employees"

const assignManagerMutation = `
mutation assignManager($staffId: Int!, $managerId: Int!, $requestedBy: Int!) {
  assignManager(staffId: $staffId, managerId: $managerId, requestedBy: $requestedBy) {
    success
    message
  }
}`

const transferRequestsQuery = `
query transferRequests($staffId: Int!) {
  transferRequests(staffId: $staffId) {
    transferRequests {
      transferId
      staffId
      staffName
      fromManagerId
      fromManagerName
      toManagerId
      toManagerName
      status
      createdAt
    }
  }
}`

// Client talks to the employee service
type Client struct {
	gql *gqlclient.Client
}

// NewClient creates an employee service client
func NewClient(endpoint string, httpClient *http.Client, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{gql: gqlclient.NewClient(endpoint, httpClient, logger)}
}

// AssignManager moves staffID under managerID, on behalf of requestedBy
func (c *Client) AssignManager(ctx context.Context, staffID, managerID, requestedBy int) (*model.SubmissionResult, error) {
	var result model.SubmissionResult
	if err := c.gql.Query(ctx, "assignManager", assignManagerMutation, map[string]any{
		"staffId":     staffID,
		"managerId":   managerID,
		"requestedBy": requestedBy,
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TransferRequests lists manager transfers involving staffID
func (c *Client) TransferRequests(ctx context.Context, staffID int) ([]model.TransferRequest, error) {
	var out struct {
		TransferRequests []model.TransferRequest `json:"transferRequests"`
	}
	if err := c.gql.Query(ctx, "transferRequests", transferRequestsQuery, map[string]any{
		"staffId": staffID,
	}, &out); err != nil {
		return nil, err
	}
	return out.TransferRequests, nil
}
