package requestsclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/gqlupload"
)

const createRequestMutation = `
mutation createRequest(
  $staffId: Int!,
  $reason: String,
  $type: String!,
  $date: [String!]!,
  $files: [Upload!]
) {
  createRequest(
    staffId: $staffId,
    reason: $reason,
    type: $type,
    date: $date,
    files: $files
  ) {
    success
    message
  }
}`

// CreateRequest sends a WFH request as one multipart POST and returns the service's verdict.
// Dates must already be YYYY-MM-DD. No retry is attempted; any transport or decode
// failure is returned as an error.
func (c *Client) CreateRequest(ctx context.Context, sub model.Submission) (*model.SubmissionResult, error) {
	var reason any
	if sub.Reason != "" {
		reason = sub.Reason
	}

	dates := sub.Dates
	if dates == nil {
		dates = []string{}
	}

	op := gqlupload.Operation{
		Query: createRequestMutation,
		Variables: map[string]any{
			"staffId": sub.StaffID,
			"reason":  reason,
			"type":    string(sub.Type),
			"date":    dates,
		},
	}

	files := make([]gqlupload.File, 0, len(sub.Files))
	for _, a := range sub.Files {
		rc, err := a.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		files = append(files, gqlupload.File{Name: a.Name, Content: rc})
	}

	var body bytes.Buffer
	contentType, err := gqlupload.Encode(&body, op, "files", files)
	if err != nil {
		return nil, fmt.Errorf("failed to build createRequest body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gql.Endpoint(), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create createRequest request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if sub.IdempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, sub.IdempotencyKey)
	}

	c.logger.Debug("Submitting WFH request",
		zap.Int("staff_id", sub.StaffID),
		zap.String("type", string(sub.Type)),
		zap.Strings("dates", dates),
		zap.Int("files", len(files)))

	var result model.SubmissionResult
	if err := c.gql.Do(req, "createRequest", &result); err != nil {
		return nil, err
	}

	c.logger.Debug("createRequest response",
		zap.Any("success", result.Success),
		zap.String("message", result.Message))

	return &result, nil
}
