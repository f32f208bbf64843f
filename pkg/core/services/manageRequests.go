package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// RequestsClient defines the requests service operations needed for reviewing
type RequestsClient interface {
	SubordinatesRequest(ctx context.Context, staffID int) ([]model.WFHRequest, error)
	UpdateRequestStatus(ctx context.Context, staffID, requestID int, status model.RequestStatus, remarks string) (*model.SubmissionResult, error)
}

// SubordinateRequestsResult holds a manager's subordinate requests split by review status
type SubordinateRequestsResult struct {
	ByStatus map[model.RequestStatus][]model.WFHRequest
}

// Count returns the number of requests with status
func (r *SubordinateRequestsResult) Count(status model.RequestStatus) int {
	return len(r.ByStatus[status])
}

// ListSubordinateRequests fetches the requests of staffID's direct reports and groups them by status.
// Within a status, requests are ordered by date then request ID.
func ListSubordinateRequests(ctx context.Context, client RequestsClient, logger *zap.Logger, staffID int) (*SubordinateRequestsResult, error) {
	logger.Debug("Fetching subordinate requests", zap.Int("staff_id", staffID))

	requests, err := client.SubordinatesRequest(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subordinate requests: %w", err)
	}

	result := &SubordinateRequestsResult{ByStatus: make(map[model.RequestStatus][]model.WFHRequest, len(model.RequestStatuses))}
	for _, req := range requests {
		req.Status = normalizeStatus(req.Status)
		result.ByStatus[req.Status] = append(result.ByStatus[req.Status], req)
	}

	for _, reqs := range result.ByStatus {
		sort.Slice(reqs, func(i, j int) bool {
			if reqs[i].Date != reqs[j].Date {
				return reqs[i].Date < reqs[j].Date
			}
			return reqs[i].RequestID < reqs[j].RequestID
		})
	}

	logger.Debug("Subordinate requests fetched",
		zap.Int("total", len(requests)),
		zap.Int("pending", result.Count(model.StatusPending)))

	return result, nil
}

func normalizeStatus(s model.RequestStatus) model.RequestStatus {
	return model.RequestStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

// GetRequestDetail finds one of staffID's subordinate requests
func GetRequestDetail(ctx context.Context, client RequestsClient, logger *zap.Logger, staffID, requestID int) (*model.RequestDetail, error) {
	requests, err := client.SubordinatesRequest(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subordinate requests: %w", err)
	}

	for _, req := range requests {
		if req.RequestID == requestID {
			req.Status = normalizeStatus(req.Status)
			logger.Debug("Found request", zap.Int("request_id", requestID), zap.String("status", string(req.Status)))
			return &model.RequestDetail{Request: req}, nil
		}
	}

	return nil, fmt.Errorf("request %d not found among your team's requests", requestID)
}

// ReviewRequest approves or rejects a pending subordinate request
func ReviewRequest(ctx context.Context, client RequestsClient, logger *zap.Logger, staffID, requestID int, decision model.RequestStatus, remarks string) (*model.SubmissionResult, error) {
	if decision != model.StatusApproved && decision != model.StatusRejected {
		return nil, fmt.Errorf("invalid decision %q, expected approved or rejected", decision)
	}

	detail, err := GetRequestDetail(ctx, client, logger, staffID, requestID)
	if err != nil {
		return nil, err
	}
	if detail.Request.Status != model.StatusPending {
		return nil, fmt.Errorf("request %d is already %s", requestID, detail.Request.Status)
	}

	logger.Info("Reviewing request",
		zap.Int("request_id", requestID),
		zap.String("decision", string(decision)),
		zap.Int("reviewer", staffID))

	result, err := client.UpdateRequestStatus(ctx, staffID, requestID, decision, remarks)
	if err != nil {
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}
	if !result.Truthy() {
		return result, fmt.Errorf("request update rejected: %s", result.Message)
	}

	return result, nil
}
