package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// EmployeeClient defines the employee service operations needed
type EmployeeClient interface {
	AssignManager(ctx context.Context, staffID, managerID, requestedBy int) (*model.SubmissionResult, error)
	TransferRequests(ctx context.Context, staffID int) ([]model.TransferRequest, error)
}

// AssignManager moves staffID under managerID on behalf of requester.
// Only managers and directors may reassign staff.
func AssignManager(ctx context.Context, client EmployeeClient, logger *zap.Logger, requester *model.User, staffID, managerID int) (*model.SubmissionResult, error) {
	if requester.Position != model.PositionManager && !requester.IsDirector() {
		return nil, fmt.Errorf("only managers and directors can assign managers")
	}
	if staffID <= 0 || managerID <= 0 {
		return nil, fmt.Errorf("staff and manager IDs must be positive")
	}
	if staffID == managerID {
		return nil, fmt.Errorf("staff %d cannot report to themselves", staffID)
	}

	logger.Info("Assigning manager",
		zap.Int("staff_id", staffID),
		zap.Int("manager_id", managerID),
		zap.Int("requested_by", requester.StaffID))

	result, err := client.AssignManager(ctx, staffID, managerID, requester.StaffID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign manager: %w", err)
	}
	if !result.Truthy() {
		return result, fmt.Errorf("manager assignment rejected: %s", result.Message)
	}

	return result, nil
}

// ListTransferRequests returns the manager transfers involving staffID, newest first
func ListTransferRequests(ctx context.Context, client EmployeeClient, logger *zap.Logger, staffID int) ([]model.TransferRequest, error) {
	logger.Debug("Fetching transfer requests", zap.Int("staff_id", staffID))

	transfers, err := client.TransferRequests(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transfer requests: %w", err)
	}

	sort.SliceStable(transfers, func(i, j int) bool {
		return transfers[i].CreatedAt > transfers[j].CreatedAt
	})
	return transfers, nil
}
