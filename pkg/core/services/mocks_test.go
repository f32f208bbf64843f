package services

import (
	"context"
	"fmt"

	"github.com/jakechorley/wfh-portal/pkg/clients/scheduleclient"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// mockScheduleClient implements ScheduleClient
type mockScheduleClient struct {
	entries  map[int][]model.ScheduleEntry // keyed by manager staff ID
	managers []model.User
	members  []scheduleclient.TeamMember
	err      error

	scheduleCalls []int
	managerCalls  int
}

func (m *mockScheduleClient) TeamSchedule(ctx context.Context, month, year, staffID int) ([]model.ScheduleEntry, error) {
	m.scheduleCalls = append(m.scheduleCalls, staffID)
	if m.err != nil {
		return nil, m.err
	}
	return m.entries[staffID], nil
}

func (m *mockScheduleClient) ManagerList(ctx context.Context, staffID int) ([]model.User, error) {
	m.managerCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.managers, nil
}

func (m *mockScheduleClient) TeamDetails(ctx context.Context, date string, staffID int) ([]scheduleclient.TeamMember, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.members, nil
}

// mockRequestsClient implements RequestsClient
type mockRequestsClient struct {
	requests  []model.WFHRequest
	result    *model.SubmissionResult
	listErr   error
	updateErr error

	updates []string
}

func (m *mockRequestsClient) SubordinatesRequest(ctx context.Context, staffID int) ([]model.WFHRequest, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.requests, nil
}

func (m *mockRequestsClient) UpdateRequestStatus(ctx context.Context, staffID, requestID int, status model.RequestStatus, remarks string) (*model.SubmissionResult, error) {
	m.updates = append(m.updates, fmt.Sprintf("%d:%d:%s:%s", staffID, requestID, status, remarks))
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.result, nil
}

// mockEmployeeClient implements EmployeeClient
type mockEmployeeClient struct {
	result    *model.SubmissionResult
	transfers []model.TransferRequest
	err       error

	assigned []string
}

func (m *mockEmployeeClient) AssignManager(ctx context.Context, staffID, managerID, requestedBy int) (*model.SubmissionResult, error) {
	m.assigned = append(m.assigned, fmt.Sprintf("%d->%d by %d", staffID, managerID, requestedBy))
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockEmployeeClient) TransferRequests(ctx context.Context, staffID int) ([]model.TransferRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.transfers, nil
}

// mockSubmitter implements form.Submitter
type mockSubmitter struct {
	result *model.SubmissionResult
	err    error
	calls  []model.Submission
}

func (m *mockSubmitter) CreateRequest(ctx context.Context, sub model.Submission) (*model.SubmissionResult, error) {
	m.calls = append(m.calls, sub)
	return m.result, m.err
}
