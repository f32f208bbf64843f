package db

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a lookup matches no record
var ErrNotFound = errors.New("record not found")

// EmployeeStore defines the employee operations
type EmployeeStore interface {
	GetEmployee(ctx context.Context, staffID int) (*Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	ListReports(ctx context.Context, managerID int) ([]Employee, error)
	UpsertEmployee(ctx context.Context, employee *Employee) error
	SetReportingManager(ctx context.Context, staffID, managerID int) error
}

// RequestStore defines the WFH request operations
type RequestStore interface {
	// InsertRequests stores all requests or none, setting their IDs
	InsertRequests(ctx context.Context, requests []Request) error
	GetRequest(ctx context.Context, id int) (*Request, error)
	ListRequests(ctx context.Context, staffIDs []int) ([]Request, error)
	UpdateRequestStatus(ctx context.Context, id int, status, remarks string) error
}

// TransferStore defines the manager transfer operations
type TransferStore interface {
	InsertTransfer(ctx context.Context, transfer *Transfer) error
	// ListTransfers returns transfers where staffID is the employee or either manager
	ListTransfers(ctx context.Context, staffID int) ([]Transfer, error)
}

// Database defines all store operations.
// Both postgres.DB and sqlite.DB implement this interface.
type Database interface {
	EmployeeStore
	RequestStore
	TransferStore
	Close() error
}
