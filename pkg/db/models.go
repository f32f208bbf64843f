package db

import "time"

// Employee is a member of staff known to the WFH services
type Employee struct {
	StaffID    int
	Name       string
	Email      string
	Position   string
	Department string
	// ReportingManager is 0 for staff without a manager
	ReportingManager int
	PasswordHash     string
}

// Request is a single-day WFH request
type Request struct {
	ID        int
	StaffID   int
	Date      string // YYYY-MM-DD
	Type      string
	Reason    string
	Remarks   string
	Status    string
	Files     []string
	CreatedAt time.Time
}

// Transfer records a change of reporting manager
type Transfer struct {
	ID            int
	StaffID       int
	FromManagerID int
	ToManagerID   int
	Status        string
	CreatedAt     time.Time
}
