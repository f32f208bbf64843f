package model

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// WFHType is the part of the day a request covers
type WFHType string

const (
	TypeAM   WFHType = "AM"
	TypePM   WFHType = "PM"
	TypeFull WFHType = "full"
)

// WFHTypes lists the accepted request types in display order
var WFHTypes = []WFHType{TypeAM, TypePM, TypeFull}

// Valid reports whether t is exactly one of the accepted request types
func (t WFHType) Valid() bool {
	switch t {
	case TypeAM, TypePM, TypeFull:
		return true
	}
	return false
}

// NormalizeWFHType maps server-provided type labels ("Full", "am") onto the canonical values.
// User input should not go through this; the form only accepts exact values.
func NormalizeWFHType(s string) WFHType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "am":
		return TypeAM
	case "pm":
		return TypePM
	case "full":
		return TypeFull
	}
	return WFHType(s)
}

// Attachment is a binary file handle attached to a request.
// It is either backed by a local file (Path) or held in memory (Data).
type Attachment struct {
	Name string
	Path string
	Data []byte
}

// AttachmentFromPath creates a path-backed attachment named after the file
func AttachmentFromPath(path string) Attachment {
	return Attachment{Name: filepath.Base(path), Path: path}
}

// InMemory reports whether the attachment content is held in memory
func (a Attachment) InMemory() bool {
	return a.Data != nil
}

// Open returns a reader over the attachment content
func (a Attachment) Open() (io.ReadCloser, error) {
	if a.InMemory() {
		return io.NopCloser(bytes.NewReader(a.Data)), nil
	}
	if a.Path == "" {
		return nil, fmt.Errorf("attachment %q has no content", a.Name)
	}
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment %q: %w", a.Name, err)
	}
	return f, nil
}

// Draft is the editable WFH request held by the application form
type Draft struct {
	Type   WFHType
	Reason string
	Dates  []time.Time
	Files  []Attachment
}

// Submission is what gets sent to the requests service
type Submission struct {
	StaffID        int
	Type           WFHType
	Reason         string
	Dates          []string // YYYY-MM-DD
	Files          []Attachment
	IdempotencyKey string
}

// SubmissionResult is the payload of a createRequest-style mutation.
// Success keeps whatever JSON value the service returned (200, true, "ok", ...).
type SubmissionResult struct {
	Success any    `json:"success"`
	Message string `json:"message"`
}

// Truthy reports whether Success counts as a success indicator.
// false, 0, "" and null are falsy; every other value is truthy.
func (r *SubmissionResult) Truthy() bool {
	if r == nil {
		return false
	}
	switch v := r.Success.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		return v != ""
	}
	return true
}

// SuccessString renders Success the way it would be displayed as a status
func (r *SubmissionResult) SuccessString() string {
	if r == nil || r.Success == nil {
		return ""
	}
	switch v := r.Success.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	}
	return fmt.Sprint(r.Success)
}

// Positions with special handling
const (
	PositionDirector = "Director"
	PositionManager  = "Manager"
)

// User is the authenticated employee
type User struct {
	StaffID          int    `json:"staffId"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Position         string `json:"position"`
	Department       string `json:"department"`
	ReportingManager int    `json:"reportingManager,omitempty"`
}

// IsDirector reports whether the user picks which manager's team to view
func (u *User) IsDirector() bool {
	return u != nil && u.Position == PositionDirector
}

// ScheduleEntry is the number of team members available in the office for one day and slot
type ScheduleEntry struct {
	Date           string `json:"date"`
	AvailableCount int    `json:"availableCount"`
	Type           string `json:"type"`
}

// RequestStatus is the review state of a WFH request
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// RequestStatuses lists statuses in tab order
var RequestStatuses = []RequestStatus{StatusPending, StatusApproved, StatusRejected}

// WFHRequest is a single-day request as listed for a reviewing manager
type WFHRequest struct {
	RequestID           int           `json:"requestId"`
	StaffID             int           `json:"staffId"`
	RequestingStaffName string        `json:"requestingStaffName"`
	Department          string        `json:"department"`
	Date                string        `json:"date"`
	Type                string        `json:"type"`
	CreatedAt           string        `json:"createdAt"`
	Reason              string        `json:"reason"`
	Remarks             string        `json:"remarks"`
	Status              RequestStatus `json:"status"`
	Files               []string      `json:"files"`
}

// TransferRequest records a change of reporting manager
type TransferRequest struct {
	TransferID      int    `json:"transferId"`
	StaffID         int    `json:"staffId"`
	StaffName       string `json:"staffName"`
	FromManagerID   int    `json:"fromManagerId"`
	FromManagerName string `json:"fromManagerName"`
	ToManagerID     int    `json:"toManagerId"`
	ToManagerName   string `json:"toManagerName"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
}
