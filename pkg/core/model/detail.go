package model

import "strconv"

// DetailView is the payload of a drill-down dialog.
// The set of implementations is closed: RequestDetail and ScheduleDetail.
type DetailView interface {
	Title() string
	detailView()
}

// RequestDetail describes a single WFH request under review
type RequestDetail struct {
	Request WFHRequest
}

func (RequestDetail) detailView() {}

// Title implements DetailView
func (d RequestDetail) Title() string {
	return "Request #" + strconv.Itoa(d.Request.RequestID) + " - " + d.Request.RequestingStaffName
}

// Location is where a staff member works for a slot
type Location string

const (
	LocationOffice Location = "office"
	LocationWFH    Location = "wfh"
)

// StaffAvailability is one row of the schedule detail dialog
type StaffAvailability struct {
	StaffID    int
	Name       string
	Department string
	AM         Location
	PM         Location
}

// ChartPoint holds office/WFH head counts for one slot type
type ChartPoint struct {
	Type   WFHType
	Office int
	WFH    int
}

// ScheduleDetail describes a team's availability on one day
type ScheduleDetail struct {
	Date      string
	ManagerID int
	Rows      []StaffAvailability
	Chart     []ChartPoint
}

func (ScheduleDetail) detailView() {}

// Title implements DetailView
func (d ScheduleDetail) Title() string {
	return "Team availability on " + d.Date
}
