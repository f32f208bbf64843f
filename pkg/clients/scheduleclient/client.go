package scheduleclient

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/clients/gqlclient"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// DefaultEndpoint is where the schedule service listens by default
const DefaultEndpoint = "http://localhost:5002/schedule"

const teamScheduleQuery = `
query teamSchedule($month: Int!, $year: Int!, $staffId: Int!) {
  teamSchedule(month: $month, year: $year, staffId: $staffId) {
    teamSchedule { date availableCount type }
  }
}`

const managerListQuery = `
query managerList($staffId: Int!) {
  managerList(staffId: $staffId) {
    managerList { staffId name email position department reportingManager }
  }
}`

const teamDetailsQuery = `
query teamDetails($date: String!, $staffId: Int!) {
  teamDetails(date: $date, staffId: $staffId) {
    teamDetails { staffId name department wfhType }
  }
}`

// TeamMember is one member of a team on a given day.
// WFHType is empty when the member is in the office all day.
type TeamMember struct {
	StaffID    int    `json:"staffId"`
	Name       string `json:"name"`
	Department string `json:"department"`
	WFHType    string `json:"wfhType"`
}

// Client talks to the schedule service
type Client struct {
	gql *gqlclient.Client
}

// NewClient creates a schedule service client
func NewClient(endpoint string, httpClient *http.Client, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{gql: gqlclient.NewClient(endpoint, httpClient, logger)}
}

// TeamSchedule returns per-day availability for the team managed by staffID
func (c *Client) TeamSchedule(ctx context.Context, month, year, staffID int) ([]model.ScheduleEntry, error) {
	var out struct {
		TeamSchedule []model.ScheduleEntry `json:"teamSchedule"`
	}
	if err := c.gql.Query(ctx, "teamSchedule", teamScheduleQuery, map[string]any{
		"month":   month,
		"year":    year,
		"staffId": staffID,
	}, &out); err != nil {
		return nil, err
	}
	return out.TeamSchedule, nil
}

// ManagerList returns the managers reporting to director staffID
func (c *Client) ManagerList(ctx context.Context, staffID int) ([]model.User, error) {
	var out struct {
		ManagerList []model.User `json:"managerList"`
	}
	if err := c.gql.Query(ctx, "managerList", managerListQuery, map[string]any{
		"staffId": staffID,
	}, &out); err != nil {
		return nil, err
	}
	return out.ManagerList, nil
}

// TeamDetails returns each team member's WFH type on date for the team managed by staffID
func (c *Client) TeamDetails(ctx context.Context, date string, staffID int) ([]TeamMember, error) {
	var out struct {
		TeamDetails []TeamMember `json:"teamDetails"`
	}
	if err := c.gql.Query(ctx, "teamDetails", teamDetailsQuery, map[string]any{
		"date":    date,
		"staffId": staffID,
	}, &out); err != nil {
		return nil, err
	}
	return out.TeamDetails, nil
}
