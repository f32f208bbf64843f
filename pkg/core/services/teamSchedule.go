package services

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/clients/scheduleclient"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// ScheduleClient defines the schedule service operations needed
type ScheduleClient interface {
	TeamSchedule(ctx context.Context, month, year, staffID int) ([]model.ScheduleEntry, error)
	ManagerList(ctx context.Context, staffID int) ([]model.User, error)
	TeamDetails(ctx context.Context, date string, staffID int) ([]scheduleclient.TeamMember, error)
}

// ScheduleDay groups the availability slots of one day, ordered AM, PM, full
type ScheduleDay struct {
	Date  string
	Slots []model.ScheduleEntry
}

// TeamScheduleResult is a month of availability for one team
type TeamScheduleResult struct {
	Month     int
	Year      int
	ManagerID int
	// Managers is only set for directors, who choose which team to view
	Managers []model.User
	Days     []ScheduleDay
}

// ViewTeamSchedule fetches the month's availability for the viewer's team.
// Directors view a manager's team: managerID when given, otherwise the first manager reporting to them.
func ViewTeamSchedule(ctx context.Context, client ScheduleClient, user *model.User, logger *zap.Logger, month, year, managerID int) (*TeamScheduleResult, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}

	result := &TeamScheduleResult{Month: month, Year: year, ManagerID: user.StaffID}

	if user.IsDirector() {
		logger.Debug("Fetching manager list", zap.Int("director_id", user.StaffID))
		managers, err := client.ManagerList(ctx, user.StaffID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch manager list: %w", err)
		}
		if len(managers) == 0 {
			return nil, fmt.Errorf("no managers report to you")
		}
		result.Managers = managers

		selected, err := selectManager(managers, managerID)
		if err != nil {
			return nil, err
		}
		result.ManagerID = selected
	} else if managerID != 0 && managerID != user.StaffID {
		return nil, fmt.Errorf("only directors can view another manager's team")
	}

	logger.Debug("Fetching team schedule",
		zap.Int("month", month),
		zap.Int("year", year),
		zap.Int("staff_id", result.ManagerID))

	entries, err := client.TeamSchedule(ctx, month, year, result.ManagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team schedule: %w", err)
	}

	result.Days = GroupScheduleByDay(entries)
	logger.Debug("Team schedule fetched", zap.Int("entries", len(entries)), zap.Int("days", len(result.Days)))

	return result, nil
}

func selectManager(managers []model.User, managerID int) (int, error) {
	if managerID == 0 {
		return managers[0].StaffID, nil
	}
	for _, m := range managers {
		if m.StaffID == managerID {
			return managerID, nil
		}
	}
	return 0, fmt.Errorf("manager %d does not report to you", managerID)
}

// GroupScheduleByDay groups entries by date in ascending order
func GroupScheduleByDay(entries []model.ScheduleEntry) []ScheduleDay {
	byDate := make(map[string][]model.ScheduleEntry)
	for _, e := range entries {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	days := make([]ScheduleDay, 0, len(byDate))
	for date, slots := range byDate {
		sort.SliceStable(slots, func(i, j int) bool {
			return slotOrder(slots[i].Type) < slotOrder(slots[j].Type)
		})
		days = append(days, ScheduleDay{Date: date, Slots: slots})
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
	return days
}

func slotOrder(t string) int {
	if i := slices.Index(model.WFHTypes, model.NormalizeWFHType(t)); i >= 0 {
		return i
	}
	return len(model.WFHTypes)
}

// ScheduleDetail builds the drill-down for one day: where each team member works
// in each half of the day, and office/WFH head counts per slot type
func ScheduleDetail(ctx context.Context, client ScheduleClient, logger *zap.Logger, date string, managerID int) (*model.ScheduleDetail, error) {
	logger.Debug("Fetching team details", zap.String("date", date), zap.Int("manager_id", managerID))

	members, err := client.TeamDetails(ctx, date, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team details: %w", err)
	}

	detail := &model.ScheduleDetail{
		Date:      date,
		ManagerID: managerID,
		Rows:      make([]model.StaffAvailability, 0, len(members)),
	}

	counts := make(map[model.WFHType]*model.ChartPoint, len(model.WFHTypes))
	for _, t := range model.WFHTypes {
		counts[t] = &model.ChartPoint{Type: t}
	}

	for _, m := range members {
		row := model.StaffAvailability{
			StaffID:    m.StaffID,
			Name:       m.Name,
			Department: m.Department,
			AM:         model.LocationOffice,
			PM:         model.LocationOffice,
		}

		switch model.NormalizeWFHType(m.WFHType) {
		case model.TypeAM:
			row.AM = model.LocationWFH
		case model.TypePM:
			row.PM = model.LocationWFH
		case model.TypeFull:
			row.AM = model.LocationWFH
			row.PM = model.LocationWFH
		}
		detail.Rows = append(detail.Rows, row)

		tally(counts[model.TypeAM], row.AM == model.LocationWFH)
		tally(counts[model.TypePM], row.PM == model.LocationWFH)
		// Only staff in for the whole day count as available for a full day
		tally(counts[model.TypeFull], row.AM == model.LocationWFH || row.PM == model.LocationWFH)
	}

	sort.SliceStable(detail.Rows, func(i, j int) bool {
		return detail.Rows[i].Name < detail.Rows[j].Name
	})

	for _, t := range model.WFHTypes {
		detail.Chart = append(detail.Chart, *counts[t])
	}

	return detail, nil
}

func tally(p *model.ChartPoint, wfh bool) {
	if wfh {
		p.WFH++
	} else {
		p.Office++
	}
}
