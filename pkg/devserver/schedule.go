package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jakechorley/wfh-portal/pkg/core/dateset"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/db"
)

// Schedule serves the schedule service queries
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, map[string]resolver{
		"teamSchedule": h.teamSchedule,
		"managerList":  h.managerList,
		"teamDetails":  h.teamDetails,
	})
}

// canView reports whether caller may see the team of staffID: their own, or one managed by a direct report
func (h *Handler) canView(ctx context.Context, caller, staffID int) (bool, error) {
	if caller == staffID {
		return true, nil
	}
	e, err := h.store.GetEmployee(ctx, staffID)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.ReportingManager == caller, nil
}

// team returns the members whose availability is reported for staffID.
// Managers see their direct reports; staff without reports see their manager's team.
func (h *Handler) team(ctx context.Context, staffID int) ([]db.Employee, error) {
	reports, err := h.store.ListReports(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if len(reports) > 0 {
		return reports, nil
	}

	e, err := h.store.GetEmployee(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if e.ReportingManager == 0 {
		return []db.Employee{*e}, nil
	}
	return h.store.ListReports(ctx, e.ReportingManager)
}

// wfhByStaffAndDate maps staff ID and date to the WFH type of their live requests on that date
func (h *Handler) wfhByStaffAndDate(ctx context.Context, members []db.Employee) (map[int]map[string]model.WFHType, error) {
	ids := make([]int, len(members))
	for i, m := range members {
		ids[i] = m.StaffID
	}
	requests, err := h.store.ListRequests(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[int]map[string]model.WFHType, len(members))
	for _, req := range requests {
		if req.Status == string(model.StatusRejected) {
			continue
		}
		days, ok := out[req.StaffID]
		if !ok {
			days = make(map[string]model.WFHType)
			out[req.StaffID] = days
		}
		days[req.Date] = mergeWFH(days[req.Date], model.WFHType(req.Type))
	}
	return out, nil
}

// mergeWFH combines two requests on one day; AM and PM together cover the full day
func mergeWFH(a, b model.WFHType) model.WFHType {
	switch {
	case a == "":
		return b
	case a == b:
		return a
	default:
		return model.TypeFull
	}
}

// awayIn reports whether a member working from home with wfh is away for slot
func awayIn(slot, wfh model.WFHType) bool {
	switch slot {
	case model.TypeFull:
		return wfh != ""
	default:
		return wfh == slot || wfh == model.TypeFull
	}
}

// TeamAvailability counts members in the office for each weekday of the month and each slot
func TeamAvailability(year int, month time.Month, members []db.Employee, wfh map[int]map[string]model.WFHType) []model.ScheduleEntry {
	var entries []model.ScheduleEntry
	for _, day := range dateset.MonthDays(year, month, time.UTC) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		date := dateset.FormatDay(day)
		for _, slot := range model.WFHTypes {
			available := 0
			for _, m := range members {
				if !awayIn(slot, wfh[m.StaffID][date]) {
					available++
				}
			}
			entries = append(entries, model.ScheduleEntry{Date: date, AvailableCount: available, Type: string(slot)})
		}
	}
	return entries
}

func (h *Handler) teamSchedule(w http.ResponseWriter, r *http.Request, op *operation) {
	var vars struct {
		Month   int `json:"month" validate:"required,min=1,max=12"`
		Year    int `json:"year" validate:"required,min=1970,max=9999"`
		StaffID int `json:"staffId" validate:"required,gt=0"`
	}
	if !h.bindVariables(w, r, op, &vars) {
		return
	}

	ctx := r.Context()
	if ok, err := h.canView(ctx, callerID(ctx), vars.StaffID); err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	} else if !ok {
		h.writeError(w, r, http.StatusForbidden, op.Name, "you cannot view this team")
		return
	}

	members, err := h.team(ctx, vars.StaffID)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, r, http.StatusNotFound, op.Name, fmt.Sprintf("unknown staff id %d", vars.StaffID))
		return
	}
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}
	wfh, err := h.wfhByStaffAndDate(ctx, members)
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}

	entries := TeamAvailability(vars.Year, time.Month(vars.Month), members, wfh)
	h.writeData(w, r, op.Name, map[string]any{"teamSchedule": entries})
}

func (h *Handler) managerList(w http.ResponseWriter, r *http.Request, op *operation) {
	var vars struct {
		StaffID int `json:"staffId" validate:"required,gt=0"`
	}
	if !h.bindVariables(w, r, op, &vars) || !h.requireCaller(w, r, op.Name, vars.StaffID) {
		return
	}

	reports, err := h.store.ListReports(r.Context(), vars.StaffID)
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}

	managers := make([]model.User, 0, len(reports))
	for i := range reports {
		if reports[i].Position == model.PositionManager || reports[i].Position == model.PositionDirector {
			managers = append(managers, toUser(&reports[i]))
		}
	}
	h.writeData(w, r, op.Name, map[string]any{"managerList": managers})
}

type teamMember struct {
	StaffID    int    `json:"staffId"`
	Name       string `json:"name"`
	Department string `json:"department"`
	WFHType    string `json:"wfhType"`
}

func (h *Handler) teamDetails(w http.ResponseWriter, r *http.Request, op *operation) {
	var vars struct {
		Date    string `json:"date" validate:"required,datetime=2006-01-02"`
		StaffID int    `json:"staffId" validate:"required,gt=0"`
	}
	if !h.bindVariables(w, r, op, &vars) {
		return
	}

	ctx := r.Context()
	if ok, err := h.canView(ctx, callerID(ctx), vars.StaffID); err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	} else if !ok {
		h.writeError(w, r, http.StatusForbidden, op.Name, "you cannot view this team")
		return
	}

	members, err := h.team(ctx, vars.StaffID)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, r, http.StatusNotFound, op.Name, fmt.Sprintf("unknown staff id %d", vars.StaffID))
		return
	}
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}
	wfh, err := h.wfhByStaffAndDate(ctx, members)
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}

	out := make([]teamMember, len(members))
	for i, m := range members {
		out[i] = teamMember{
			StaffID:    m.StaffID,
			Name:       m.Name,
			Department: m.Department,
			WFHType:    string(wfh[m.StaffID][vars.Date]),
		}
	}
	h.writeData(w, r, op.Name, map[string]any{"teamDetails": out})
}
