package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/db"
)

// TransferCompleted is the status of a reassignment applied immediately
const TransferCompleted = "completed"

// Employees serves the employee service operations
func (h *Handler) Employees(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, map[string]resolver{
		"assignManager":    h.assignManager,
		"transferRequests": h.transferRequests,
	})
}

func isManager(position string) bool {
	return position == model.PositionManager || position == model.PositionDirector
}

func (h *Handler) assignManager(w http.ResponseWriter, r *http.Request, op *operation) {
	var vars struct {
		StaffID     int `json:"staffId" validate:"required,gt=0"`
		ManagerID   int `json:"managerId" validate:"required,gt=0"`
		RequestedBy int `json:"requestedBy" validate:"required,gt=0"`
	}
	if !h.bindVariables(w, r, op, &vars) || !h.requireCaller(w, r, op.Name, vars.RequestedBy) {
		return
	}

	ctx := r.Context()
	fail := func(msg string) {
		h.writeData(w, r, op.Name, mutationResult{Success: false, Message: msg})
	}

	requester, err := h.store.GetEmployee(ctx, vars.RequestedBy)
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}
	if !isManager(requester.Position) {
		fail("only managers and directors can assign managers")
		return
	}
	if vars.StaffID == vars.ManagerID {
		fail("an employee cannot report to themselves")
		return
	}

	staff, err := h.store.GetEmployee(ctx, vars.StaffID)
	if errors.Is(err, db.ErrNotFound) {
		fail(fmt.Sprintf("unknown staff id %d", vars.StaffID))
		return
	}
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}
	manager, err := h.store.GetEmployee(ctx, vars.ManagerID)
	if errors.Is(err, db.ErrNotFound) {
		fail(fmt.Sprintf("unknown manager id %d", vars.ManagerID))
		return
	}
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}
	if !isManager(manager.Position) {
		fail(fmt.Sprintf("%s is not a manager", manager.Name))
		return
	}
	if staff.ReportingManager == manager.StaffID {
		fail(fmt.Sprintf("%s already reports to %s", staff.Name, manager.Name))
		return
	}

	if err := h.store.SetReportingManager(ctx, staff.StaffID, manager.StaffID); err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}
	transfer := &db.Transfer{
		StaffID:       staff.StaffID,
		FromManagerID: staff.ReportingManager,
		ToManagerID:   manager.StaffID,
		Status:        TransferCompleted,
	}
	if err := h.store.InsertTransfer(ctx, transfer); err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}

	h.logger.Info("Assigned manager",
		zap.Int("staff_id", staff.StaffID),
		zap.Int("from_manager", staff.ReportingManager),
		zap.Int("to_manager", manager.StaffID),
		zap.Int("requested_by", requester.StaffID))

	h.writeData(w, r, op.Name, mutationResult{
		Success: true,
		Message: fmt.Sprintf("%s now reports to %s", staff.Name, manager.Name),
	})
}

func (h *Handler) transferRequests(w http.ResponseWriter, r *http.Request, op *operation) {
	var vars struct {
		StaffID int `json:"staffId" validate:"required,gt=0"`
	}
	if !h.bindVariables(w, r, op, &vars) || !h.requireCaller(w, r, op.Name, vars.StaffID) {
		return
	}

	ctx := r.Context()
	transfers, err := h.store.ListTransfers(ctx, vars.StaffID)
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}

	names := &nameCache{store: h.store, names: make(map[int]string)}
	out := make([]model.TransferRequest, 0, len(transfers))
	for _, t := range transfers {
		tr := model.TransferRequest{
			TransferID:    t.ID,
			StaffID:       t.StaffID,
			FromManagerID: t.FromManagerID,
			ToManagerID:   t.ToManagerID,
			Status:        t.Status,
			CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
		}
		if tr.StaffName, err = names.get(ctx, t.StaffID); err == nil {
			tr.FromManagerName, err = names.get(ctx, t.FromManagerID)
		}
		if err == nil {
			tr.ToManagerName, err = names.get(ctx, t.ToManagerID)
		}
		if err != nil {
			h.writeInternalError(w, r, op.Name, err)
			return
		}
		out = append(out, tr)
	}

	h.writeData(w, r, op.Name, map[string]any{"transferRequests": out})
}

// nameCache resolves staff names once per request
type nameCache struct {
	store db.EmployeeStore
	names map[int]string
}

func (c *nameCache) get(ctx context.Context, staffID int) (string, error) {
	if staffID == 0 {
		return "", nil
	}
	if name, ok := c.names[staffID]; ok {
		return name, nil
	}
	e, err := c.store.GetEmployee(ctx, staffID)
	if errors.Is(err, db.ErrNotFound) {
		c.names[staffID] = ""
		return "", nil
	}
	if err != nil {
		return "", err
	}
	c.names[staffID] = e.Name
	return e.Name, nil
}
