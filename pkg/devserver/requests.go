package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/db"
	"github.com/jakechorley/wfh-portal/pkg/gqlupload"
	"github.com/jakechorley/wfh-portal/pkg/notify"
)

// Requests serves the requests service: multipart createRequest and JSON queries
func (h *Handler) Requests(w http.ResponseWriter, r *http.Request) {
	if gqlupload.IsMultipart(r) {
		h.createRequest(w, r)
		return
	}
	h.dispatch(w, r, map[string]resolver{
		"subordinatesRequest": h.subordinatesRequest,
		"updateRequestStatus": h.updateRequestStatus,
	})
}

// requireCaller answers with an error unless the token belongs to staffID
func (h *Handler) requireCaller(w http.ResponseWriter, r *http.Request, operation string, staffID int) bool {
	if callerID(r.Context()) != staffID {
		h.writeError(w, r, http.StatusForbidden, operation, "staffId does not match the logged in user")
		return false
	}
	return true
}

type createRequestVariables struct {
	StaffID int      `json:"staffId" validate:"required,gt=0"`
	Reason  string   `json:"reason" validate:"required,max=300"`
	Type    string   `json:"type" validate:"required,oneof=AM PM full"`
	Date    []string `json:"date" validate:"required,min=1,dive,datetime=2006-01-02"`
}

const createRequestOp = "createRequest"

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes+maxJSONBytes)
	upload, err := gqlupload.Decode(r, h.opts.MaxUploadBytes)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, createRequestOp, err.Error())
		return
	}
	if name, err := rootField(upload.Query); err != nil || name != createRequestOp {
		h.writeError(w, r, http.StatusBadRequest, createRequestOp, "multipart requests must be createRequest mutations")
		return
	}

	var vars createRequestVariables
	if err := upload.Bind(&vars); err != nil {
		h.writeError(w, r, http.StatusBadRequest, createRequestOp, err.Error())
		return
	}
	if !h.requireCaller(w, r, createRequestOp, vars.StaffID) {
		return
	}

	ctx := r.Context()
	key := r.Header.Get(IdempotencyHeader)
	if h.idem != nil && key != "" {
		claimed, err := h.idem.Claim(ctx, key)
		if err != nil {
			h.writeInternalError(w, r, createRequestOp, err)
			return
		}
		if !claimed {
			prior, err := h.idem.Result(ctx, key)
			if err != nil {
				h.writeInternalError(w, r, createRequestOp, err)
				return
			}
			h.logger.Info("Replaying duplicate submission", zap.String("idempotency_key", key))
			if prior == nil {
				prior = &model.SubmissionResult{Success: false, Message: "this submission is already being processed"}
			}
			h.writeData(w, r, createRequestOp, prior)
			return
		}
	}

	result, err := h.storeRequests(r, vars, upload.Files("files"))
	if err != nil {
		if h.idem != nil && key != "" {
			if relErr := h.idem.Release(ctx, key); relErr != nil {
				h.logger.Warn("Failed to release idempotency key", zap.Error(relErr))
			}
		}
		h.writeInternalError(w, r, createRequestOp, err)
		return
	}

	if h.idem != nil && key != "" {
		if !result.Truthy() {
			err = h.idem.Release(ctx, key)
		} else {
			err = h.idem.Complete(ctx, key, result)
		}
		if err != nil {
			h.logger.Warn("Failed to record idempotency key", zap.Error(err))
		}
	}

	h.writeData(w, r, createRequestOp, result)
}

// storeRequests validates and records one request per date.
// Rejections come back as an unsuccessful result; only store failures are errors.
func (h *Handler) storeRequests(r *http.Request, vars createRequestVariables, uploads []gqlupload.Upload) (*model.SubmissionResult, error) {
	ctx := r.Context()

	if err := h.validate.Struct(vars); err != nil {
		return &model.SubmissionResult{Success: false, Message: h.validationMessage(err)}, nil
	}

	employee, err := h.store.GetEmployee(ctx, vars.StaffID)
	if errors.Is(err, db.ErrNotFound) {
		return &model.SubmissionResult{Success: false, Message: fmt.Sprintf("unknown staff id %d", vars.StaffID)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	existing, err := h.store.ListRequests(ctx, []int{vars.StaffID})
	if err != nil {
		return nil, fmt.Errorf("failed to load existing requests: %w", err)
	}
	taken := make(map[string]bool)
	for _, req := range existing {
		if req.Status != string(model.StatusRejected) {
			taken[req.Date] = true
		}
	}
	seen := make(map[string]bool, len(vars.Date))
	for _, date := range vars.Date {
		if taken[date] {
			return &model.SubmissionResult{Success: false, Message: fmt.Sprintf("a request for %s already exists", date)}, nil
		}
		if seen[date] {
			return &model.SubmissionResult{Success: false, Message: fmt.Sprintf("%s is listed more than once", date)}, nil
		}
		seen[date] = true
	}

	stored := make([]string, 0, len(uploads))
	for _, u := range uploads {
		name, err := h.files.Save(u.Filename, u.Data)
		if err != nil {
			h.files.Remove(stored...)
			return nil, err
		}
		stored = append(stored, name)
	}

	requests := make([]db.Request, len(vars.Date))
	for i, date := range vars.Date {
		requests[i] = db.Request{
			StaffID: vars.StaffID,
			Date:    date,
			Type:    vars.Type,
			Reason:  vars.Reason,
			Status:  string(model.StatusPending),
			Files:   stored,
		}
	}
	if err := h.store.InsertRequests(ctx, requests); err != nil {
		h.files.Remove(stored...)
		return nil, fmt.Errorf("failed to store requests: %w", err)
	}

	h.logger.Info("Stored WFH requests",
		zap.Int("staff_id", vars.StaffID),
		zap.String("type", vars.Type),
		zap.Strings("dates", vars.Date),
		zap.Int("files", len(stored)))

	h.publish(r, notify.RequestSubmitted(
		notify.Recipient{Name: employee.Name, Email: employee.Email},
		vars.Type, vars.Date, vars.Reason))

	return &model.SubmissionResult{
		Success: http.StatusOK,
		Message: fmt.Sprintf("Request submitted for %d date(s)", len(vars.Date)),
	}, nil
}

// publish sends msg when a publisher is configured. Failures are logged only.
func (h *Handler) publish(r *http.Request, msg notify.Message) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(r.Context(), msg); err != nil {
		h.logger.Warn("Failed to publish confirmation email", zap.String("email", msg.Email), zap.Error(err))
	}
}

func (h *Handler) subordinatesRequest(w http.ResponseWriter, r *http.Request, op *operation) {
	var vars struct {
		StaffID int `json:"staffId" validate:"required,gt=0"`
	}
	if !h.bindVariables(w, r, op, &vars) || !h.requireCaller(w, r, op.Name, vars.StaffID) {
		return
	}

	ctx := r.Context()
	reports, err := h.store.ListReports(ctx, vars.StaffID)
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}

	byID := make(map[int]db.Employee, len(reports))
	ids := make([]int, 0, len(reports))
	for _, e := range reports {
		byID[e.StaffID] = e
		ids = append(ids, e.StaffID)
	}

	requests, err := h.store.ListRequests(ctx, ids)
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}

	out := make([]model.WFHRequest, 0, len(requests))
	for _, req := range requests {
		e := byID[req.StaffID]
		out = append(out, model.WFHRequest{
			RequestID:           req.ID,
			StaffID:             req.StaffID,
			RequestingStaffName: e.Name,
			Department:          e.Department,
			Date:                req.Date,
			Type:                req.Type,
			CreatedAt:           req.CreatedAt.UTC().Format(time.RFC3339),
			Reason:              req.Reason,
			Remarks:             req.Remarks,
			Status:              model.RequestStatus(req.Status),
			Files:               req.Files,
		})
	}

	h.writeData(w, r, op.Name, map[string]any{"subordinatesRequest": out})
}

func (h *Handler) updateRequestStatus(w http.ResponseWriter, r *http.Request, op *operation) {
	var vars struct {
		StaffID   int    `json:"staffId" validate:"required,gt=0"`
		RequestID int    `json:"requestId" validate:"required,gt=0"`
		Status    string `json:"status" validate:"required,oneof=approved rejected"`
		Remarks   string `json:"remarks" validate:"max=300"`
	}
	if !h.bindVariables(w, r, op, &vars) || !h.requireCaller(w, r, op.Name, vars.StaffID) {
		return
	}

	ctx := r.Context()
	req, err := h.store.GetRequest(ctx, vars.RequestID)
	if errors.Is(err, db.ErrNotFound) {
		h.writeData(w, r, op.Name, mutationResult{Success: false, Message: fmt.Sprintf("request %d not found", vars.RequestID)})
		return
	}
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}

	employee, err := h.store.GetEmployee(ctx, req.StaffID)
	if err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}
	if employee.ReportingManager != vars.StaffID {
		h.writeData(w, r, op.Name, mutationResult{Success: false, Message: "request is not from your team"})
		return
	}
	if req.Status != string(model.StatusPending) {
		h.writeData(w, r, op.Name, mutationResult{Success: false, Message: fmt.Sprintf("request is already %s", req.Status)})
		return
	}

	if err := h.store.UpdateRequestStatus(ctx, req.ID, vars.Status, vars.Remarks); err != nil {
		h.writeInternalError(w, r, op.Name, err)
		return
	}

	h.logger.Info("Reviewed WFH request",
		zap.Int("request_id", req.ID),
		zap.Int("reviewer", vars.StaffID),
		zap.String("status", vars.Status))

	h.publish(r, notify.RequestReviewed(
		notify.Recipient{Name: employee.Name, Email: employee.Email},
		req.Date, req.Type, vars.Status, vars.Remarks))

	h.writeData(w, r, op.Name, mutationResult{
		Success: true,
		Message: "Request " + vars.Status,
	})
}
