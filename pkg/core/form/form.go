package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/dateset"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/core/validation"
)

// MaxReasonLength is the input cap on the reason field, in characters
const MaxReasonLength = 300

// ErrSubmitInFlight is returned when Submit is called while a submission is outstanding
var ErrSubmitInFlight = errors.New("a submission is already in progress")

// ValidationError is returned by Submit when the draft fails validation
type ValidationError struct {
	Fields validation.FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.Error()
}

// State is the lifecycle stage of the form
type State int

const (
	Editing State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Submitter sends a prepared submission
type Submitter interface {
	CreateRequest(ctx context.Context, sub model.Submission) (*model.SubmissionResult, error)
}

// Form owns the state of one WFH application: the draft fields, the selected
// dates and the outcome of the last submission. The date set is the only
// record of selected dates; Draft derives from it. Form is safe for concurrent use.
type Form struct {
	mu sync.Mutex

	schema    *validation.Schema
	submitter Submitter
	staffID   int
	logger    *zap.Logger
	newKey    func() string

	wfhType model.WFHType
	reason  string
	dates   *dateset.Set
	files   []model.Attachment

	state    State
	status   Status
	errors   validation.FieldErrors
	inFlight bool
}

// New creates an empty form for staffID
func New(schema *validation.Schema, submitter Submitter, staffID int, logger *zap.Logger) *Form {
	return &Form{
		schema:    schema,
		submitter: submitter,
		staffID:   staffID,
		logger:    logger,
		newKey:    uuid.NewString,
		dates:     dateset.New(),
	}
}

// edited moves a finished form back to Editing. Callers hold f.mu.
func (f *Form) edited() {
	if f.state == Succeeded || f.state == Failed {
		f.state = Editing
	}
}

// SetType sets the request type
func (f *Form) SetType(t model.WFHType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wfhType = t
	f.edited()
}

// SetReason sets the reason, truncated to MaxReasonLength characters.
// It returns false when the input was truncated.
func (f *Form) SetReason(reason string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	complete := true
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		reason = string([]rune(reason)[:MaxReasonLength])
		complete = false
	}
	f.reason = reason
	f.edited()
	return complete
}

// ToggleDate selects or deselects the calendar day of t.
// It returns true when the day is selected after the call.
func (f *Form) ToggleDate(t time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	selected := f.dates.Toggle(t)
	f.edited()
	return selected
}

// AddRecurrence selects every day matched by a bounded recurrence rule
func (f *Form) AddRecurrence(rule string, from time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	added, err := f.dates.AddRecurrence(rule, from)
	if err != nil {
		return 0, err
	}
	f.edited()
	return added, nil
}

// IsSelected reports whether t's calendar day is selected
func (f *Form) IsSelected(t time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dates.Contains(t)
}

// Attach adds a file to the draft
func (f *Form) Attach(a model.Attachment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, a)
	f.edited()
}

// Detach removes the attachment at index i
func (f *Form) Detach(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.files) {
		return fmt.Errorf("no attachment at position %d", i+1)
	}
	f.files = append(f.files[:i:i], f.files[i+1:]...)
	f.edited()
	return nil
}

// Draft returns a snapshot of the current draft
func (f *Form) Draft() model.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draftLocked()
}

func (f *Form) draftLocked() model.Draft {
	files := make([]model.Attachment, len(f.files))
	copy(files, f.files)
	return model.Draft{
		Type:   f.wfhType,
		Reason: f.reason,
		Dates:  f.dates.Dates(),
		Files:  files,
	}
}

// State returns the current lifecycle stage
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Status returns the outcome of the last submission
func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Errors returns the field errors from the last validation
func (f *Form) Errors() validation.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors
}

// Validate checks the current draft without submitting it
func (f *Form) Validate() validation.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = f.schema.Validate(f.draftLocked())
	return f.errors
}

// Reset clears the draft and any recorded status.
// It returns ErrSubmitInFlight while a submission is outstanding.
func (f *Form) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return ErrSubmitInFlight
	}
	f.wfhType = ""
	f.reason = ""
	f.dates.Clear()
	f.files = nil
	f.errors = nil
	f.status = Status{}
	f.state = Editing
	return nil
}

// Submit validates the draft and, when valid, sends it.
// A draft that fails validation is never sent and yields a *ValidationError.
// Transport failures and service rejections are recorded in the returned
// Status rather than returned as errors. The draft is kept after submitting.
func (f *Form) Submit(ctx context.Context) (Status, error) {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return Status{}, ErrSubmitInFlight
	}

	draft := f.draftLocked()
	if errs := f.schema.Validate(draft); len(errs) > 0 {
		f.errors = errs
		f.mu.Unlock()
		f.logger.Debug("WFH request failed validation", zap.Any("errors", map[string]string(errs)))
		return Status{}, &ValidationError{Fields: errs}
	}

	f.errors = nil
	f.inFlight = true
	f.state = Submitting
	sub := model.Submission{
		StaffID:        f.staffID,
		Type:           draft.Type,
		Reason:         draft.Reason,
		Dates:          f.dates.Days(),
		Files:          draft.Files,
		IdempotencyKey: f.newKey(),
	}
	f.mu.Unlock()

	f.logger.Debug("Submitting WFH request",
		zap.Int("staff_id", sub.StaffID),
		zap.String("type", string(sub.Type)),
		zap.Strings("dates", sub.Dates),
		zap.Int("files", len(sub.Files)),
		zap.String("idempotency_key", sub.IdempotencyKey))

	result, err := f.submitter.CreateRequest(ctx, sub)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false

	switch {
	case err != nil:
		f.logger.Warn("WFH request submission failed", zap.Error(err))
		f.status = transportFailure(err)
		f.state = Failed
	case result == nil:
		f.logger.Warn("WFH request submission returned no result")
		f.status = transportFailure(errors.New("empty response from requests service"))
		f.state = Failed
	case result.Truthy():
		f.logger.Debug("WFH request accepted", zap.Any("success", result.Success), zap.String("message", result.Message))
		f.status = Status{Kind: KindSuccess, Value: result.SuccessString(), Message: result.Message}
		f.state = Succeeded
	default:
		f.logger.Info("WFH request rejected", zap.Any("success", result.Success), zap.String("message", result.Message))
		f.status = Status{Kind: KindRejected, Value: result.SuccessString(), Message: result.Message}
		f.state = Failed
	}

	return f.status, nil
}
