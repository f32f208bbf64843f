package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/core/validation"
)

// mockSubmitter implements Submitter
type mockSubmitter struct {
	mu      sync.Mutex
	calls   []model.Submission
	result  *model.SubmissionResult
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (m *mockSubmitter) CreateRequest(ctx context.Context, sub model.Submission) (*model.SubmissionResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, sub)
	m.mu.Unlock()

	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	return m.result, m.err
}

func (m *mockSubmitter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newForm(t *testing.T, sub Submitter) *Form {
	t.Helper()
	schema, err := validation.NewSchema(validation.Capabilities{FileAccess: true})
	require.NoError(t, err)
	f := New(schema, sub, 140001, zap.NewNop())
	f.newKey = func() string { return "key" }
	return f
}

func sept(d, hour int) time.Time {
	return time.Date(2024, 9, d, hour, 0, 0, 0, time.UTC)
}

func TestSubmit_Success(t *testing.T) {
	sub := &mockSubmitter{result: &model.SubmissionResult{Success: float64(200), Message: "ok"}}
	f := newForm(t, sub)

	f.SetType(model.TypeAM)
	f.SetReason("Childcare")
	f.ToggleDate(sept(1, 10))

	status, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, KindSuccess, status.Kind)
	assert.Equal(t, "200", status.Value)
	assert.False(t, status.ShowIndicator())
	assert.Equal(t, Succeeded, f.State())

	require.Equal(t, 1, sub.callCount())
	assert.Equal(t, model.Submission{
		StaffID:        140001,
		Type:           model.TypeAM,
		Reason:         "Childcare",
		Dates:          []string{"2024-09-01"},
		Files:          []model.Attachment{},
		IdempotencyKey: "key",
	}, sub.calls[0])
}

func TestSubmit_EmptyDatesNeverReachesNetwork(t *testing.T) {
	sub := &mockSubmitter{result: &model.SubmissionResult{Success: true}}
	f := newForm(t, sub)

	f.SetType(model.TypeAM)
	f.SetReason("Childcare")

	_, err := f.Submit(context.Background())

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, validation.FieldDate)
	assert.Equal(t, vErr.Fields, f.Errors())
	assert.Equal(t, 0, sub.callCount())
	assert.Equal(t, Editing, f.State())
	assert.Equal(t, KindNone, f.Status().Kind)
}

func TestSubmit_InvalidTypeNeverReachesNetwork(t *testing.T) {
	for _, typ := range []model.WFHType{"", "Full", "night"} {
		t.Run(string(typ), func(t *testing.T) {
			sub := &mockSubmitter{result: &model.SubmissionResult{Success: true}}
			f := newForm(t, sub)
			f.SetType(typ)
			f.SetReason("Childcare")
			f.ToggleDate(sept(1, 0))

			_, err := f.Submit(context.Background())
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, validation.FieldType)
			assert.Equal(t, 0, sub.callCount())
		})
	}
}

func TestSubmit_TransportFailureRecords500(t *testing.T) {
	sub := &mockSubmitter{err: errors.New("connection refused")}
	f := newForm(t, sub)
	f.SetType(model.TypePM)
	f.SetReason("Plumber visit")
	f.ToggleDate(sept(2, 0))

	status, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, KindTransportFailure, status.Kind)
	assert.Equal(t, "500", status.Value)
	assert.True(t, status.ShowIndicator())
	assert.Equal(t, "500", status.Label())
	assert.EqualError(t, status.Err, "connection refused")
	assert.Equal(t, Failed, f.State())
}

func TestSubmit_ApplicationRejectionIsDistinct(t *testing.T) {
	sub := &mockSubmitter{result: &model.SubmissionResult{Success: false, Message: "Quota exceeded"}}
	f := newForm(t, sub)
	f.SetType(model.TypeFull)
	f.SetReason("Moving house")
	f.ToggleDate(sept(3, 0))

	status, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, KindRejected, status.Kind)
	assert.True(t, status.ShowIndicator())
	assert.Equal(t, "Request rejected: Quota exceeded", status.Label())
	assert.Equal(t, Failed, f.State())
}

func TestSubmit_NilResultIsTransportFailure(t *testing.T) {
	sub := &mockSubmitter{}
	f := newForm(t, sub)
	f.SetType(model.TypePM)
	f.SetReason("Boiler repair")
	f.ToggleDate(sept(3, 0))

	status, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindTransportFailure, status.Kind)
	assert.Equal(t, StatusTransportFailure, status.Value)
	assert.EqualError(t, status.Err, "empty response from requests service")
	assert.Equal(t, Failed, f.State())
}

func TestSubmit_TruthySuccessOtherThan200ShowsIndicator(t *testing.T) {
	sub := &mockSubmitter{result: &model.SubmissionResult{Success: true, Message: "ok"}}
	f := newForm(t, sub)
	f.SetType(model.TypeAM)
	f.SetReason("x")
	f.ToggleDate(sept(1, 0))

	status, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindSuccess, status.Kind)
	assert.Equal(t, "true", status.Value)
	assert.True(t, status.ShowIndicator())
}

func TestSubmit_GuardsAgainstOverlappingSubmissions(t *testing.T) {
	sub := &mockSubmitter{
		result:  &model.SubmissionResult{Success: float64(200)},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	f := newForm(t, sub)
	f.SetType(model.TypeAM)
	f.SetReason("Childcare")
	f.ToggleDate(sept(1, 0))

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()

	<-sub.entered
	assert.Equal(t, Submitting, f.State())

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	// Edits stay possible while the request is outstanding
	f.SetReason("Childcare, updated")
	assert.Equal(t, Submitting, f.State())

	// Reset is refused so the outcome still describes the draft
	assert.ErrorIs(t, f.Reset(), ErrSubmitInFlight)
	assert.Equal(t, model.TypeAM, f.Draft().Type)

	close(sub.block)
	require.NoError(t, <-done)
	assert.Equal(t, Succeeded, f.State())
	assert.Equal(t, 1, sub.callCount())

	// The guard is released once the first submission finishes
	sub.block = nil
	sub.entered = nil
	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sub.callCount())
	assert.Equal(t, "Childcare, updated", sub.calls[1].Reason)
}

func TestForm_EditingAfterFinishKeepsDraft(t *testing.T) {
	sub := &mockSubmitter{err: errors.New("timeout")}
	f := newForm(t, sub)
	f.SetType(model.TypeAM)
	f.SetReason("Childcare")
	f.ToggleDate(sept(1, 0))

	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, Failed, f.State())

	f.ToggleDate(sept(2, 0))
	assert.Equal(t, Editing, f.State())

	d := f.Draft()
	assert.Equal(t, model.TypeAM, d.Type)
	assert.Equal(t, "Childcare", d.Reason)
	assert.Len(t, d.Dates, 2)
	assert.Equal(t, "500", f.Status().Value, "status remains until the next submit")

	require.NoError(t, f.Reset())
	d = f.Draft()
	assert.Empty(t, d.Reason)
	assert.Empty(t, d.Dates)
	assert.Equal(t, KindNone, f.Status().Kind)
}

func TestForm_DatesStayInSyncWithDraft(t *testing.T) {
	f := newForm(t, &mockSubmitter{})

	assert.True(t, f.ToggleDate(sept(1, 9)))
	assert.True(t, f.ToggleDate(sept(2, 9)))
	assert.False(t, f.ToggleDate(sept(1, 18)))
	assert.True(t, f.IsSelected(sept(2, 0)))
	assert.False(t, f.IsSelected(sept(1, 0)))

	d := f.Draft()
	require.Len(t, d.Dates, 1)
	assert.Equal(t, 2, d.Dates[0].Day())

	added, err := f.AddRecurrence("FREQ=DAILY;COUNT=3", sept(2, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Len(t, f.Draft().Dates, 3)
}

func TestForm_ReasonIsCappedAt300Characters(t *testing.T) {
	f := newForm(t, &mockSubmitter{})

	assert.True(t, f.SetReason(strings.Repeat("a", MaxReasonLength)))
	assert.False(t, f.SetReason(strings.Repeat("é", MaxReasonLength+20)))
	assert.Equal(t, MaxReasonLength, len([]rune(f.Draft().Reason)))
}

func TestForm_Attachments(t *testing.T) {
	f := newForm(t, &mockSubmitter{})
	f.Attach(model.Attachment{Name: "a.txt", Data: []byte("a")})
	f.Attach(model.Attachment{Name: "b.txt", Data: []byte("b")})
	f.Attach(model.Attachment{Name: "c.txt", Data: []byte("c")})

	require.NoError(t, f.Detach(1))
	assert.Error(t, f.Detach(5))

	files := f.Draft().Files
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, "c.txt", files[1].Name)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "editing", Editing.String())
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "failed", Failed.String())
}
