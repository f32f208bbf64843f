package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/internal/config"
	"github.com/jakechorley/wfh-portal/pkg/core/form"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/core/validation"
)

func newTestForm(t *testing.T, sub form.Submitter) *form.Form {
	t.Helper()
	schema, err := validation.NewSchema(validation.Capabilities{FileAccess: true})
	require.NoError(t, err)
	return form.New(schema, sub, 140001, zap.NewNop())
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.DatePatterns = []config.DatePattern{
		{Name: "next-two-fridays", RRule: "FREQ=WEEKLY;BYDAY=FR;COUNT=2"},
	}
	return cfg
}

func TestApplyWFH_Success(t *testing.T) {
	sub := &mockSubmitter{result: &model.SubmissionResult{Success: float64(200), Message: "Request created"}}
	f := newTestForm(t, sub)

	result, err := ApplyWFH(context.Background(), f, testConfig(), zap.NewNop(), ApplyWFHArgs{
		Type:   model.TypeAM,
		Reason: "Childcare",
		Dates:  []string{"2024-09-01"},
	})
	require.NoError(t, err)

	assert.Equal(t, "200", result.Status.Value)
	assert.False(t, result.Status.ShowIndicator())
	require.Len(t, sub.calls, 1)
	assert.Equal(t, []string{"2024-09-01"}, sub.calls[0].Dates)
	assert.Equal(t, 140001, sub.calls[0].StaffID)
	assert.NotEmpty(t, sub.calls[0].IdempotencyKey)
}

func TestApplyWFH_RepeatedDateToggles(t *testing.T) {
	sub := &mockSubmitter{result: &model.SubmissionResult{Success: true}}
	f := newTestForm(t, sub)

	_, err := ApplyWFH(context.Background(), f, testConfig(), zap.NewNop(), ApplyWFHArgs{
		Type:   model.TypePM,
		Reason: "Dentist",
		Dates:  []string{"2024-09-01", "2024-09-02", "2024-09-01"},
	})
	require.NoError(t, err)
	require.Len(t, sub.calls, 1)
	assert.Equal(t, []string{"2024-09-02"}, sub.calls[0].Dates)
}

func TestApplyWFH_ValidationErrorSendsNothing(t *testing.T) {
	sub := &mockSubmitter{result: &model.SubmissionResult{Success: true}}
	f := newTestForm(t, sub)

	_, err := ApplyWFH(context.Background(), f, testConfig(), zap.NewNop(), ApplyWFHArgs{
		Type:   model.TypeAM,
		Reason: "Childcare",
	})

	var vErr *form.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, validation.FieldDate)
	assert.Empty(t, sub.calls)
}

func TestApplyWFH_TransportFailure(t *testing.T) {
	sub := &mockSubmitter{err: errors.New("dial tcp: connection refused")}
	f := newTestForm(t, sub)

	result, err := ApplyWFH(context.Background(), f, testConfig(), zap.NewNop(), ApplyWFHArgs{
		Type:   model.TypeFull,
		Reason: "Moving house",
		Dates:  []string{"2024-09-03"},
	})
	require.NoError(t, err)
	assert.Equal(t, "500", result.Status.Value)
	assert.True(t, result.Status.ShowIndicator())
}

func TestApplyWFH_NamedPattern(t *testing.T) {
	sub := &mockSubmitter{result: &model.SubmissionResult{Success: true}}
	f := newTestForm(t, sub)

	_, err := ApplyWFH(context.Background(), f, testConfig(), zap.NewNop(), ApplyWFHArgs{
		Type:         model.TypeFull,
		Reason:       "Fridays",
		Pattern:      "next-two-fridays",
		PatternStart: time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, sub.calls, 1)
	assert.Equal(t, []string{"2024-09-06", "2024-09-13"}, sub.calls[0].Dates)
}

func TestFillForm_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   ApplyWFHArgs
		errMsg string
	}{
		{"bad date", ApplyWFHArgs{Dates: []string{"01/09/2024"}}, "invalid date"},
		{"unknown pattern", ApplyWFHArgs{Pattern: "mondays"}, "unknown date pattern"},
		{"pattern and rrule", ApplyWFHArgs{Pattern: "next-two-fridays", RRule: "FREQ=DAILY;COUNT=1"}, "not both"},
		{"unbounded rrule", ApplyWFHArgs{RRule: "FREQ=DAILY"}, "failed to apply date pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestForm(t, &mockSubmitter{})
			err := FillForm(f, testConfig(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFillForm_AttachesFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))

	f := newTestForm(t, &mockSubmitter{})
	require.NoError(t, FillForm(f, testConfig(), ApplyWFHArgs{Files: []string{path}}))

	files := f.Draft().Files
	require.Len(t, files, 1)
	assert.Equal(t, "note.pdf", files[0].Name)
	assert.Equal(t, path, files[0].Path)
}
