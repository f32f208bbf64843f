package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/core/services"
)

func TestTeamSchedule(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schedule.xlsx")

	schedule := &services.TeamScheduleResult{
		Month:     9,
		Year:      2024,
		ManagerID: 20,
		Days: services.GroupScheduleByDay([]model.ScheduleEntry{
			{Date: "2024-09-02", AvailableCount: 4, Type: "AM"},
			{Date: "2024-09-02", AvailableCount: 3, Type: "full"},
			{Date: "2024-09-03", AvailableCount: 5, Type: "PM"},
		}),
	}

	require.NoError(t, NewExporter(zap.NewNop()).TeamSchedule(schedule, out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"2024-09"}, f.GetSheetList())

	rows, err := f.GetRows("2024-09")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Available (AM)", "Available (PM)", "Available (full)"}, rows[0])
	assert.Equal(t, []string{"2024-09-02", "4", "", "3"}, rows[1])
	assert.Equal(t, []string{"2024-09-03", "", "5"}, rows[2])
}

func TestRequests(t *testing.T) {
	out := filepath.Join(t.TempDir(), "requests.xlsx")

	requests := &services.SubordinateRequestsResult{ByStatus: map[model.RequestStatus][]model.WFHRequest{
		model.StatusPending: {
			{RequestID: 2, RequestingStaffName: "Ann", Department: "Sales", Date: "2024-09-02", Type: "PM", Reason: "Dentist", Files: []string{"a.pdf", "b.pdf"}},
		},
		model.StatusRejected: {
			{RequestID: 4, RequestingStaffName: "Cal", Date: "2024-09-02", Type: "AM", Remarks: "Offsite"},
		},
	}}

	require.NoError(t, NewExporter(zap.NewNop()).Requests(requests, out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Pending", "Approved", "Rejected"}, f.GetSheetList())

	pending, err := f.GetRows("Pending")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "Request ID", pending[0][0])
	assert.Equal(t, []string{"2", "Ann", "Sales", "2024-09-02", "PM", "Dentist", "", "", "a.pdf, b.pdf"}, pending[1])

	approved, err := f.GetRows("Approved")
	require.NoError(t, err)
	assert.Len(t, approved, 1, "header only")

	rejected, err := f.GetRows("Rejected")
	require.NoError(t, err)
	require.Len(t, rejected, 2)
	assert.Equal(t, "Offsite", rejected[1][6])
}
