package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jakechorley/wfh-portal/pkg/core/dateset"
	"github.com/jakechorley/wfh-portal/pkg/core/form"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/core/services"
	"github.com/jakechorley/wfh-portal/pkg/core/validation"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorOrange = "\033[38;5;208m"
	colorDim    = "\033[2m"
)

// palette lets tests render without escape codes
type palette struct {
	reset, green, red, yellow, orange, dim string
}

var (
	ansiPalette  = palette{colorReset, colorGreen, colorRed, colorYellow, colorOrange, colorDim}
	plainPalette = palette{}
)

func (p palette) paint(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + p.reset
}

// availabilityColor picks a color for the number of people in the office:
// orange for three or fewer, yellow for half the team or fewer, green otherwise
func availabilityColor(available, total int, green, yellow, orange string) string {
	if available <= 3 {
		return orange
	}
	if available <= total/2 {
		return yellow
	}
	return green
}

// teamSize is the largest head count seen in a month, i.e. a day with nobody away
func teamSize(days []services.ScheduleDay) int {
	size := 0
	for _, d := range days {
		for _, s := range d.Slots {
			size = max(size, s.AvailableCount)
		}
	}
	return size
}

// renderCalendar prints a Monday-first month grid. Selected days are bracketed.
func renderCalendar(w io.Writer, year int, month time.Month, selected func(time.Time) bool) {
	days := dateset.MonthDays(year, month, time.Local)

	fmt.Fprintf(w, "%s %d\n", month, year)
	fmt.Fprintln(w, " Mo  Tu  We  Th  Fr  Sa  Su")

	offset := (int(days[0].Weekday()) + 6) % 7
	fmt.Fprint(w, strings.Repeat("    ", offset))

	col := offset
	for _, d := range days {
		if selected(d) {
			fmt.Fprintf(w, "[%2d]", d.Day())
		} else {
			fmt.Fprintf(w, " %2d ", d.Day())
		}
		col++
		if col == 7 {
			fmt.Fprintln(w)
			col = 0
		}
	}
	if col != 0 {
		fmt.Fprintln(w)
	}
}

// renderDraft prints the form fields and any validation messages
func renderDraft(w io.Writer, d model.Draft, errs validation.FieldErrors) {
	field := func(label, key, value string) {
		fmt.Fprintf(w, "  %-8s %s\n", label+":", value)
		if msg, ok := errs[key]; ok {
			fmt.Fprintf(w, "  %-8s ✗ %s\n", "", msg)
		}
	}

	wfhType := string(d.Type)
	if wfhType == "" {
		wfhType = "(not set)"
	}
	field("type", validation.FieldType, wfhType)
	field("reason", validation.FieldReason, fmt.Sprintf("%q (%d/%d)", d.Reason, len([]rune(d.Reason)), form.MaxReasonLength))

	dates := make([]string, 0, len(d.Dates))
	for _, t := range d.Dates {
		dates = append(dates, dateset.FormatDay(t))
	}
	if len(dates) == 0 {
		field("dates", validation.FieldDate, "(none)")
	} else {
		field("dates", validation.FieldDate, strings.Join(dates, ", "))
	}

	if len(d.Files) == 0 {
		field("files", validation.FieldFile, "(none)")
		return
	}
	names := make([]string, 0, len(d.Files))
	for i, f := range d.Files {
		names = append(names, fmt.Sprintf("%d:%s", i+1, f.Name))
	}
	field("files", validation.FieldFile, strings.Join(names, ", "))
}

// renderStatus prints the outcome of the last submission
func renderStatus(w io.Writer, s form.Status) {
	switch s.Kind {
	case form.KindNone:
		return
	case form.KindSuccess:
		msg := s.Message
		if msg == "" {
			msg = "Request submitted"
		}
		fmt.Fprintf(w, "\n✓ %s (status %s)\n", msg, s.Value)
	case form.KindRejected:
		fmt.Fprintf(w, "\n✗ %s (status %s)\n", s.Label(), s.Value)
	case form.KindTransportFailure:
		fmt.Fprintf(w, "\n✗ Could not reach the requests service (status %s)", s.Label())
		if s.Err != nil {
			fmt.Fprintf(w, ": %v", s.Err)
		}
		fmt.Fprintln(w)
	}
}

// renderSchedule prints one row per day with the in-office count of each slot
func renderSchedule(w io.Writer, result *services.TeamScheduleResult, p palette) {
	fmt.Fprintf(w, "\nTeam availability for %s %d (manager %d)\n\n",
		time.Month(result.Month), result.Year, result.ManagerID)

	if len(result.Days) == 0 {
		fmt.Fprintln(w, "No schedule entries.")
		return
	}

	const colWidth = 8
	fmt.Fprintf(w, "%-16s", "Date")
	for _, t := range model.WFHTypes {
		fmt.Fprintf(w, "%-*s", colWidth, t)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 16+colWidth*len(model.WFHTypes)))

	total := teamSize(result.Days)
	for _, day := range result.Days {
		label := day.Date
		if t, err := dateset.ParseDay(day.Date); err == nil {
			label = t.Format("Mon 02 Jan")
		}
		fmt.Fprintf(w, "%-16s", label)

		bySlot := make(map[model.WFHType]int, len(day.Slots))
		for _, s := range day.Slots {
			bySlot[model.NormalizeWFHType(s.Type)] = s.AvailableCount
		}
		for _, t := range model.WFHTypes {
			count, ok := bySlot[t]
			if !ok {
				fmt.Fprint(w, p.paint(p.dim, fmt.Sprintf("%-*s", colWidth, "-")))
				continue
			}
			color := availabilityColor(count, total, p.green, p.yellow, p.orange)
			fmt.Fprint(w, p.paint(color, fmt.Sprintf("%-*s", colWidth, fmt.Sprintf("%d/%d", count, total))))
		}
		fmt.Fprintln(w)
	}
}

// renderScheduleDetail prints where each team member works on one day and the slot totals
func renderScheduleDetail(w io.Writer, detail *model.ScheduleDetail) {
	fmt.Fprintf(w, "\n%s\n\n", detail.Title())

	if len(detail.Rows) == 0 {
		fmt.Fprintln(w, "No team members.")
		return
	}

	nameWidth := 20
	for _, r := range detail.Rows {
		nameWidth = max(nameWidth, len(r.Name)+2)
	}

	fmt.Fprintf(w, "%-*s%-16s%-8s%-8s\n", nameWidth, "Name", "Department", "AM", "PM")
	fmt.Fprintln(w, strings.Repeat("-", nameWidth+32))
	for _, r := range detail.Rows {
		fmt.Fprintf(w, "%-*s%-16s%-8s%-8s\n", nameWidth, r.Name, r.Department, r.AM, r.PM)
	}

	fmt.Fprintln(w)
	for _, c := range detail.Chart {
		fmt.Fprintf(w, "  %-5s office %d, wfh %d\n", c.Type, c.Office, c.WFH)
	}
}

// renderRequests prints the requests of each status in turn
func renderRequests(w io.Writer, result *services.SubordinateRequestsResult, statuses []model.RequestStatus) {
	for _, status := range statuses {
		requests := result.ByStatus[status]
		fmt.Fprintf(w, "\n%s (%d)\n", strings.ToUpper(string(status)), len(requests))
		if len(requests) == 0 {
			fmt.Fprintln(w, "  none")
			continue
		}
		for _, r := range requests {
			fmt.Fprintf(w, "  #%-5d %-10s %-5s %-20s %s\n", r.RequestID, r.Date, r.Type, r.RequestingStaffName, r.Reason)
		}
	}
	fmt.Fprintln(w)
}

// renderRequestDetail prints every field of one request
func renderRequestDetail(w io.Writer, detail *model.RequestDetail) {
	r := detail.Request
	fmt.Fprintf(w, "\n%s\n\n", detail.Title())
	fmt.Fprintf(w, "Staff:      %s (%d), %s\n", r.RequestingStaffName, r.StaffID, r.Department)
	fmt.Fprintf(w, "Date:       %s (%s)\n", r.Date, r.Type)
	fmt.Fprintf(w, "Status:     %s\n", r.Status)
	fmt.Fprintf(w, "Submitted:  %s\n", r.CreatedAt)
	fmt.Fprintf(w, "Reason:     %s\n", r.Reason)
	if r.Remarks != "" {
		fmt.Fprintf(w, "Remarks:    %s\n", r.Remarks)
	}
	if len(r.Files) > 0 {
		fmt.Fprintf(w, "Files:      %s\n", strings.Join(r.Files, ", "))
	}
	fmt.Fprintln(w)
}

// renderTransfers prints manager transfers, newest first
func renderTransfers(w io.Writer, transfers []model.TransferRequest) {
	if len(transfers) == 0 {
		fmt.Fprintln(w, "\nNo transfer requests.")
		return
	}
	fmt.Fprintf(w, "\nFound %d transfer requests:\n\n", len(transfers))
	for _, t := range transfers {
		from := t.FromManagerName
		if from == "" {
			from = "(none)"
		}
		fmt.Fprintf(w, "- #%d %s: %s → %s [%s] %s\n", t.TransferID, t.StaffName, from, t.ToManagerName, t.Status, t.CreatedAt)
	}
	fmt.Fprintln(w)
}
