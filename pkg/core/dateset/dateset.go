package dateset

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

// DayLayout is the wire format for calendar days
const DayLayout = "2006-01-02"

// maxRecurrenceDates bounds how many dates a single recurrence can select
const maxRecurrenceDates = 366

// maxRecurrenceSteps bounds how many raw occurrences are walked to find those days
const maxRecurrenceSteps = 1 << 20

// SameDay reports whether a and b fall on the same calendar day.
// Each time is read in its own location; time-of-day is ignored.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatDay normalizes t to its YYYY-MM-DD calendar day
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD string into midnight UTC of that day
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// Set is an insertion-ordered collection of distinct calendar days.
// Membership is decided by calendar-day equality, never by exact instant.
// A Set is not safe for concurrent use.
type Set struct {
	days []time.Time
}

// New creates a set holding the given dates, dropping same-day duplicates
func New(dates ...time.Time) *Set {
	s := &Set{}
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

func (s *Set) index(t time.Time) int {
	for i, d := range s.days {
		if SameDay(d, t) {
			return i
		}
	}
	return -1
}

// Toggle removes t's day if present and appends it otherwise.
// It returns true when the day is selected after the call.
func (s *Set) Toggle(t time.Time) bool {
	if i := s.index(t); i >= 0 {
		s.days = append(s.days[:i], s.days[i+1:]...)
		return false
	}
	s.days = append(s.days, t)
	return true
}

// Add selects t's day, returning false if it was already selected
func (s *Set) Add(t time.Time) bool {
	if s.index(t) >= 0 {
		return false
	}
	s.days = append(s.days, t)
	return true
}

// Remove deselects t's day, returning false if it was not selected
func (s *Set) Remove(t time.Time) bool {
	i := s.index(t)
	if i < 0 {
		return false
	}
	s.days = append(s.days[:i], s.days[i+1:]...)
	return true
}

// Contains reports whether t's day is selected
func (s *Set) Contains(t time.Time) bool {
	return s.index(t) >= 0
}

// Len returns the number of selected days
func (s *Set) Len() int {
	return len(s.days)
}

// Clear deselects every day
func (s *Set) Clear() {
	s.days = nil
}

// Dates returns the selected dates in selection order
func (s *Set) Dates() []time.Time {
	out := make([]time.Time, len(s.days))
	copy(out, s.days)
	return out
}

// Sorted returns the selected dates in calendar order
func (s *Set) Sorted() []time.Time {
	out := s.Dates()
	sort.Slice(out, func(i, j int) bool {
		return FormatDay(out[i]) < FormatDay(out[j])
	})
	return out
}

// Days returns the selected dates normalized to YYYY-MM-DD, in selection order
func (s *Set) Days() []string {
	out := make([]string, len(s.days))
	for i, d := range s.days {
		out[i] = FormatDay(d)
	}
	return out
}

// AddRecurrence selects every occurrence of an RFC 5545 recurrence rule starting at from.
// The rule must be bounded by COUNT or UNTIL. It returns the number of newly selected days.
func (s *Set) AddRecurrence(rule string, from time.Time) (int, error) {
	occurrences, err := Occurrences(rule, from)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, o := range occurrences {
		if s.Add(o) {
			added++
		}
	}
	return added, nil
}

// Occurrences expands a bounded recurrence rule starting at from.
// It yields the first occurrence on each calendar day and fails once the
// rule reaches more than maxRecurrenceDates distinct days.
func Occurrences(rule string, from time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule: %w", err)
	}
	if r.OrigOptions.Count == 0 && r.OrigOptions.Until.IsZero() {
		return nil, fmt.Errorf("recurrence rule %q must set COUNT or UNTIL", rule)
	}

	r.DTStart(from)

	var days []time.Time
	seen := make(map[string]struct{})
	next := r.Iterator()
	steps := 0
	for o, ok := next(); ok; o, ok = next() {
		steps++
		if steps > maxRecurrenceSteps {
			return nil, fmt.Errorf("recurrence rule repeats more than %d times", maxRecurrenceSteps)
		}
		key := FormatDay(o)
		if _, dup := seen[key]; dup {
			continue
		}
		if len(seen) == maxRecurrenceDates {
			return nil, fmt.Errorf("recurrence rule selects more than %d dates", maxRecurrenceDates)
		}
		seen[key] = struct{}{}
		days = append(days, o)
	}
	return days, nil
}

// MonthDays returns every day of the given month at midnight in loc
func MonthDays(year int, month time.Month, loc *time.Location) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	var days []time.Time
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
