package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jakechorley/wfh-portal/internal/config"
	"github.com/jakechorley/wfh-portal/pkg/core/dateset"
	"github.com/jakechorley/wfh-portal/pkg/core/form"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// formSession edits one form from typed commands, showing the month calendar as it goes
type formSession struct {
	f     *form.Form
	cfg   *config.Config
	out   io.Writer
	now   func() time.Time
	month time.Time
}

func newFormSession(f *form.Form, cfg *config.Config, out io.Writer) *formSession {
	s := &formSession{f: f, cfg: cfg, out: out, now: time.Now}
	s.month = firstOfMonth(s.now())
	return s
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
}

// Run reads commands until exit or end of input
func (s *formSession) Run(ctx context.Context, in *bufio.Scanner) error {
	fmt.Fprintln(s.out, "\n📝 WFH application. Type 'help' for commands, 'exit' to leave.")
	s.show()

	for {
		fmt.Fprint(s.out, "apply> ")
		if !in.Scan() {
			break
		}

		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}

		args, err := parseCommandLine(line)
		if err != nil {
			fmt.Fprintf(s.out, "❌ Error parsing command: %v\n", err)
			continue
		}

		done, err := s.exec(ctx, args)
		if err != nil {
			fmt.Fprintf(s.out, "❌ Error: %v\n", err)
		}
		if done {
			return nil
		}
	}

	if err := in.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// exec runs one session command. done is true when the session should end.
func (s *formSession) exec(ctx context.Context, args []string) (done bool, err error) {
	if len(args) == 0 {
		return false, nil
	}
	name, rest := args[0], args[1:]

	switch name {
	case "exit", "quit":
		fmt.Fprintln(s.out, "👋 Leaving the form")
		return true, nil
	case "help":
		s.help()
	case "show":
		s.show()
	case "type":
		if len(rest) != 1 {
			return false, fmt.Errorf("usage: type AM|PM|full")
		}
		s.f.SetType(model.WFHType(rest[0]))
	case "reason":
		if !s.f.SetReason(strings.Join(rest, " ")) {
			fmt.Fprintf(s.out, "⚠️  Reason truncated to %d characters\n", form.MaxReasonLength)
		}
	case "toggle":
		return false, s.toggle(rest)
	case "pattern":
		return false, s.pattern(rest)
	case "attach":
		if len(rest) == 0 {
			return false, fmt.Errorf("usage: attach <path>...")
		}
		for _, path := range rest {
			s.f.Attach(model.AttachmentFromPath(path))
		}
	case "detach":
		if len(rest) != 1 {
			return false, fmt.Errorf("usage: detach <n>")
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return false, fmt.Errorf("attachment number must be a number: %w", err)
		}
		return false, s.f.Detach(n - 1)
	case "month":
		if len(rest) != 1 {
			return false, fmt.Errorf("usage: month next|prev")
		}
		switch rest[0] {
		case "next":
			s.month = s.month.AddDate(0, 1, 0)
		case "prev":
			s.month = s.month.AddDate(0, -1, 0)
		default:
			return false, fmt.Errorf("usage: month next|prev")
		}
		renderCalendar(s.out, s.month.Year(), s.month.Month(), s.f.IsSelected)
	case "reset":
		if err := s.f.Reset(); err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, "✓ Form cleared")
	case "submit":
		return false, s.submit(ctx)
	default:
		return false, fmt.Errorf("unknown command %q (type 'help' for commands)", name)
	}
	return false, nil
}

// toggle accepts full dates or day numbers within the displayed month
func (s *formSession) toggle(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: toggle <YYYY-MM-DD|day>...")
	}

	for _, arg := range args {
		day, err := s.parseDay(arg)
		if err != nil {
			return err
		}
		if s.f.ToggleDate(day) {
			fmt.Fprintf(s.out, "  + %s\n", dateset.FormatDay(day))
		} else {
			fmt.Fprintf(s.out, "  - %s\n", dateset.FormatDay(day))
		}
	}
	return nil
}

func (s *formSession) parseDay(arg string) (time.Time, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return dateset.ParseDay(arg)
	}
	last := s.month.AddDate(0, 1, -1).Day()
	if n < 1 || n > last {
		return time.Time{}, fmt.Errorf("%s %d has no day %d", s.month.Month(), s.month.Year(), n)
	}
	return s.month.AddDate(0, 0, n-1), nil
}

// pattern applies a named pattern or an inline rule, starting today
func (s *formSession) pattern(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: pattern <name|RRULE>")
	}

	rule := args[0]
	if p, ok := s.cfg.Pattern(rule); ok {
		rule = p.RRule
	}

	added, err := s.f.AddRecurrence(rule, s.now())
	if err != nil {
		return fmt.Errorf("failed to apply date pattern: %w", err)
	}
	fmt.Fprintf(s.out, "✓ Added %d dates\n", added)
	return nil
}

func (s *formSession) submit(ctx context.Context) error {
	status, err := s.f.Submit(ctx)

	var validationErr *form.ValidationError
	switch {
	case errors.As(err, &validationErr):
		fmt.Fprintln(s.out, "\nThe request was not sent:")
		renderDraft(s.out, s.f.Draft(), validationErr.Fields)
		return nil
	case errors.Is(err, form.ErrSubmitInFlight):
		fmt.Fprintln(s.out, "⏳ Still sending the previous submission")
		return nil
	case err != nil:
		return err
	}

	renderStatus(s.out, status)
	if status.Kind == form.KindSuccess {
		fmt.Fprintln(s.out, "Type 'reset' to start a new request or 'exit' to leave.")
	}
	return nil
}

func (s *formSession) show() {
	fmt.Fprintln(s.out)
	renderCalendar(s.out, s.month.Year(), s.month.Month(), s.f.IsSelected)
	fmt.Fprintln(s.out)
	renderDraft(s.out, s.f.Draft(), s.f.Errors())
	renderStatus(s.out, s.f.Status())
	fmt.Fprintln(s.out)
}

func (s *formSession) help() {
	fmt.Fprintln(s.out, "\nForm commands:")
	fmt.Fprintf(s.out, "  %-30s %s\n", "type AM|PM|full", "Set the request type")
	fmt.Fprintf(s.out, "  %-30s %s\n", "reason <text>", "Set the reason (quote or type freely)")
	fmt.Fprintf(s.out, "  %-30s %s\n", "toggle <YYYY-MM-DD|day>...", "Select or deselect dates")
	fmt.Fprintf(s.out, "  %-30s %s\n", "pattern <name|RRULE>", "Select the dates of a recurrence")
	fmt.Fprintf(s.out, "  %-30s %s\n", "attach <path>...", "Attach files")
	fmt.Fprintf(s.out, "  %-30s %s\n", "detach <n>", "Remove attachment n")
	fmt.Fprintf(s.out, "  %-30s %s\n", "month next|prev", "Change the displayed month")
	fmt.Fprintf(s.out, "  %-30s %s\n", "show", "Show the calendar and form")
	fmt.Fprintf(s.out, "  %-30s %s\n", "submit", "Validate and send the request")
	fmt.Fprintf(s.out, "  %-30s %s\n", "reset", "Clear the form")
	fmt.Fprintf(s.out, "  %-30s %s\n", "exit, quit", "Leave the form")
}
