package notify

import (
	"fmt"
	"strings"
)

// Recipient is who a confirmation email goes to
type Recipient struct {
	Name  string
	Email string
}

// RequestSubmitted builds the email sent after a WFH request is recorded
func RequestSubmitted(to Recipient, wfhType string, dates []string, reason string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", to.Name)
	fmt.Fprintf(&b, "Your work-from-home request (%s) has been submitted and is pending approval.\n\n", wfhType)
	b.WriteString("Dates:\n")
	for _, d := range dates {
		fmt.Fprintf(&b, "  - %s\n", d)
	}
	if reason != "" {
		fmt.Fprintf(&b, "\nReason: %s\n", reason)
	}

	subject := "WFH request submitted"
	if len(dates) == 1 {
		subject = fmt.Sprintf("WFH request submitted for %s", dates[0])
	}

	return Message{Email: to.Email, Subject: subject, Message: b.String()}
}

// RequestReviewed builds the email sent when a manager approves or rejects a request
func RequestReviewed(to Recipient, date, wfhType, status, remarks string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", to.Name)
	fmt.Fprintf(&b, "Your work-from-home request for %s (%s) has been %s.\n", date, wfhType, status)
	if remarks != "" {
		fmt.Fprintf(&b, "\nRemarks: %s\n", remarks)
	}

	return Message{
		Email:   to.Email,
		Subject: fmt.Sprintf("WFH request %s", status),
		Message: b.String(),
	}
}
