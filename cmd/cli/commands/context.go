package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/internal/config"
	"github.com/jakechorley/wfh-portal/pkg/clients/authclient"
	"github.com/jakechorley/wfh-portal/pkg/clients/employeeclient"
	"github.com/jakechorley/wfh-portal/pkg/clients/requestsclient"
	"github.com/jakechorley/wfh-portal/pkg/clients/scheduleclient"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Sessions *authclient.SessionStore
	Session  *authclient.Session
	Logger   *zap.Logger
	Ctx      context.Context

	// Out receives command output. Defaults to stdout.
	Out io.Writer

	input *bufio.Scanner
}

func (a *AppContext) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

// Input is the shared stdin scanner. Prompts and the interactive session read from it.
func (a *AppContext) Input() *bufio.Scanner {
	if a.input == nil {
		a.input = bufio.NewScanner(os.Stdin)
	}
	return a.input
}

// SetInput replaces the input source
func (a *AppContext) SetInput(r io.Reader) {
	a.input = bufio.NewScanner(r)
}

// Prompt prints label and reads one trimmed line
func (a *AppContext) Prompt(label string) (string, error) {
	fmt.Fprint(a.out(), label)
	in := a.Input()
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(in.Text()), nil
}

// User returns the logged in user, or an error asking the user to log in
func (a *AppContext) User() (*model.User, error) {
	if !a.Session.Valid() {
		return nil, fmt.Errorf("%w: run 'login <email>' first", authclient.ErrNoSession)
	}
	return &a.Session.User, nil
}

// LoadSession restores the stored session for the environment, if any
func (a *AppContext) LoadSession() error {
	session, err := a.Sessions.Load(a.Env)
	if errors.Is(err, authclient.ErrNoSession) {
		a.Session = nil
		return nil
	}
	if err != nil {
		return err
	}
	a.Session = session
	return nil
}

func (a *AppContext) httpClient() *http.Client {
	return authclient.HTTPClient(a.Ctx, a.Session, a.Cfg.RequestTimeout())
}

// AuthClient is built per call since login happens mid-session
func (a *AppContext) AuthClient() *authclient.Client {
	return authclient.NewClient(a.Cfg.Endpoints.Auth, a.httpClient(), a.Logger)
}

// RequestsClient talks to the requests service with the current session token
func (a *AppContext) RequestsClient() *requestsclient.Client {
	return requestsclient.NewClient(a.Cfg.Endpoints.Requests, a.httpClient(), a.Logger)
}

// ScheduleClient talks to the schedule service with the current session token
func (a *AppContext) ScheduleClient() *scheduleclient.Client {
	return scheduleclient.NewClient(a.Cfg.Endpoints.Schedule, a.httpClient(), a.Logger)
}

// EmployeeClient talks to the employee service with the current session token
func (a *AppContext) EmployeeClient() *employeeclient.Client {
	return employeeclient.NewClient(a.Cfg.Endpoints.Employees, a.httpClient(), a.Logger)
}
