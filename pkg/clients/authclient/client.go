package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// DefaultEndpoint is where the auth service listens by default
const DefaultEndpoint = "http://localhost:5001/authenticate"

// ErrInvalidCredentials is returned when the service rejects the email/password pair
var ErrInvalidCredentials = errors.New("invalid credentials")

// Client talks to the authentication service
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an authentication client
func NewClient(endpoint string, httpClient *http.Client, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}
}

type authenticateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		Token     string     `json:"token"`
		ExpiresAt time.Time  `json:"expiresAt"`
		User      model.User `json:"user"`
	} `json:"data"`
}

// Authenticate exchanges an email and password for a session
func (c *Client) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Authenticating", zap.String("email", email), zap.String("endpoint", c.endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call authenticate endpoint: %w", err)
	}
	defer resp.Body.Close()

	var out authenticateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode authenticate response (status %d): %w", resp.StatusCode, err)
	}

	if !out.Success || out.Data == nil || out.Data.Token == "" {
		msg := out.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, msg)
	}

	return &Session{
		Token: &oauth2.Token{
			AccessToken: out.Data.Token,
			TokenType:   "Bearer",
			Expiry:      out.Data.ExpiresAt,
		},
		User: out.Data.User,
	}, nil
}

// HTTPClient returns a client that authorizes requests with the session token.
// A nil session yields a plain client.
func HTTPClient(ctx context.Context, session *Session, timeout time.Duration) *http.Client {
	if session == nil || session.Token == nil {
		return &http.Client{Timeout: timeout}
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(session.Token))
	client.Timeout = timeout
	return client
}
