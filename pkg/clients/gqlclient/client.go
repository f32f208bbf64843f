package gqlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 10 << 20

// Error carries the messages of a GraphQL "errors" array
type Error struct {
	Operation string
	Messages  []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Operation, strings.Join(e.Messages, "; "))
}

// ErrMissingData is returned when a response has no data for the requested operation
var ErrMissingData = errors.New("response is missing operation data")

// Client posts GraphQL-style JSON queries to a single endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for endpoint. A nil httpClient uses http.DefaultClient.
func NewClient(endpoint string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Endpoint returns the URL the client posts to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// HTTPClient returns the underlying HTTP client
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Query posts query with variables and decodes data.<operation> into out
func (c *Client) Query(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.Do(req, operation, out)
}

// Do sends a prepared request and decodes data.<operation> into out
func (c *Client) Do(req *http.Request, operation string, out any) error {
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Sending GraphQL request",
		zap.String("operation", operation),
		zap.String("endpoint", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if err := DecodeResponse(io.LimitReader(resp.Body, maxResponseBytes), operation, out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("%s returned status %d: %w", operation, resp.StatusCode, err)
		}
		return err
	}

	c.logger.Debug("GraphQL request completed",
		zap.String("operation", operation),
		zap.Int("status", resp.StatusCode))

	return nil
}

// DecodeResponse reads a {data: {<operation>: ...}, errors: [...]} body and decodes the operation payload into out
func DecodeResponse(r io.Reader, operation string, out any) error {
	var envelope struct {
		Data   map[string]json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}

	payload, ok := envelope.Data[operation]
	if !ok || string(payload) == "null" {
		if len(envelope.Errors) > 0 {
			gqlErr := &Error{Operation: operation}
			for _, e := range envelope.Errors {
				gqlErr.Messages = append(gqlErr.Messages, e.Message)
			}
			return gqlErr
		}
		return fmt.Errorf("%s: %w", operation, ErrMissingData)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", operation, err)
	}
	return nil
}
