package requestsclient

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/clients/gqlclient"
)

// DefaultEndpoint is where the requests service listens by default
const DefaultEndpoint = "http://localhost:5002/requests"

// IdempotencyHeader carries a per-submit key so the service can drop duplicates
const IdempotencyHeader = "Idempotency-Key"

// Client talks to the requests service
type Client struct {
	gql    *gqlclient.Client
	logger *zap.Logger
}

// NewClient creates a requests service client.
// httpClient should carry the session's bearer token when one exists.
func NewClient(endpoint string, httpClient *http.Client, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		gql:    gqlclient.NewClient(endpoint, httpClient, logger),
		logger: logger,
	}
}
