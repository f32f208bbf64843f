package gmailclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client wraps the Gmail API for sending confirmation emails
type Client struct {
	service  *gmail.Service
	sender   string
	interval time.Duration

	sendMutex    sync.Mutex
	lastSendTime time.Time
}

// NewClient creates a Gmail client. httpClient must already carry a token with the gmail.send scope.
// sender is used as the From header when set.
func NewClient(ctx context.Context, httpClient *http.Client, sender string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{
		service:  service,
		sender:   sender,
		interval: EmailInterval,
	}, nil
}
