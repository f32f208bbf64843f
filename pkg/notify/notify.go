// Package notify publishes confirmation emails to the message broker.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// Exchange is the topic exchange confirmation emails are published to
	Exchange = "email_exchange"
	// ExchangeKind is the AMQP exchange type
	ExchangeKind = "topic"
	// ConfirmationKey is the routing key of confirmation emails
	ConfirmationKey = "confirmation.email"
)

// Dial retry defaults
const (
	DefaultDialAttempts = 12
	DefaultDialInterval = 5 * time.Second
)

// ErrEmptyMessage is returned when a message has no recipient or no body
var ErrEmptyMessage = errors.New("email and message are required")

// Message is the body of a confirmation email
type Message struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// DialOptions controls connection retries
type DialOptions struct {
	Attempts int
	Interval time.Duration
}

func (o DialOptions) withDefaults() DialOptions {
	if o.Attempts <= 0 {
		o.Attempts = DefaultDialAttempts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultDialInterval
	}
	return o
}

// Dial connects to the broker, retrying while the broker is unreachable
func Dial(ctx context.Context, dsn string, opts DialOptions, logger *zap.Logger) (*amqp.Connection, error) {
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		conn, err := amqp.Dial(dsn)
		if err == nil {
			logger.Info("Connected to message broker", zap.Int("attempt", attempt))
			return conn, nil
		}
		lastErr = err

		logger.Warn("Failed to connect to message broker",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", opts.Attempts),
			zap.Duration("retry_in", opts.Interval),
			zap.Error(err))

		if attempt == opts.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.Interval):
		}
	}

	return nil, fmt.Errorf("failed to connect to message broker after %d attempts: %w", opts.Attempts, lastErr)
}

// DeclareExchange declares the durable confirmation exchange on ch
func DeclareExchange(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, ExchangeKind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}
	return nil
}

// Channel is the part of *amqp.Channel the publisher uses
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends confirmation emails to the exchange
type Publisher struct {
	mu      sync.Mutex
	ch      Channel
	timeout time.Duration
	logger  *zap.Logger
}

// NewPublisher creates a publisher on ch. A zero timeout means the caller's context decides.
func NewPublisher(ch Channel, timeout time.Duration, logger *zap.Logger) *Publisher {
	return &Publisher{ch: ch, timeout: timeout, logger: logger}
}

// Publish sends msg as a persistent JSON message with the confirmation routing key
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	if msg.Email == "" || msg.Message == "" {
		return ErrEmptyMessage
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal email message: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, Exchange, ConfirmationKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}); err != nil {
		return fmt.Errorf("failed to publish email message: %w", err)
	}

	p.logger.Debug("Published confirmation email",
		zap.String("email", msg.Email),
		zap.String("subject", msg.Subject))

	return nil
}
