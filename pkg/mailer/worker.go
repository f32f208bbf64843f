// Package mailer consumes confirmation emails from the message broker and sends them.
package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/notify"
)

// QueueName is the durable queue bound to the confirmation routing key
const QueueName = "confirmation_email_queue"

// DefaultRetryDelay is how long a failed send waits before the message is requeued
const DefaultRetryDelay = 10 * time.Second

// ErrDeliveriesClosed is returned by Run when the broker closes the delivery channel
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Sender delivers one plain-text email
type Sender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Outcome is what happened to a delivery
type Outcome int

const (
	Acked Outcome = iota
	Dropped
	Requeued
)

func (o Outcome) String() string {
	switch o {
	case Acked:
		return "acked"
	case Dropped:
		return "dropped"
	case Requeued:
		return "requeued"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Worker turns deliveries into sent emails
type Worker struct {
	sender     Sender
	logger     *zap.Logger
	retryDelay time.Duration
}

// Option configures a Worker
type Option func(*Worker)

// WithRetryDelay sets the pause before a failed message is requeued
func WithRetryDelay(d time.Duration) Option {
	return func(w *Worker) {
		w.retryDelay = d
	}
}

// NewWorker creates a worker that sends through sender
func NewWorker(sender Sender, logger *zap.Logger, opts ...Option) *Worker {
	w := &Worker{sender: sender, logger: logger, retryDelay: DefaultRetryDelay}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handle sends one delivery. Malformed messages are dropped; send failures are
// requeued after the retry delay so a down sender is not retried in a tight loop.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) Outcome {
	w.logger.Debug("Received message", zap.Uint64("delivery_tag", d.DeliveryTag), zap.ByteString("body", d.Body))

	var msg notify.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		w.logger.Error("Failed to decode email message", zap.Error(err))
		w.nack(d, false)
		return Dropped
	}
	if msg.Email == "" || msg.Message == "" {
		w.logger.Error("Email message is missing a recipient or body", zap.String("email", msg.Email))
		w.nack(d, false)
		return Dropped
	}

	if err := w.sender.SendEmail(ctx, msg.Email, msg.Subject, msg.Message); err != nil {
		w.logger.Error("Failed to send email",
			zap.String("email", msg.Email),
			zap.Bool("redelivered", d.Redelivered),
			zap.Duration("retry_in", w.retryDelay),
			zap.Error(err))
		w.backoff(ctx)
		w.nack(d, true)
		return Requeued
	}

	if err := d.Ack(false); err != nil {
		w.logger.Warn("Failed to ack message", zap.Error(err))
	}
	w.logger.Info("Email sent", zap.String("email", msg.Email), zap.String("subject", msg.Subject))
	return Acked
}

// backoff waits out the retry delay, returning early when ctx is cancelled
func (w *Worker) backoff(ctx context.Context) {
	if w.retryDelay <= 0 {
		return
	}
	timer := time.NewTimer(w.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (w *Worker) nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		w.logger.Warn("Failed to nack message", zap.Bool("requeue", requeue), zap.Error(err))
	}
}

// Run handles deliveries until ctx is cancelled or the channel closes
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			w.Handle(ctx, d)
		}
	}
}

// Consume declares the exchange and queue, binds them on the confirmation key
// and starts a manual-ack consumer
func Consume(ch *amqp.Channel) (<-chan amqp.Delivery, error) {
	if err := notify.DeclareExchange(ch); err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(QueueName, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, notify.ConfirmationKey, notify.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}
	return deliveries, nil
}
