package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type mockAcknowledger struct {
	mu      sync.Mutex
	acks    []uint64
	nacks   []uint64
	requeue []bool
}

func (m *mockAcknowledger) Ack(tag uint64, multiple bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks = append(m.acks, tag)
	return nil
}

func (m *mockAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nacks = append(m.nacks, tag)
	m.requeue = append(m.requeue, requeue)
	return nil
}

func (m *mockAcknowledger) Reject(tag uint64, requeue bool) error {
	return m.Nack(tag, false, requeue)
}

type sentEmail struct {
	to, subject, body string
}

type mockSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *mockSender) SendEmail(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to, subject, body})
	return nil
}

func delivery(ack amqp.Acknowledger, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: []byte(body)}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		senderErr error
		outcome   Outcome
		sent      int
		requeue   []bool
	}{
		{"sends and acks", `{"email":"ann@example.com","subject":"Hi","message":"Body"}`, nil, Acked, 1, nil},
		{"malformed json is dropped", `{"email":`, nil, Dropped, 0, []bool{false}},
		{"missing body is dropped", `{"email":"ann@example.com","subject":"Hi"}`, nil, Dropped, 0, []bool{false}},
		{"send failure is requeued", `{"email":"ann@example.com","message":"Body"}`, errors.New("smtp down"), Requeued, 0, []bool{true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &mockAcknowledger{}
			sender := &mockSender{err: tt.senderErr}
			w := NewWorker(sender, zap.NewNop(), WithRetryDelay(0))

			outcome := w.Handle(context.Background(), delivery(ack, 7, tt.body))

			assert.Equal(t, tt.outcome, outcome)
			assert.Len(t, sender.sent, tt.sent)
			assert.Equal(t, tt.requeue, ack.requeue)
			if tt.outcome == Acked {
				assert.Equal(t, []uint64{7}, ack.acks)
				assert.Equal(t, sentEmail{"ann@example.com", "Hi", "Body"}, sender.sent[0])
			} else {
				assert.Empty(t, ack.acks)
			}
		})
	}
}

func TestHandle_SendFailureWaitsBeforeRequeue(t *testing.T) {
	ack := &mockAcknowledger{}
	w := NewWorker(&mockSender{err: errors.New("smtp down")}, zap.NewNop(), WithRetryDelay(50*time.Millisecond))

	start := time.Now()
	outcome := w.Handle(context.Background(), delivery(ack, 3, `{"email":"ann@example.com","message":"Body"}`))

	assert.Equal(t, Requeued, outcome)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, []bool{true}, ack.requeue)
}

func TestHandle_CancelCutsRetryDelayShort(t *testing.T) {
	ack := &mockAcknowledger{}
	w := NewWorker(&mockSender{err: errors.New("smtp down")}, zap.NewNop(), WithRetryDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan Outcome, 1)
	go func() { done <- w.Handle(ctx, delivery(ack, 4, `{"email":"ann@example.com","message":"Body"}`)) }()

	select {
	case outcome := <-done:
		assert.Equal(t, Requeued, outcome)
		assert.Equal(t, []bool{true}, ack.requeue, "message is returned to the queue on shutdown")
	case <-time.After(time.Second):
		t.Fatal("Handle did not return after cancel")
	}
}

func TestRun_StopsWhenChannelCloses(t *testing.T) {
	ack := &mockAcknowledger{}
	sender := &mockSender{}
	w := NewWorker(sender, zap.NewNop())

	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- delivery(ack, 1, `{"email":"a@example.com","message":"one"}`)
	deliveries <- delivery(ack, 2, `{"email":"b@example.com","message":"two"}`)
	close(deliveries)

	err := w.Run(context.Background(), deliveries)
	assert.ErrorIs(t, err, ErrDeliveriesClosed)
	assert.Equal(t, []uint64{1, 2}, ack.acks)
	assert.Len(t, sender.sent, 2)
}

func TestRun_StopsOnCancel(t *testing.T) {
	w := NewWorker(&mockSender{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, make(chan amqp.Delivery)) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewMessage(t *testing.T) {
	msg, err := newMessage("portal@example.com", "ann@example.com", "WFH request approved", "Body")
	require.NoError(t, err)

	assert.Equal(t, []string{"<ann@example.com>"}, msg.GetToString())
	assert.Equal(t, []string{"WFH request approved"}, msg.GetGenHeader(mail.HeaderSubject))

	_, err = newMessage("portal@example.com", "not an address", "x", "y")
	assert.Error(t, err)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "acked", Acked.String())
	assert.Equal(t, "requeued", Requeued.String())
	assert.Equal(t, "Outcome(9)", Outcome(9).String())
}
