package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPOptions configures the SMTP sender
type SMTPOptions struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	DialTimeout time.Duration
}

// SMTPSender sends emails through an SMTP server over SSL
type SMTPSender struct {
	client *mail.Client
	from   string
}

// NewSMTPSender creates a sender and checks that the server accepts a connection
func NewSMTPSender(ctx context.Context, opts SMTPOptions) (*SMTPSender, error) {
	client, err := mail.NewClient(opts.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(opts.Port),
		mail.WithUsername(opts.Username),
		mail.WithPassword(opts.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}
	if err := client.DialWithContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to mail server: %w", err)
	}
	if err := client.Close(); err != nil {
		return nil, fmt.Errorf("failed to close mail server connection: %w", err)
	}

	return &SMTPSender{client: client, from: opts.From}, nil
}

// SendEmail implements Sender
func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) error {
	msg, err := newMessage(s.from, to, subject, body)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func newMessage(from, to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
