package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/internal/config"
	"github.com/jakechorley/wfh-portal/pkg/clients/gmailclient"
	"github.com/jakechorley/wfh-portal/pkg/mailer"
	"github.com/jakechorley/wfh-portal/pkg/notify"
	"github.com/jakechorley/wfh-portal/pkg/utils"
	"github.com/jakechorley/wfh-portal/pkg/utils/logging"
)

func main() {
	cfg, err := config.LoadMailerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewServerLogger(cfg.Environment, "mailer")
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Mailer stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.MailerConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender, err := newSender(ctx, cfg, logger)
	if err != nil {
		return err
	}

	conn, err := notify.Dial(ctx, cfg.RabbitMQ.DSN, notify.DialOptions{}, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	deliveries, err := mailer.Consume(ch)
	if err != nil {
		return err
	}

	logger.Info("Waiting for confirmation emails",
		zap.String("queue", mailer.QueueName),
		zap.String("sender", cfg.Sender))

	worker := mailer.NewWorker(sender, logger, mailer.WithRetryDelay(time.Duration(cfg.RetryDelay)*time.Second))
	err = worker.Run(ctx, deliveries)
	if errors.Is(err, mailer.ErrDeliveriesClosed) && ctx.Err() != nil {
		err = nil
	}

	logger.Info("Mailer stopped")
	return err
}

func newSender(ctx context.Context, cfg *config.MailerConfig, logger *zap.Logger) (mailer.Sender, error) {
	if cfg.Sender == "gmail" {
		oauthCfg, err := config.LoadOAuthClientWithEnv(cfg.Environment)
		if err != nil {
			return nil, err
		}
		oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
		if err != nil {
			return nil, err
		}
		tokens, err := utils.NewTokenStore("", logger)
		if err != nil {
			return nil, err
		}
		token, err := tokens.Token(ctx, oauthConfig, cfg.Environment)
		if err != nil {
			return nil, fmt.Errorf("failed to get gmail token: %w", err)
		}
		return gmailclient.NewClient(ctx, oauthConfig.Client(ctx, token), cfg.SMTP.From)
	}

	return mailer.NewSMTPSender(ctx, mailer.SMTPOptions{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.Username,
		Password:    cfg.SMTP.Password,
		From:        cfg.SMTP.From,
		DialTimeout: time.Duration(cfg.SMTP.DialTimeout) * time.Second,
	})
}
