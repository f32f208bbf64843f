package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jakechorley/wfh-portal/internal/config"
	"github.com/jakechorley/wfh-portal/pkg/db"
	"github.com/jakechorley/wfh-portal/pkg/devserver"
	"github.com/jakechorley/wfh-portal/pkg/notify"
	"github.com/jakechorley/wfh-portal/pkg/postgres"
	"github.com/jakechorley/wfh-portal/pkg/sqlite"
	"github.com/jakechorley/wfh-portal/pkg/utils/logging"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewServerLogger(cfg.Environment, "devserver")
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Dev server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.ServerConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	options := []devserver.Option{}

	ttl := time.Duration(cfg.Redis.IdempotencyTTL) * time.Second
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("Using redis for idempotency keys", zap.String("addr", cfg.Redis.Addr))
		options = append(options, devserver.WithIdempotency(devserver.NewRedisIdempotency(rdb, ttl)))
	} else {
		options = append(options, devserver.WithIdempotency(devserver.NewMemoryIdempotency(ttl)))
	}

	if cfg.RabbitMQ.DSN != "" {
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

		if err := notify.DeclareExchange(ch); err != nil {
			return err
		}
		timeout := time.Duration(cfg.RabbitMQ.PublishTimeout) * time.Second
		options = append(options, devserver.WithPublisher(notify.NewPublisher(ch, timeout, logger)))
	} else {
		logger.Info("RABBITMQ_DSN not set, confirmation emails are disabled")
	}

	handler, err := devserver.NewHandler(devserver.Options{
		JWTSecret:      cfg.JWT.Secret,
		TokenTTL:       cfg.TokenTTL(),
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		RateLimit:      rate.Limit(cfg.RateLimit.PerSecond),
		RateBurst:      cfg.RateLimit.Burst,
	}, store, devserver.NewFileStorage(cfg.Server.StorageDir, logger), logger, options...)
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}
	handler.RegisterRoutes()

	if cfg.Store.SeedOnStart {
		seed, err := devserver.LoadSeed(cfg.Store.SeedFile)
		if err != nil {
			return err
		}
		if _, err := handler.Seed(ctx, seed); err != nil {
			return fmt.Errorf("failed to seed employees: %w", err)
		}
	}

	addrs := []string{cfg.Server.Addr}
	if cfg.Server.AuthAddr != "" && cfg.Server.AuthAddr != cfg.Server.Addr {
		addrs = append(addrs, cfg.Server.AuthAddr)
	}

	servers := make([]*http.Server, len(addrs))
	errCh := make(chan error, len(addrs))
	var wg sync.WaitGroup
	for i, addr := range addrs {
		srv := &http.Server{
			Addr:         addr,
			Handler:      handler.Mux,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			ErrorLog:     zap.NewStdLog(logger),
		}
		servers[i] = srv

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Starting server", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server on %s failed: %w", srv.Addr, err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down servers")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down server", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}
	wg.Wait()

	logger.Info("Servers stopped")
	return runErr
}

func openStore(ctx context.Context, cfg *config.ServerConfig, logger *zap.Logger) (db.Database, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		store, err := postgres.NewDB(ctx, cfg.Store.DSN, logger)
		if err != nil {
			return nil, err
		}
		if err := store.RunMigrations(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		store, err := sqlite.Open(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		if err := store.RunMigrations(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	}
}
