package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"shop-api/internal/config"
	"shop-api/internal/database"
	"shop-api/internal/logger"
	"shop-api/internal/notify"
	"shop-api/internal/repository"
	"shop-api/internal/server"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// In-flight requests get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

// openStore connects the configured storage backend
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger, backend *server.Backend) error {
	switch cfg.Store {
	case config.StoreMongo:
		mongoClient, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		backend.Closers = append(backend.Closers, func() error {
			return mongoClient.Disconnect(context.Background())
		})

		db := mongoClient.Database(cfg.Mongo.Database)
		if err := database.EnsureMongoIndexes(ctx, db, log); err != nil {
			return err
		}

		backend.Store = repository.NewMongoStore(db)
		backend.StoreHealth = func(ctx context.Context) map[string]string {
			ctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			if err := mongoClient.Ping(ctx, nil); err != nil {
				return map[string]string{"status": "down", "error": fmt.Sprintf("mongo down: %v", err)}
			}
			return map[string]string{"status": "up", "driver": config.StoreMongo}
		}
		return nil

	case config.StorePostgres:
		dbService, err := database.New(cfg.Database)
		if err != nil {
			return err
		}
		backend.Closers = append(backend.Closers, dbService.Close)

		if err := database.RunMigrations(ctx, dbService.DB(), "migrations", log); err != nil {
			return err
		}
		log.Info("Database migrations completed successfully")

		backend.Store = repository.NewPostgresStore(dbService.DB())
		backend.StoreHealth = dbService.Health
		return nil

	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store)
	}
}

// openRedis returns nil when no Redis host is configured
func openRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if !cfg.Enabled() {
		log.Info("Redis disabled, product cache and rate limiting are off")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// both consumers fail open, so an unreachable server is not fatal
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable at startup", zap.Error(err))
	}
	return rdb
}

// openNotifier prefers durable delivery through Temporal, then direct SMTP, then the log
func openNotifier(cfg *config.Config, log *zap.Logger, backend *server.Backend) (notify.Notifier, error) {
	var sender notify.Notifier = notify.NewLogMailer(log)
	if cfg.SMTP.Host != "" {
		sender = notify.NewSMTPMailer(cfg.SMTP)
	}

	if cfg.Temporal.HostPort == "" {
		return sender, nil
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal client: %w", err)
	}

	w := notify.NewWorker(temporalClient, cfg.Temporal.TaskQueue, sender)
	if err := w.Start(); err != nil {
		temporalClient.Close()
		return nil, fmt.Errorf("failed to start notification worker: %w", err)
	}

	backend.Closers = append(backend.Closers, func() error {
		w.Stop()
		temporalClient.Close()
		return nil
	})

	log.Info("Notification worker started", zap.String("task_queue", cfg.Temporal.TaskQueue))
	return notify.NewTemporalDispatcher(temporalClient, cfg.Temporal.TaskQueue), nil
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting shop API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store),
	)

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx := context.Background()
	var backend server.Backend

	if err := openStore(ctx, cfg, log, &backend); err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	log.Info("Store health check", zap.Any("health", backend.StoreHealth(ctx)))

	backend.Redis = openRedis(ctx, cfg.Redis, log)
	if backend.Redis != nil {
		backend.Closers = append(backend.Closers, backend.Redis.Close)
	}

	backend.Notifier, err = openNotifier(cfg, log, &backend)
	if err != nil {
		log.Fatal("Failed to set up notifications", zap.Error(err))
	}

	srv, err := server.NewServer(cfg, log, backend)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
