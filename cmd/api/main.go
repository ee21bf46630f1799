package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"labrat/api"
	"labrat/internal"
	"labrat/internal/config"
	"labrat/internal/errors"
	"labrat/internal/ops"
	"labrat/session"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	defer store.Close()

	logger := internal.DefaultLogger
	logger.Info("session backend: %s (TTL %s)", cfg.Session.Backend, cfg.Session.TTL)

	server := api.NewServer(cfg, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiSrv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("API listening on :%s", cfg.Server.Port)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	var opsSrv *http.Server
	if cfg.Ops.Enabled {
		opsSrv = &http.Server{
			Addr:    ":" + cfg.Ops.Port,
			Handler: ops.NewRouter(),
		}
		g.Go(func() error {
			logger.Info("ops sidecar listening on :%s", cfg.Ops.Port)
			if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		logger.Info("shutting down")
		if opsSrv != nil {
			opsSrv.Shutdown(shutdownCtx)
		}
		return apiSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// newStore builds the session store for the configured backend.
func newStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(cfg.Session.TTL), nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Session.RedisAddr,
			DB:   cfg.Session.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, errors.Wrap(err, "redis ping failed")
		}
		return session.NewRedisStore(client, cfg.Session.TTL), nil

	case config.BackendPostgres:
		db, err := sqlx.Connect("postgres", cfg.Session.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "connect to postgres")
		}
		return session.NewPostgresStore(db, cfg.Session.TTL)

	default:
		return nil, errors.ConfigInvalid("unknown session backend")
	}
}
