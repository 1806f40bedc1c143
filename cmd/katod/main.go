// katod wires the columnar, KV, and ANN collaborators and exposes a
// ready pkg/kato.Engine. It carries no HTTP/WS transport: spec.md's
// Non-goals exclude API surfaces, so this binary's job ends at standing
// up the engine and running its background GC loop.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sevakavakians/kato/internal/store/ann"
	"github.com/sevakavakians/kato/internal/store/postgres"
	"github.com/sevakavakians/kato/internal/store/redis"
	"github.com/sevakavakians/kato/pkg/config"
	"github.com/sevakavakians/kato/pkg/kato"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to directory holding the .env file")
	gcInterval := flag.Duration("gc-interval", time.Minute, "session expiry sweep interval")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("failed to load connection configuration", "error", err)
		os.Exit(1)
	}

	columnar, err := postgres.NewStore(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to columnar store", "error", err)
		os.Exit(1)
	}
	defer columnar.Close()
	logger.Info("connected to columnar store", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)

	kv := redis.NewStore(cfg.Redis, logger)
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn("error closing kv store", "error", err)
		}
	}()
	logger.Info("connected to kv store", "addr", cfg.Redis.Addr)

	annStore, err := ann.NewQdrantStore(cfg.Qdrant, logger)
	if err != nil {
		logger.Warn("ann collaborator unavailable, vector observations will fail", "error", err)
		annStore = nil
	} else {
		logger.Info("connected to ann collaborator", "addr", cfg.Qdrant.Addr)
	}

	engine := kato.New(kato.Deps{
		Columnar: columnar,
		KV:       kv,
		ANN:      annStore,
		Logger:   logger,
	})
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("error closing engine", "error", err)
		}
	}()

	logger.Info("kato engine ready", "gc_interval", gcInterval.String())
	runGCLoop(ctx, engine, *gcInterval, logger)
	logger.Info("shutting down")
}

func runGCLoop(ctx context.Context, engine *kato.Engine, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := engine.GCExpiredSessions(ctx)
			if err != nil {
				logger.Warn("session gc failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired sessions reaped", "count", n)
			}
		}
	}
}
