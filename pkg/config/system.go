package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sevakavakians/kato/internal/store/ann"
	"github.com/sevakavakians/kato/internal/store/postgres"
	"github.com/sevakavakians/kato/internal/store/redis"
)

// FromEnv reads process-level connection settings from the environment,
// applying local-dev defaults for anything unset, mirroring the
// env-driven bootstrap cmd/tarsy performs via godotenv before calling its
// own Initialize.
func FromEnv() (Config, error) {
	pgPort, err := envInt("KATO_POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	redisDB, err := envInt("KATO_REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	maxOpenConns, err := envInt("KATO_POSTGRES_MAX_CONNS", 10)
	if err != nil {
		return Config{}, err
	}
	connLifetime, err := envDuration("KATO_POSTGRES_CONN_LIFETIME", time.Hour)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Postgres: postgres.Config{
			Host:            envStr("KATO_POSTGRES_HOST", "localhost"),
			Port:            pgPort,
			User:            envStr("KATO_POSTGRES_USER", "kato"),
			Password:        envStr("KATO_POSTGRES_PASSWORD", ""),
			Database:        envStr("KATO_POSTGRES_DB", "kato"),
			SSLMode:         envStr("KATO_POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    maxOpenConns,
			MaxConnLifetime: connLifetime,
		},
		Redis: redis.Config{
			Addr:     envStr("KATO_REDIS_ADDR", "localhost:6379"),
			Password: envStr("KATO_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Qdrant: ann.QdrantConfig{
			Addr:   envStr("KATO_QDRANT_ADDR", "localhost:6334"),
			APIKey: envStr("KATO_QDRANT_API_KEY", ""),
		},
	}, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
