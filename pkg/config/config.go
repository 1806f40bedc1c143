package config

import (
	"github.com/sevakavakians/kato/internal/store/ann"
	"github.com/sevakavakians/kato/internal/store/postgres"
	"github.com/sevakavakians/kato/internal/store/redis"
)

// Config holds process-level connection settings for the three external
// collaborators (spec §6), resolved once at startup and shared by every
// session (spec §9 "a process-level service-locator constructed at
// startup with explicit lifetime").
type Config struct {
	Postgres postgres.Config
	Redis    redis.Config
	Qdrant   ann.QdrantConfig
}
