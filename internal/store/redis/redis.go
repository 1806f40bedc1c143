// Package redis implements the KV collaborator (spec §6, Collaborator
// B): per-pattern frequency/emotives/metadata and per-session state,
// namespaced by kb_id / session_id prefixes. Grounded in the retrieval
// pack's go-redis/v9 usage (other_examples' memory-consolidation file,
// manifest go.mods for testforge-hq-testforge / jordigilh-kubernaut /
// stevef1uk-artificial_mind); miniredis backs the unit test suite the
// same way those repos' tests do.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sevakavakians/kato/internal/katoerr"
	"github.com/sevakavakians/kato/internal/model"
)

const casRetries = 3

// Store is the KV collaborator.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// Config holds Redis connection parameters.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewStore dials a Redis server.
func NewStore(cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Store{client: client, logger: logger}
}

// NewFromClient wraps an already-configured client, used by tests
// (typically backed by miniredis) and by callers that want custom
// connection pooling.
func NewFromClient(client *redis.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", katoerr.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", katoerr.ErrStorageUnavailable, err)
}

// --- pattern metadata (spec §4.7, §6 pattern:<kb_id>:<name>:*) ---

func freqKey(kbID, name string) string     { return fmt.Sprintf("pattern:%s:%s:freq", kbID, name) }
func emotivesKey(kbID, name string) string { return fmt.Sprintf("pattern:%s:%s:emotives", kbID, name) }
func metadataKey(kbID, name string) string { return fmt.Sprintf("pattern:%s:%s:metadata", kbID, name) }

// IncrFreq atomically increments and returns the pattern's freq counter
// (spec §4.7 step 2). A fresh key starts at 1 on first increment.
func (s *Store) IncrFreq(ctx context.Context, kbID, name string) (int64, error) {
	n, err := s.client.Incr(ctx, freqKey(kbID, name)).Result()
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

// GetFreq returns the stored freq, or 0 if absent (missing metadata is
// tolerated by readers per spec §4.7, treated as freq=1 by callers).
func (s *Store) GetFreq(ctx context.Context, kbID, name string) (int64, error) {
	n, err := s.client.Get(ctx, freqKey(kbID, name)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

// AppendEmotive appends snapshot to the pattern's rolling emotives
// window, trimming to the newest `persistence` entries (spec §4.7 step
// 2, §3 emotives_window). Uses optimistic (WATCH/MULTI) concurrency
// control per spec §5's per-key CAS-loop requirement; exhausting
// casRetries surfaces ErrConflict, the one case spec §7 reserves it for.
func (s *Store) AppendEmotive(ctx context.Context, kbID, name string, snapshot model.EmotiveSnapshot, persistence int) error {
	if len(snapshot) == 0 {
		return nil
	}
	key := emotivesKey(kbID, name)

	for attempt := 0; attempt < casRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			var list []model.EmotiveSnapshot
			raw, err := tx.Get(ctx, key).Bytes()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil {
				if err := json.Unmarshal(raw, &list); err != nil {
					return err
				}
			}

			list = append(list, snapshot)
			if persistence > 0 && len(list) > persistence {
				list = list[len(list)-persistence:]
			}

			data, err := json.Marshal(list)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			return err
		}, key)

		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return wrapErr(err)
	}
	return katoerr.ErrConflict
}

// GetEmotives returns the pattern's current emotives window, or nil if
// absent.
func (s *Store) GetEmotives(ctx context.Context, kbID, name string) ([]model.EmotiveSnapshot, error) {
	raw, err := s.client.Get(ctx, emotivesKey(kbID, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	var list []model.EmotiveSnapshot
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("unmarshal emotives: %w", err)
	}
	return list, nil
}

// MergeMetadata set-unions contribution into the pattern's metadata map
// (spec §4.7 step 2, §3 metadata). Same CAS-loop discipline as
// AppendEmotive.
func (s *Store) MergeMetadata(ctx context.Context, kbID, name string, contribution map[string][]string) error {
	if len(contribution) == 0 {
		return nil
	}
	key := metadataKey(kbID, name)

	for attempt := 0; attempt < casRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			current := make(model.MetadataSet)
			raw, err := tx.Get(ctx, key).Bytes()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil {
				var stored map[string][]string
				if err := json.Unmarshal(raw, &stored); err != nil {
					return err
				}
				current.Merge(stored)
			}
			current.Merge(contribution)

			data, err := json.Marshal(current.ToStringLists())
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			return err
		}, key)

		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return wrapErr(err)
	}
	return katoerr.ErrConflict
}

// GetMetadata returns the pattern's current metadata map, or nil if
// absent.
func (s *Store) GetMetadata(ctx context.Context, kbID, name string) (map[string][]string, error) {
	raw, err := s.client.Get(ctx, metadataKey(kbID, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	var out map[string][]string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return out, nil
}

// DeletePatternKeys removes every KV key with prefix "pattern:<kb_id>:"
// (spec §4.8 bulk_delete, §6 "Persisted state layout"). Uses SCAN rather
// than KEYS to avoid blocking the server on large keyspaces.
func (s *Store) DeletePatternKeys(ctx context.Context, kbID string) error {
	return s.deleteByPrefix(ctx, fmt.Sprintf("pattern:%s:", kbID))
}

func (s *Store) deleteByPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", 256).Result()
		if err != nil {
			return wrapErr(err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return wrapErr(err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// --- generic session-state JSON blobs (spec §4.15, §6) ---

// SetJSON serializes v and stores it under key, with TTL (0 = no
// expiry).
func (s *Store) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// GetJSON loads key into v, returning found=false if the key is absent.
func (s *Store) GetJSON(ctx context.Context, key string, v interface{}) (found bool, err error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, wrapErr(err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Expire resets key's TTL (spec §4.14 "session_auto_extend").
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// DeleteKeys removes the given keys unconditionally; missing keys are
// not an error (spec §7 "cleanup is idempotent").
func (s *Store) DeleteKeys(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}
