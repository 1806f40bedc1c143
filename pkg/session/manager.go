package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sevakavakians/kato/internal/katoerr"
	"github.com/sevakavakians/kato/internal/patternstore"
	"github.com/sevakavakians/kato/internal/processor"
	"github.com/sevakavakians/kato/internal/store/ann"
	"github.com/sevakavakians/kato/internal/store/redis"
	"github.com/sevakavakians/kato/pkg/config"
)

// Manager manages sessions (spec §4.15): create/get/extend/delete/
// gc_expired, each bound to exactly one kb_id for its lifetime. Grounded
// in the teacher's pkg/session.Manager (in-memory map + mutex), extended
// with KV-backed header/snapshot persistence per spec §6.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	kv      *redis.Store
	kb      *patternstore.KB
	annStor ann.Store
	logger  *slog.Logger
}

// NewManager constructs a session manager sharing one pattern knowledge
// base and KV collaborator across every session it creates.
func NewManager(kv *redis.Store, kb *patternstore.KB, annStore ann.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		kv:       kv,
		kb:       kb,
		annStor:  annStore,
		logger:   logger,
	}
}

func headerKey(id string) string   { return "session:" + id }
func stmKey(id string) string      { return "session:" + id + ":stm" }
func emotivesKey(id string) string { return "session:" + id + ":emotives" }
func metadataKey(id string) string { return "session:" + id + ":metadata" }

func ttlFor(h Header) time.Duration {
	if h.Config.SessionTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(h.Config.SessionTTLSeconds) * time.Second
}

// Create starts a new session bound to kbID with the given configuration
// (spec §4.15 create).
func (m *Manager) Create(ctx context.Context, kbID string, cfg config.SessionConfig) (*Session, error) {
	now := time.Now()
	header := Header{
		ID:        uuid.New().String(),
		KBID:      kbID,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ttl := ttlFor(header); ttl > 0 {
		exp := now.Add(ttl)
		header.ExpiresAt = &exp
	}

	sess := &Session{
		Header:    header,
		Processor: processor.New(kbID, m.kb, m.annStor, cfg, m.logger),
	}

	if err := m.persistHeader(ctx, header); err != nil {
		return nil, err
	}
	if err := m.persistSnapshot(ctx, header.ID, ttlFor(header), stateSnapshot{}); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[header.ID] = sess
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", header.ID, "kb_id", kbID)
	return sess, nil
}

// Get retrieves a session by ID (spec §4.15 get). Sessions only live in
// this process's in-memory index; a header present in KV but unknown
// here (e.g. after a restart) surfaces as SessionNotFound rather than
// attempting a lossy reconstruction of accumulator state.
func (m *Manager) Get(_ context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, katoerr.ErrSessionNotFound
	}
	if sess.ExpiresAt != nil && time.Now().After(*sess.ExpiresAt) {
		return nil, katoerr.ErrSessionExpired
	}
	return sess, nil
}

// Extend resets a session's TTL (spec §4.15 extend, §4.14
// "session_auto_extend").
func (m *Manager) Extend(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return katoerr.ErrSessionNotFound
	}
	now := time.Now()
	sess.UpdatedAt = now
	if ttl := ttlFor(sess.Header); ttl > 0 {
		exp := now.Add(ttl)
		sess.ExpiresAt = &exp
	}
	header := sess.Header
	m.mu.Unlock()

	if err := m.persistHeader(ctx, header); err != nil {
		return err
	}
	ttl := ttlFor(header)
	if ttl <= 0 {
		return nil
	}
	for _, key := range []string{stmKey(sessionID), emotivesKey(sessionID), metadataKey(sessionID)} {
		if err := m.kv.Expire(ctx, key, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a session (spec §4.15 delete). Idempotent: deleting an
// already-gone session succeeds (spec §7 "cleanup is idempotent").
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	return m.kv.DeleteKeys(ctx, headerKey(sessionID), stmKey(sessionID), emotivesKey(sessionID), metadataKey(sessionID))
}

// GCExpired deletes every session whose TTL has elapsed (spec §4.15
// gc_expired) and returns how many were removed.
func (m *Manager) GCExpired(ctx context.Context) (int, error) {
	now := time.Now()

	m.mu.RLock()
	var expired []string
	for id, sess := range m.sessions {
		if sess.ExpiresAt != nil && now.After(*sess.ExpiresAt) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		if err := m.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("gc expired session %s: %w", id, err)
		}
	}
	if len(expired) > 0 {
		m.logger.Info("sessions garbage collected", "count", len(expired))
	}
	return len(expired), nil
}

// Sync mirrors sess's current STM and config into KV (spec §4.15, §6),
// and auto-extends the TTL when configured. The emotive/metadata
// accumulators are not mirrored: their keys are rewritten with empty
// (null) values on every Sync. Callers invoke
// this after a mutating Processor operation (observe/learn/clear_stm/
// update_config) so durable state tracks the in-memory session.
func (m *Manager) Sync(ctx context.Context, sess *Session) error {
	status := sess.Processor.GetStatus()
	sess.Config = status.Config

	if status.Config.SessionAutoExtend {
		if err := m.Extend(ctx, sess.ID); err != nil {
			return err
		}
	} else if err := m.persistHeader(ctx, sess.Header); err != nil {
		return err
	}

	snap := stateSnapshot{STM: sess.Processor.GetSTM()}
	return m.persistSnapshot(ctx, sess.ID, ttlFor(sess.Header), snap)
}

func (m *Manager) persistHeader(ctx context.Context, h Header) error {
	return m.kv.SetJSON(ctx, headerKey(h.ID), h, ttlFor(h))
}

func (m *Manager) persistSnapshot(ctx context.Context, sessionID string, ttl time.Duration, snap stateSnapshot) error {
	if err := m.kv.SetJSON(ctx, stmKey(sessionID), snap.STM, ttl); err != nil {
		return err
	}
	if err := m.kv.SetJSON(ctx, emotivesKey(sessionID), snap.Emotives, ttl); err != nil {
		return err
	}
	return m.kv.SetJSON(ctx, metadataKey(sessionID), snap.Metadata, ttl)
}
