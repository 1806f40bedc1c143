// Package kato is the public facade (spec §6 "boundary operations"): the
// single entry point embedding applications use instead of reaching into
// internal/ directly. It wires the three collaborator stores, the
// pattern knowledge base, and the session manager, then exposes exactly
// the operation set spec §4.14/§4.15 names. Grounded in the teacher's
// top-level pkg/services facade pattern (thin wrappers delegating to one
// shared dependency set).
package kato

import (
	"context"
	"log/slog"

	"github.com/sevakavakians/kato/internal/model"
	"github.com/sevakavakians/kato/internal/patternstore"
	"github.com/sevakavakians/kato/internal/processor"
	"github.com/sevakavakians/kato/internal/store/ann"
	"github.com/sevakavakians/kato/internal/store/postgres"
	"github.com/sevakavakians/kato/internal/store/redis"
	"github.com/sevakavakians/kato/pkg/config"
	"github.com/sevakavakians/kato/pkg/session"
)

// Engine is the process-level service locator (spec §9 "a process-level
// service-locator constructed at startup with explicit lifetime"): one
// per process, shared by every session it creates.
type Engine struct {
	columnar *postgres.Store
	kv       *redis.Store
	ann      ann.Store
	kb       *patternstore.KB
	sessions *session.Manager
	logger   *slog.Logger
}

// Deps bundles the already-connected collaborators an Engine is built
// from. annStore may be nil (spec Q1: the ANN collaborator is only
// required for vector-bearing observations).
type Deps struct {
	Columnar *postgres.Store
	KV       *redis.Store
	ANN      ann.Store
	Logger   *slog.Logger
}

// New builds an Engine from already-connected collaborators.
func New(deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	kb := patternstore.NewKB(deps.Columnar, deps.KV, deps.ANN, logger)
	return &Engine{
		columnar: deps.Columnar,
		kv:       deps.KV,
		ann:      deps.ANN,
		kb:       kb,
		sessions: session.NewManager(deps.KV, kb, deps.ANN, logger),
		logger:   logger,
	}
}

// CreateSession starts a new session bound to kbID (spec §4.15 create).
// cfg is typically config.DefaultSessionConfig(), patched by the caller.
func (e *Engine) CreateSession(ctx context.Context, kbID string, cfg config.SessionConfig) (*session.Session, error) {
	return e.sessions.Create(ctx, kbID, cfg)
}

// Session retrieves a previously created session (spec §4.15 get).
func (e *Engine) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	return e.sessions.Get(ctx, sessionID)
}

// ExtendSession resets a session's TTL (spec §4.15 extend).
func (e *Engine) ExtendSession(ctx context.Context, sessionID string) error {
	return e.sessions.Extend(ctx, sessionID)
}

// DeleteSession removes a session (spec §4.15 delete).
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// GCExpiredSessions deletes every session whose TTL has elapsed (spec
// §4.15 gc_expired). Callers typically invoke this on a periodic ticker.
func (e *Engine) GCExpiredSessions(ctx context.Context) (int, error) {
	return e.sessions.GCExpired(ctx)
}

// Observe normalizes and appends one event to sess's STM, then syncs the
// session's durable mirror (spec §4.14 observe).
func (e *Engine) Observe(ctx context.Context, sess *session.Session, strings []string, vectors []model.Vector, emotives map[string]float64, metadata map[string][]string, uniqueID string) (stmLen int, learnedName string, err error) {
	stmLen, learnedName, err = sess.Processor.Observe(ctx, strings, vectors, emotives, metadata, uniqueID)
	if err != nil {
		return stmLen, learnedName, err
	}
	return stmLen, learnedName, e.sessions.Sync(ctx, sess)
}

// Learn forces a learn from sess's current STM (spec §4.14 learn).
func (e *Engine) Learn(ctx context.Context, sess *session.Session) (string, error) {
	name, err := sess.Processor.Learn(ctx)
	if err != nil {
		return "", err
	}
	return name, e.sessions.Sync(ctx, sess)
}

// GetPredictions runs the filter and metrics/ranker pipeline against
// sess's current STM (spec §4.14 get_predictions).
func (e *Engine) GetPredictions(ctx context.Context, sess *session.Session) ([]model.Prediction, []model.FutureAggregate, error) {
	return sess.Processor.GetPredictions(ctx)
}

// ClearSTM empties sess's STM and accumulators (spec §4.14 clear_stm).
func (e *Engine) ClearSTM(ctx context.Context, sess *session.Session) error {
	sess.Processor.ClearSTM()
	return e.sessions.Sync(ctx, sess)
}

// ClearAll clears sess's STM and bulk-deletes its bound kb_id (spec
// §4.14 clear_all).
func (e *Engine) ClearAll(ctx context.Context, sess *session.Session) error {
	if err := sess.Processor.ClearAll(ctx); err != nil {
		return err
	}
	return e.sessions.Sync(ctx, sess)
}

// GetPattern looks up a pattern by name within sess's bound kb_id (spec
// §4.14 get_pattern).
func (e *Engine) GetPattern(ctx context.Context, sess *session.Session, name string) (*model.Pattern, error) {
	return sess.Processor.GetPattern(ctx, name)
}

// UpdateConfig atomically patches sess's configuration (spec §4.14
// update_config). explicit names exactly which patch fields the caller
// set.
func (e *Engine) UpdateConfig(ctx context.Context, sess *session.Session, patch config.SessionConfig, explicit map[string]bool) error {
	if err := sess.Processor.UpdateConfig(patch, explicit); err != nil {
		return err
	}
	return e.sessions.Sync(ctx, sess)
}

// GetSTM returns sess's current STM contents (spec §4.14 get_stm).
func (e *Engine) GetSTM(sess *session.Session) model.Sequence {
	return sess.Processor.GetSTM()
}

// GetStatus returns a read-only snapshot of sess's state (spec §4.14
// get_status).
func (e *Engine) GetStatus(sess *session.Session) processor.Status {
	return sess.Processor.GetStatus()
}

// GetMetrics returns knowledge-base-wide statistics for sess's bound
// kb_id (spec §4.14 get_metrics).
func (e *Engine) GetMetrics(ctx context.Context, sess *session.Session) (processor.Metrics, error) {
	return sess.Processor.GetMetrics(ctx)
}

// Close releases the underlying collaborator connections.
func (e *Engine) Close() error {
	e.columnar.Close()
	return e.kv.Close()
}
