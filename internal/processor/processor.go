// Package processor implements the session-bound orchestrator (spec
// §4.14): the operations exposed to the session layer, wiring the STM
// buffer, the emotive/metadata accumulator, the pattern knowledge base,
// the filter pipeline, and the metrics/ranker stages together. Per spec
// §5, at most one operation at a time mutates a given Processor's STM and
// accumulators; Processor serializes its own public methods with a mutex
// so callers don't have to.
package processor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sevakavakians/kato/internal/accumulate"
	"github.com/sevakavakians/kato/internal/katoerr"
	"github.com/sevakavakians/kato/internal/minhash"
	"github.com/sevakavakians/kato/internal/model"
	"github.com/sevakavakians/kato/internal/normalize"
	"github.com/sevakavakians/kato/internal/patternstore"
	"github.com/sevakavakians/kato/internal/predict"
	"github.com/sevakavakians/kato/internal/search"
	"github.com/sevakavakians/kato/internal/stm"
	"github.com/sevakavakians/kato/internal/store/ann"
	"github.com/sevakavakians/kato/internal/vectorsym"
	"github.com/sevakavakians/kato/pkg/config"
)

// Processor is the per-session orchestrator bound to one kb_id.
type Processor struct {
	mu sync.Mutex

	kbID   string
	kb     *patternstore.KB
	vs     *vectorsym.Symbolizer
	stmBuf *stm.STM
	acc    *accumulate.Accumulator
	cfg    config.SessionConfig
	logger *slog.Logger
}

// New constructs a Processor bound to kbID. annStore may be nil (spec Q1:
// the ANN collaborator is only required for vector-bearing observations).
func New(kbID string, kb *patternstore.KB, annStore ann.Store, cfg config.SessionConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		kbID:   kbID,
		kb:     kb,
		vs:     vectorsym.New(kbID, 0, annStore),
		stmBuf: stm.New(cfg.MaxPatternLength, cfg.STMMode),
		acc:    accumulate.New(),
		cfg:    cfg,
		logger: logger,
	}
}

// Status is the read-only snapshot returned by get_status (spec §4.14).
type Status struct {
	KBID            string
	STMLength       int
	STMTotalStrings int
	Config          config.SessionConfig
}

// Metrics is the read-only snapshot returned by get_metrics (spec §4.14).
type Metrics struct {
	PatternCount int64
}

// Observe normalizes and appends one event to STM, records its emotive
// and metadata contribution, and fires auto-learn if the configured
// threshold was crossed (spec §4.14 observe).
func (p *Processor) Observe(ctx context.Context, strings []string, vectors []model.Vector, emotives map[string]float64, metadata map[string][]string, uniqueID string) (stmLen int, learnedName string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(strings) == 0 && len(vectors) == 0 {
		return 0, "", katoerr.NewValidationError("observation", "both strings and vectors are empty")
	}

	event, err := normalize.Event(strings, vectors, p.vs, p.cfg.SortSymbols)
	if err != nil {
		return 0, "", err
	}

	shouldLearn := p.stmBuf.Append(event)
	p.acc.Observe(emotives, metadata)

	if shouldLearn {
		name, err := p.learnLocked(ctx)
		if err != nil {
			return p.stmBuf.Len(), "", err
		}
		learnedName = name
	}

	return p.stmBuf.Len(), learnedName, nil
}

// Learn builds and writes a pattern from the current STM if it holds at
// least two strings total, then transitions STM per stm_mode (spec §4.14
// learn). Returns an empty name, not an error, when STM is too short.
func (p *Processor) Learn(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stmBuf.TotalStrings() < 2 {
		return "", nil
	}
	return p.learnLocked(ctx)
}

func (p *Processor) learnLocked(ctx context.Context) (string, error) {
	seq := p.stmBuf.Events().Clone()
	core := patternstore.BuildCore(seq)

	result, err := p.kb.WritePattern(ctx, p.kbID, core, p.acc.EmotiveSnapshot(), p.acc.MetadataSnapshot(), p.cfg.Persistence)
	if err != nil {
		return "", err
	}

	p.stmBuf.AfterLearn()
	p.acc.Reset()
	return result.Name, nil
}

// GetPredictions runs the filter pipeline and the metrics/ranker stages
// against the current STM (spec §4.14 get_predictions). Returns empty
// results, not an error, when STM holds fewer than two strings total.
func (p *Processor) GetPredictions(ctx context.Context) ([]model.Prediction, []model.FutureAggregate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stmBuf.TotalStrings() < 2 {
		return nil, nil, nil
	}

	stmSeq := p.stmBuf.Events()

	opts := search.Options{
		RecallThreshold: p.cfg.RecallThreshold,
		Bands:           minhash.DefaultBands,
		Rows:            minhash.DefaultRows,
	}
	candidates, err := search.Run(ctx, p.kb, p.kbID, stmSeq, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	preds := make([]model.Prediction, 0, len(candidates))
	for _, c := range candidates {
		preds = append(preds, predict.Assemble(c))
	}

	nPatterns, err := p.kb.Count(ctx, p.kbID)
	if err != nil {
		return nil, nil, err
	}
	symFreq, err := p.kb.SymbolFrequencies(ctx, p.kbID)
	if err != nil {
		return nil, nil, err
	}

	preds = predict.ComputeAll(preds, stmSeq, predict.MetricsConfig{
		NPatterns:     nPatterns,
		SymbolFreq:    symFreq,
		PotentialForm: predict.PotentialStandard,
	})
	preds = predict.Rank(preds, predict.RankConfig{
		SortAlgo:       p.cfg.RankSortAlgo,
		MaxPredictions: p.cfg.MaxPredictions,
	})

	return preds, predict.AggregateByFuture(preds), nil
}

// ClearSTM empties STM and its accumulators (spec §4.14 clear_stm).
func (p *Processor) ClearSTM() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stmBuf.Clear()
	p.acc.Reset()
}

// ClearAll clears STM and bulk-deletes the bound kb_id (spec §4.14
// clear_all).
func (p *Processor) ClearAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stmBuf.Clear()
	p.acc.Reset()
	return p.kb.BulkDelete(ctx, p.kbID)
}

// GetPattern is a pass-through to the KB facade (spec §4.14 get_pattern).
func (p *Processor) GetPattern(ctx context.Context, name string) (*model.Pattern, error) {
	return p.kb.GetPattern(ctx, p.kbID, name)
}

// UpdateConfig atomically patches the session configuration (spec §4.14
// update_config). explicit names exactly which patch fields the caller
// set, since a bool/int zero value is ambiguous with "not set".
func (p *Processor) UpdateConfig(patch config.SessionConfig, explicit map[string]bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.cfg
	if err := next.ApplyPatch(patch, explicit); err != nil {
		return err
	}
	p.cfg = next
	p.stmBuf.Configure(p.cfg.MaxPatternLength, p.cfg.STMMode)
	return nil
}

// GetSTM returns the current STM contents (spec §4.14 get_stm).
func (p *Processor) GetSTM() model.Sequence {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stmBuf.Events().Clone()
}

// GetStatus returns a read-only snapshot of session state (spec §4.14
// get_status).
func (p *Processor) GetStatus() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		KBID:            p.kbID,
		STMLength:       p.stmBuf.Len(),
		STMTotalStrings: p.stmBuf.TotalStrings(),
		Config:          p.cfg,
	}
}

// GetMetrics returns knowledge-base-wide statistics (spec §4.14
// get_metrics).
func (p *Processor) GetMetrics(ctx context.Context) (Metrics, error) {
	count, err := p.kb.Count(ctx, p.kbID)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{PatternCount: count}, nil
}
