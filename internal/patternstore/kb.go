package patternstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevakavakians/kato/internal/model"
	"github.com/sevakavakians/kato/internal/store/ann"
	"github.com/sevakavakians/kato/internal/store/postgres"
	"github.com/sevakavakians/kato/internal/store/redis"
)

const defaultRowCacheSize = 4096

// KB is the pattern knowledge base facade (spec §4.8): the unified
// read/write surface the filter pipeline and prediction assembler use,
// scoped by kb_id with strict isolation (spec §3 I5).
type KB struct {
	columnar *postgres.Store
	kv       *redis.Store
	ann      ann.Store
	writer   *Writer
	logger   *slog.Logger

	rowCache *lruCache // "kbID\x00name" -> postgres.Row
	symFreq  *lruCache // kbID -> map[string]int64
}

// NewKB constructs a KB facade over the three collaborators.
func NewKB(columnar *postgres.Store, kv *redis.Store, annStore ann.Store, logger *slog.Logger) *KB {
	if logger == nil {
		logger = slog.Default()
	}
	return &KB{
		columnar: columnar,
		kv:       kv,
		ann:      annStore,
		writer:   NewWriter(columnar, kv, logger),
		logger:   logger,
		rowCache: newLRU(defaultRowCacheSize),
		symFreq:  newLRU(64), // one entry per active kb_id is typical
	}
}

// WritePattern inserts or upserts one pattern via the writer (spec §4.7),
// then invalidates kb_id's cached symbol-frequency table whenever a new
// pattern is created (spec §4.12 itfdf_similarity): a new pattern can
// introduce symbols the cached counts don't know about yet, or shift
// existing symbols' pattern counts, so the next SymbolFrequencies call
// must recompute rather than serve the stale cache. Upserts to an
// already-known pattern don't change which patterns a symbol occurs in,
// so they leave the cache untouched.
func (kb *KB) WritePattern(ctx context.Context, kbID string, core Core, emotives model.EmotiveSnapshot, metadata map[string][]string, persistence int) (WriteResult, error) {
	result, err := kb.writer.Write(ctx, kbID, core, emotives, metadata, persistence)
	if err != nil {
		return WriteResult{}, err
	}
	if result.WasCreated {
		kb.symFreq.Delete(kbID)
	}
	return result, nil
}

func rowCacheKey(kbID, name string) string {
	return kbID + "\x00" + name
}

// Get fetches one pattern, merging the columnar body with KV roll-up
// state (spec §4.8 get). Missing KV metadata self-heals to freq=1, empty
// emotives, empty metadata (spec §4.7 "Readers tolerate missing
// metadata").
func (kb *KB) Get(ctx context.Context, kbID, name string) (*model.Pattern, error) {
	row, err := kb.fetchRowCached(ctx, kbID, name)
	if err != nil {
		return nil, err
	}
	return kb.merge(ctx, kbID, row)
}

func (kb *KB) fetchRowCached(ctx context.Context, kbID, name string) (postgres.Row, error) {
	key := rowCacheKey(kbID, name)
	if cached, ok := kb.rowCache.Get(key); ok {
		return cached.(postgres.Row), nil
	}
	row, err := kb.columnar.FetchRow(ctx, kbID, name)
	if err != nil {
		return postgres.Row{}, err
	}
	kb.rowCache.Put(key, row)
	return row, nil
}

func (kb *KB) merge(ctx context.Context, kbID string, row postgres.Row) (*model.Pattern, error) {
	freq, err := kb.kv.GetFreq(ctx, kbID, row.Name)
	if err != nil {
		return nil, err
	}
	if freq == 0 {
		freq = 1 // self-heal: body exists, KV init never landed (spec §4.7)
	}

	emotives, err := kb.kv.GetEmotives(ctx, kbID, row.Name)
	if err != nil {
		return nil, err
	}
	metadata, err := kb.kv.GetMetadata(ctx, kbID, row.Name)
	if err != nil {
		return nil, err
	}

	return &model.Pattern{
		Name:      row.Name,
		KBID:      kbID,
		Sequence:  row.EventData,
		Length:    row.Length,
		Freq:      freq,
		Emotives:  emotives,
		Metadata:  metadata,
		MinHash:   row.MinHash,
		LSHBands:  row.LSHBands,
		FirstTok:  row.FirstToken,
		LastTok:   row.LastToken,
		TokCount:  row.TokenCount,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// Exists reports whether (kb_id, name) is stored.
func (kb *KB) Exists(ctx context.Context, kbID, name string) (bool, error) {
	if _, ok := kb.rowCache.Get(rowCacheKey(kbID, name)); ok {
		return true, nil
	}
	return kb.columnar.Exists(ctx, kbID, name)
}

// Count returns the number of patterns stored under kb_id.
func (kb *KB) Count(ctx context.Context, kbID string) (int64, error) {
	return kb.columnar.Count(ctx, kbID)
}

// CandidatesByBands unions LSH postings across all supplied band hashes
// (spec §4.8, §4.9 Stage A).
func (kb *KB) CandidatesByBands(ctx context.Context, kbID string, bandHashes []uint64) (map[string]struct{}, error) {
	return kb.columnar.CandidatesByBands(ctx, kbID, bandHashes)
}

// FetchPrefilter bulk-fetches the Stage B projection (spec §4.9 Stage B).
func (kb *KB) FetchPrefilter(ctx context.Context, kbID string, names []string) ([]postgres.PrefilterRow, error) {
	return kb.columnar.FetchPrefilter(ctx, kbID, names)
}

// FetchPatterns bulk-fetches full pattern rows, merged with KV roll-up
// state (spec §4.8 fetch_patterns).
func (kb *KB) FetchPatterns(ctx context.Context, kbID string, names []string) ([]*model.Pattern, error) {
	var missing []string
	cached := make(map[string]postgres.Row)
	for _, name := range names {
		if row, ok := kb.rowCache.Get(rowCacheKey(kbID, name)); ok {
			cached[name] = row.(postgres.Row)
		} else {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		rows, err := kb.columnar.FetchRows(ctx, kbID, missing)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			kb.rowCache.Put(rowCacheKey(kbID, row.Name), row)
			cached[row.Name] = row
		}
	}

	out := make([]*model.Pattern, 0, len(names))
	for _, name := range names {
		row, ok := cached[name]
		if !ok {
			continue // vanished between candidate generation and fetch; skip, not an error
		}
		p, err := kb.merge(ctx, kbID, row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// SymbolFrequencies returns, for every symbol in kb_id, the count of
// patterns it occurs in (spec §4.12 itfdf_similarity). Lazily populated
// and cached per kb_id (spec §5 "bounded LRU caches ... symbol frequency
// counts per kb_id"); callers needing a fresh view should call
// RefreshSymbolFrequencies.
func (kb *KB) SymbolFrequencies(ctx context.Context, kbID string) (map[string]int64, error) {
	if cached, ok := kb.symFreq.Get(kbID); ok {
		return cached.(map[string]int64), nil
	}
	return kb.RefreshSymbolFrequencies(ctx, kbID)
}

// RefreshSymbolFrequencies recomputes and re-caches the symbol frequency
// table for kb_id.
func (kb *KB) RefreshSymbolFrequencies(ctx context.Context, kbID string) (map[string]int64, error) {
	freqs, err := kb.columnar.SymbolFrequencies(ctx, kbID)
	if err != nil {
		return nil, err
	}
	kb.symFreq.Put(kbID, freqs)
	return freqs, nil
}

// BulkDelete drops kb_id's entire partition across all three
// collaborators: the columnar partition, every "pattern:<kb_id>:" KV
// key, and the ANN "vectors_<kb_id>" collection (spec §4.8 bulk_delete,
// §6 "Persisted state layout"). Idempotent: deleting an already-empty
// kb_id succeeds (spec §7, §8 T11).
func (kb *KB) BulkDelete(ctx context.Context, kbID string) error {
	if err := kb.columnar.DropPartition(ctx, kbID); err != nil {
		return fmt.Errorf("bulk delete columnar partition: %w", err)
	}
	if err := kb.kv.DeletePatternKeys(ctx, kbID); err != nil {
		return fmt.Errorf("bulk delete kv keys: %w", err)
	}
	if kb.ann != nil {
		if err := kb.ann.DropCollection(ctx, kbID); err != nil {
			return fmt.Errorf("bulk delete ann collection: %w", err)
		}
	}

	kb.rowCache.DeletePrefix(kbID + "\x00")
	kb.symFreq.Delete(kbID)
	kb.logger.Info("kb bulk deleted", "kb_id", kbID)
	return nil
}

// GetPattern is the session-facing equivalent of Get, surfacing
// katoerr.ErrPatternNotFound verbatim for the processor's get_pattern
// operation (spec §4.14).
func (kb *KB) GetPattern(ctx context.Context, kbID, name string) (*model.Pattern, error) {
	p, err := kb.Get(ctx, kbID, name)
	if err != nil {
		return nil, err
	}
	return p, nil
}
