// Package patternstore implements the pattern writer (spec §4.7) and the
// pattern knowledge base facade (spec §4.8): the unified read/write layer
// over the columnar and KV collaborators, scoped by kb_id.
package patternstore

import (
	"context"
	"log/slog"

	"github.com/sevakavakians/kato/internal/model"
	"github.com/sevakavakians/kato/internal/store/postgres"
	"github.com/sevakavakians/kato/internal/store/redis"
)

// Writer implements the insert/upsert + roll-up semantics of spec §4.7.
type Writer struct {
	columnar *postgres.Store
	kv       *redis.Store
	logger   *slog.Logger
}

// NewWriter constructs a Writer over the columnar and KV collaborators.
func NewWriter(columnar *postgres.Store, kv *redis.Store, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{columnar: columnar, kv: kv, logger: logger}
}

// WriteResult reports what happened to a pattern write.
type WriteResult struct {
	Name       string
	Freq       int64
	WasCreated bool
}

// Write inserts or upserts one pattern (spec §4.7). On first write for
// (kb_id, name) it inserts the immutable body and the LSH postings; every
// write atomically increments freq, appends the emotive snapshot
// (trimmed to `persistence` entries), and set-union-merges metadata.
// Event sequence, MinHash, and LSH bands never change after the first
// write (spec §3 I2).
func (w *Writer) Write(ctx context.Context, kbID string, core Core, emotives model.EmotiveSnapshot, metadata map[string][]string, persistence int) (WriteResult, error) {
	row := postgres.Row{
		KBID:       kbID,
		Name:       core.Name,
		Length:     core.Length,
		TokenCount: core.TokenCount,
		FirstToken: core.FirstToken,
		LastToken:  core.LastToken,
		EventData:  core.Sequence,
		MinHash:    core.MinHash,
		LSHBands:   core.LSHBands,
	}

	created, err := w.columnar.InsertIfAbsent(ctx, row)
	if err != nil {
		return WriteResult{}, err
	}
	if created {
		if err := w.columnar.InsertPostings(ctx, kbID, core.Name, core.LSHBands); err != nil {
			return WriteResult{}, err
		}
		w.logger.Info("pattern created", "kb_id", kbID, "pattern_name", core.Name, "length", core.Length)
	}

	freq, err := w.kv.IncrFreq(ctx, kbID, core.Name)
	if err != nil {
		return WriteResult{}, err
	}

	if len(emotives) > 0 {
		if persistence <= 0 {
			persistence = 1
		}
		if err := w.kv.AppendEmotive(ctx, kbID, core.Name, emotives, persistence); err != nil {
			return WriteResult{}, err
		}
	}
	if len(metadata) > 0 {
		if err := w.kv.MergeMetadata(ctx, kbID, core.Name, metadata); err != nil {
			return WriteResult{}, err
		}
	}

	w.logger.Debug("pattern learned", "kb_id", kbID, "pattern_name", core.Name, "freq", freq, "created", created)
	return WriteResult{Name: core.Name, Freq: freq, WasCreated: created}, nil
}
