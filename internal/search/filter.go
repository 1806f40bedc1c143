package search

import (
	"context"
	"math"

	"github.com/sevakavakians/kato/internal/minhash"
	"github.com/sevakavakians/kato/internal/model"
	"github.com/sevakavakians/kato/internal/patternstore"
)

// Candidate is one surviving pattern after Stage C, bundling its matched
// pattern body with the alignment the matcher produced (spec §4.9).
type Candidate struct {
	Pattern *model.Pattern
	Match   MatchResult
}

// Options configures the filter pipeline (spec §4.9, §4.14 recognized
// config key `recall_threshold`). `max_predictions` is not applied here;
// the ranker caps the result (predict.RankConfig).
type Options struct {
	RecallThreshold float64
	Bands           int
	Rows            int
}

// DefaultOptions mirrors the MinHash/LSH signer defaults (spec §4.6).
func DefaultOptions() Options {
	return Options{
		RecallThreshold: 0.1,
		Bands:           minhash.DefaultBands,
		Rows:            minhash.DefaultRows,
	}
}

// Run executes the three-stage candidate selection pipeline against the
// current STM (spec §4.9). stm must hold at least one string; callers are
// responsible for the "≥ 2 strings to emit predictions" gate (spec §4.14
// get_predictions).
func Run(ctx context.Context, kb *patternstore.KB, kbID string, stm model.Sequence, opts Options) ([]Candidate, error) {
	stmSymbols := stm.Symbols()
	if len(stmSymbols) == 0 {
		return nil, nil
	}

	// Stage A: LSH candidate generation.
	sig := minhash.Signature(stmSymbols)
	stmBands := minhash.Bands(sig, opts.Bands, opts.Rows)

	names, err := kb.CandidatesByBands(ctx, kbID, stmBands)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	nameList := make([]string, 0, len(names))
	for name := range names {
		nameList = append(nameList, name)
	}

	// Stage B: cheap prefilter.
	rows, err := kb.FetchPrefilter(ctx, kbID, nameList)
	if err != nil {
		return nil, err
	}

	bandFloor := int(math.Ceil(opts.RecallThreshold * float64(opts.Bands)))
	survivors := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Length < 1 {
			continue // every pattern has at least one event (spec §3)
		}
		if minhash.SharedBands(row.LSHBands, stmBands) < bandFloor {
			continue
		}
		survivors = append(survivors, row.Name)
	}
	if len(survivors) == 0 {
		return nil, nil
	}

	// Stage C: exact subsequence alignment.
	patterns, err := kb.FetchPatterns(ctx, kbID, survivors)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(patterns))
	for _, p := range patterns {
		m := Match(p.Sequence, stm)
		if m.MatchedTokens == 0 {
			continue // zero matched symbols always rejected (spec §4.9 Stage C)
		}
		if m.Similarity < opts.RecallThreshold {
			continue
		}
		out = append(out, Candidate{Pattern: p, Match: m})
	}
	return out, nil
}
