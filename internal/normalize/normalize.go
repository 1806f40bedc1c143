// Package normalize implements the symbol normalizer (spec §4.1): it sorts
// an event's symbols lexicographically and interleaves vector-derived
// symbols, producing the canonical stored form every downstream component
// assumes (spec §3 invariant I3).
package normalize

import (
	"sort"

	"github.com/sevakavakians/kato/internal/model"
)

// VectorSymbolizer derives a deterministic symbol for a vector and stores
// the raw vector with the ANN collaborator, keyed by that symbol (spec
// §4.2). Implemented by package vectorsym.
type VectorSymbolizer interface {
	Symbolize(v model.Vector) (symbol string, err error)
}

// Event builds a normalized, stored Event from raw observed strings and
// vectors. sortSymbols controls whether lexicographic sort is applied
// (session config "sort_symbols", default true per spec §4.14); it is
// exposed because disabling it is a recognized, if non-default, session
// option.
func Event(strings []string, vectors []model.Vector, vs VectorSymbolizer, sortSymbols bool) (model.Event, error) {
	out := make(model.Event, 0, len(strings)+len(vectors))
	out = append(out, strings...)

	for _, v := range vectors {
		sym, err := vs.Symbolize(v)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}

	if sortSymbols {
		sort.Strings(out)
	}
	return out, nil
}
