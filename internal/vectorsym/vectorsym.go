// Package vectorsym implements the vector symbolizer (spec §4.2): it
// derives a deterministic symbol from a raw vector and stores the
// original vector with the ANN collaborator under that symbol.
package vectorsym

import (
	"context"
	"crypto/sha1" //nolint:gosec // content-addressing, not a security boundary
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sevakavakians/kato/internal/katoerr"
	"github.com/sevakavakians/kato/internal/model"
	"github.com/sevakavakians/kato/internal/store/ann"
)

const symbolHexLen = 12

// Symbolizer derives "VCTR|<hex>" symbols from vectors and upserts the
// originals into the ANN collaborator, scoped by kb_id.
type Symbolizer struct {
	kbID  string
	dim   int
	store ann.Store
}

// New constructs a Symbolizer bound to one kb_id and vector dimension.
// dim <= 0 disables dimension validation (any length accepted).
func New(kbID string, dim int, store ann.Store) *Symbolizer {
	return &Symbolizer{kbID: kbID, dim: dim, store: store}
}

// Symbolize implements normalize.VectorSymbolizer. It L2-normalizes v,
// rounds to 6 decimal places, hashes the rounded bytes with SHA1, and
// returns "VCTR|" plus the first 12 hex characters of the digest (spec
// §4.2 steps 1-4). The original (unrounded) vector is upserted into the
// ANN collaborator under the derived symbol (step 5).
func (s *Symbolizer) Symbolize(v model.Vector) (string, error) {
	return s.SymbolizeContext(context.Background(), v)
}

// SymbolizeContext is Symbolize with an explicit context, used when the
// ANN upsert should honor a request deadline.
func (s *Symbolizer) SymbolizeContext(ctx context.Context, v model.Vector) (string, error) {
	if s.dim > 0 && len(v) != s.dim {
		return "", fmt.Errorf("%w: vector has %d dims, want %d", katoerr.ErrInvalidObservation, len(v), s.dim)
	}

	symbol := Hash(v)

	if s.store != nil {
		if err := s.store.EnsureCollection(ctx, s.kbID, len(v)); err != nil {
			return "", err
		}
		point := ann.Point{ID: symbol, Vector: append([]float64(nil), v...), Symbol: symbol}
		if err := s.store.Upsert(ctx, s.kbID, point); err != nil {
			return "", err
		}
	}

	return symbol, nil
}

// Hash computes the deterministic "VCTR|<hex>" symbol for v without
// touching storage. Exposed so callers that already know a symbol exists
// (e.g. re-deriving for comparison) don't need a Store.
func Hash(v model.Vector) string {
	normalized := l2Normalize(v)

	buf := make([]byte, 8*len(normalized))
	for i, f := range normalized {
		rounded := math.Round(f*1e6) / 1e6
		binary.BigEndian.PutUint64(buf[i*8:(i+1)*8], math.Float64bits(rounded))
	}

	digest := sha1.Sum(buf) //nolint:gosec // content-addressing, not a security boundary
	hexDigest := fmt.Sprintf("%x", digest[:])
	return "VCTR|" + hexDigest[:symbolHexLen]
}

func l2Normalize(v model.Vector) []float64 {
	var sumSq float64
	for _, f := range v {
		sumSq += f * f
	}
	if sumSq == 0 {
		return append([]float64(nil), v...)
	}
	norm := math.Sqrt(sumSq)
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = f / norm
	}
	return out
}
