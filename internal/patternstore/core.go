package patternstore

import (
	"github.com/sevakavakians/kato/internal/minhash"
	"github.com/sevakavakians/kato/internal/model"
	"github.com/sevakavakians/kato/internal/patternhash"
)

// Core is the immutable body of a pattern: everything the hasher and the
// MinHash/LSH signer derive from an event sequence (spec §3 Pattern,
// minus freq/emotives/metadata which the KV collaborator owns).
type Core struct {
	Name       string
	Sequence   model.Sequence
	Length     int
	MinHash    []uint64
	LSHBands   []uint64
	FirstToken string
	LastToken  string
	TokenCount int
}

// BuildCore computes a pattern's content-addressed identity and
// MinHash/LSH signature from a (already-normalized, per-event-sorted)
// event sequence (spec §4.5, §4.6).
func BuildCore(seq model.Sequence) Core {
	name := patternhash.Name(seq)
	sig := minhash.Signature(seq.Symbols())
	bands := minhash.Bands(sig, minhash.DefaultBands, minhash.DefaultRows)

	return Core{
		Name:       name,
		Sequence:   seq,
		Length:     len(seq),
		MinHash:    sig,
		LSHBands:   bands,
		FirstToken: seq.FirstToken(),
		LastToken:  seq.LastToken(),
		TokenCount: seq.TokenCount(),
	}
}
