// Package ann fronts the vector ANN collaborator (spec §6, Collaborator
// C): an out-of-scope external service this module only depends on
// through a narrow interface. The vector symbolizer (internal/vectorsym)
// is the only write-time caller; spec.md Open Question Q1 resolves the
// ANN collaborator as not required on the prediction path.
package ann

import "context"

// Point is a single stored vector with its symbolic payload (spec §4.2
// step 5, §6 Collaborator C).
type Point struct {
	ID          string
	Vector      []float64
	Symbol      string
	PatternName string // optional, set once the owning pattern is known
	EventIndex  int    // optional
}

// Match is one result of a top-k cosine search.
type Match struct {
	Point    Point
	Distance float64
}

// Store is the collaborator-C boundary: per-kb_id collections of
// fixed-dimension vectors (spec §6).
type Store interface {
	// EnsureCollection creates the vectors_<kb_id> collection if absent,
	// with the given vector dimension.
	EnsureCollection(ctx context.Context, kbID string, dim int) error

	// Upsert inserts or replaces a point in the kb_id's collection.
	Upsert(ctx context.Context, kbID string, point Point) error

	// Search runs a cosine top-k query against the kb_id's collection.
	Search(ctx context.Context, kbID string, query []float64, topK int) ([]Match, error)

	// DropCollection removes the kb_id's collection entirely. Used by
	// bulk_delete (spec §4.8).
	DropCollection(ctx context.Context, kbID string) error
}
