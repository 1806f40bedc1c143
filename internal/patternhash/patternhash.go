// Package patternhash implements the pattern hasher (spec §4.5): a stable
// content hash over the canonical event sequence, used as the pattern's
// identity (spec §3 invariant I1).
package patternhash

import (
	"crypto/sha1" //nolint:gosec // content-addressing, not a security boundary
	"fmt"

	"github.com/sevakavakians/kato/internal/model"
)

// Name computes the lowercase 40-hex SHA1 digest over the sequence's
// canonical JSON representation. Events must already be sorted
// (normalization invariant, spec §3 I3); Name does not re-sort them, so
// callers that bypass package normalize are responsible for that.
func Name(seq model.Sequence) string {
	digest := sha1.Sum([]byte(seq.CanonicalJSON())) //nolint:gosec // content-addressing, not a security boundary
	return fmt.Sprintf("%x", digest[:])
}
