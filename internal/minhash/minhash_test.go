package minhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symbolSet(syms ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(syms))
	for _, s := range syms {
		out[s] = struct{}{}
	}
	return out
}

func TestSignature_Deterministic(t *testing.T) {
	set := symbolSet("a", "b", "c")

	sig1 := Signature(set)
	sig2 := Signature(set)

	assert.Equal(t, sig1, sig2)
}

func TestSignature_DiffersForDifferentSets(t *testing.T) {
	sig1 := Signature(symbolSet("a", "b"))
	sig2 := Signature(symbolSet("x", "y"))

	assert.NotEqual(t, sig1, sig2)
}

func TestSignature_OrderIndependent(t *testing.T) {
	// Map iteration order varies, but the signature is a per-element min
	// over hashed values, so it must not depend on insertion order.
	sig1 := Signature(symbolSet("a", "b", "c", "d", "e"))
	sig2 := Signature(symbolSet("e", "d", "c", "b", "a"))

	assert.Equal(t, sig1, sig2)
}

func TestSignature_EmptySetIsAllSentinel(t *testing.T) {
	sig := Signature(symbolSet())
	for _, v := range sig {
		assert.Equal(t, ^uint64(0), v)
	}
}

func TestBands_SplitsSignatureIntoEqualGroups(t *testing.T) {
	sig := SignatureK(symbolSet("a", "b"), 8)
	bands := Bands(sig, 4, 2)

	require.Len(t, bands, 4)

	// Identical sub-signatures produce identical band hashes.
	sig2 := SignatureK(symbolSet("a", "b"), 8)
	bands2 := Bands(sig2, 4, 2)
	assert.Equal(t, bands, bands2)
}

func TestEstimateJaccard(t *testing.T) {
	t.Run("identical signatures estimate 1.0", func(t *testing.T) {
		sig := Signature(symbolSet("a", "b", "c"))
		assert.Equal(t, 1.0, EstimateJaccard(sig, sig))
	})

	t.Run("mismatched lengths return 0", func(t *testing.T) {
		assert.Equal(t, 0.0, EstimateJaccard([]uint64{1, 2}, []uint64{1}))
	})

	t.Run("disjoint symbol sets estimate low similarity", func(t *testing.T) {
		sig1 := Signature(symbolSet("a", "b", "c"))
		sig2 := Signature(symbolSet("x", "y", "z"))
		assert.Less(t, EstimateJaccard(sig1, sig2), 0.5)
	})
}

func TestSharedBands(t *testing.T) {
	a := []uint64{1, 2, 3, 4}
	b := []uint64{1, 9, 3, 9}

	assert.Equal(t, 2, SharedBands(a, b))
}
