package vectorsym

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevakavakians/kato/internal/katoerr"
	"github.com/sevakavakians/kato/internal/model"
)

func TestHash_DeterministicAndDirectionInvariant(t *testing.T) {
	v := model.Vector{1, 2, 3}

	h1 := Hash(v)
	h2 := Hash(v)
	assert.Equal(t, h1, h2)
	assert.Regexp(t, `^VCTR\|[0-9a-f]{12}$`, h1)

	// L2-normalization makes any positive scalar multiple hash the same.
	scaled := model.Vector{2, 4, 6}
	assert.Equal(t, h1, Hash(scaled))
}

func TestHash_DiffersForDifferentDirections(t *testing.T) {
	assert.NotEqual(t, Hash(model.Vector{1, 0, 0}), Hash(model.Vector{0, 1, 0}))
}

func TestHash_ZeroVectorDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { Hash(model.Vector{0, 0, 0}) })
}

func TestSymbolizeContext_NoStoreSkipsUpsert(t *testing.T) {
	s := New("kb1", 3, nil)
	sym, err := s.SymbolizeContext(context.Background(), model.Vector{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, Hash(model.Vector{1, 2, 3}), sym)
}

func TestSymbolizeContext_RejectsWrongDimension(t *testing.T) {
	s := New("kb1", 3, nil)
	_, err := s.SymbolizeContext(context.Background(), model.Vector{1, 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, katoerr.ErrInvalidObservation)
}

func TestSymbolizeContext_ZeroDimDisablesValidation(t *testing.T) {
	s := New("kb1", 0, nil)
	_, err := s.SymbolizeContext(context.Background(), model.Vector{1, 2, 3, 4, 5})
	assert.NoError(t, err)
}
