package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevakavakians/kato/internal/model"
)

func seq(events ...model.Event) model.Sequence {
	return model.Sequence(events)
}

func TestMatch_ExactMatch(t *testing.T) {
	pattern := seq(model.Event{"a"}, model.Event{"b"}, model.Event{"c"})
	stm := seq(model.Event{"a"}, model.Event{"b"}, model.Event{"c"})

	result := Match(pattern, stm)

	assert.Equal(t, 1.0, result.Similarity)
	assert.Equal(t, 0, result.FirstMatchEventIndex)
	assert.Equal(t, 2, result.LastMatchEventIndex)
	assert.Equal(t, []string{"a", "b", "c"}, result.Matches)
	assert.Empty(t, result.Missing)
	assert.Empty(t, result.Extras)
	assert.Equal(t, 0, result.Fragmentation())
}

func TestMatch_FragmentedMatch(t *testing.T) {
	pattern := seq(model.Event{"a"}, model.Event{"b"}, model.Event{"c"}, model.Event{"d"})
	stm := seq(model.Event{"a"}, model.Event{"c"})

	result := Match(pattern, stm)

	require.Equal(t, 0, result.FirstMatchEventIndex)
	require.Equal(t, 2, result.LastMatchEventIndex)
	assert.Equal(t, []string{"a", "c"}, result.Matches)
	assert.Equal(t, []string{"b"}, result.Missing)
	assert.Empty(t, result.Extras)
	assert.Equal(t, 1, result.Fragmentation())
	assert.InDelta(t, 2.0*2/6, result.Similarity, 1e-9)
}

func TestMatch_NoOverlap(t *testing.T) {
	pattern := seq(model.Event{"x"})
	stm := seq(model.Event{"y"})

	result := Match(pattern, stm)

	assert.Equal(t, 0.0, result.Similarity)
	assert.Equal(t, -1, result.FirstMatchEventIndex)
	assert.Equal(t, -1, result.LastMatchEventIndex)
	assert.Nil(t, result.Matches)
	assert.Nil(t, result.Missing)
	assert.Equal(t, []string{"y"}, result.Extras)
	assert.Equal(t, 0, result.Fragmentation())
}

func TestMatch_ExtrasBeyondPresentSpan(t *testing.T) {
	pattern := seq(model.Event{"a"}, model.Event{"b"})
	stm := seq(model.Event{"a"}, model.Event{"z"})

	result := Match(pattern, stm)

	assert.Contains(t, result.Matches, "a")
	assert.Contains(t, result.Extras, "z")
}

func TestMatch_MultiSymbolEvents(t *testing.T) {
	pattern := seq(model.Event{"a", "b"}, model.Event{"c"})
	stm := seq(model.Event{"a", "b"}, model.Event{"c"})

	result := Match(pattern, stm)

	assert.Equal(t, 1.0, result.Similarity)
	assert.Equal(t, []string{"a", "b", "c"}, result.Matches)
}
