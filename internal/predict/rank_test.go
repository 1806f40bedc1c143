package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevakavakians/kato/internal/model"
)

func TestRank_SortsByConfiguredKeyDescending(t *testing.T) {
	preds := []model.Prediction{
		{PatternName: "low", Similarity: 0.2},
		{PatternName: "high", Similarity: 0.9},
		{PatternName: "mid", Similarity: 0.5},
	}

	out := Rank(preds, RankConfig{SortAlgo: SortSimilarity, MaxPredictions: -1})

	require.Len(t, out, 3)
	assert.Equal(t, "high", out[0].PatternName)
	assert.Equal(t, "mid", out[1].PatternName)
	assert.Equal(t, "low", out[2].PatternName)
}

func TestRank_FragmentationSortsAscending(t *testing.T) {
	preds := []model.Prediction{
		{PatternName: "frag3", Fragmentation: 3},
		{PatternName: "frag0", Fragmentation: 0},
		{PatternName: "frag1", Fragmentation: 1},
	}

	out := Rank(preds, RankConfig{SortAlgo: SortFragmentation, MaxPredictions: -1})

	assert.Equal(t, "frag0", out[0].PatternName)
	assert.Equal(t, "frag1", out[1].PatternName)
	assert.Equal(t, "frag3", out[2].PatternName)
}

func TestRank_TieBreakChain(t *testing.T) {
	preds := []model.Prediction{
		{PatternName: "b", Potential: 1, Similarity: 0.5, Frequency: 2},
		{PatternName: "a", Potential: 1, Similarity: 0.5, Frequency: 2},
		{PatternName: "c", Potential: 1, Similarity: 0.9, Frequency: 1},
	}

	out := Rank(preds, RankConfig{MaxPredictions: -1})

	// c wins on similarity despite lower frequency; a beats b alphabetically
	// once potential and similarity/frequency tie.
	require.Len(t, out, 3)
	assert.Equal(t, "c", out[0].PatternName)
	assert.Equal(t, "a", out[1].PatternName)
	assert.Equal(t, "b", out[2].PatternName)
}

func TestRank_CapsAtMaxPredictions(t *testing.T) {
	preds := []model.Prediction{
		{PatternName: "a", Similarity: 0.9},
		{PatternName: "b", Similarity: 0.8},
		{PatternName: "c", Similarity: 0.7},
	}

	out := Rank(preds, RankConfig{SortAlgo: SortSimilarity, MaxPredictions: 2})

	assert.Len(t, out, 2)
	assert.Equal(t, "a", out[0].PatternName)
	assert.Equal(t, "b", out[1].PatternName)
}

func TestRank_DefaultsToPotentialWhenAlgoUnset(t *testing.T) {
	preds := []model.Prediction{
		{PatternName: "low", Potential: 0.1},
		{PatternName: "high", Potential: 0.9},
	}

	out := Rank(preds, RankConfig{MaxPredictions: -1})

	assert.Equal(t, "high", out[0].PatternName)
}

func TestAggregateByFuture_GroupsByCanonicalFuture(t *testing.T) {
	future := model.Sequence{model.Event{"x"}}
	other := model.Sequence{model.Event{"y"}}

	preds := []model.Prediction{
		{PatternName: "p1", Future: future, Potential: 0.5, Similarity: 1, Frequency: 2},
		{PatternName: "p2", Future: future, Potential: 0.3, Similarity: 1, Frequency: 1},
		{PatternName: "p3", Future: other, Potential: 0.7, Similarity: 1, Frequency: 1},
	}

	aggs := AggregateByFuture(preds)

	require.Len(t, aggs, 2)
	assert.Equal(t, 2, aggs[0].SupportingPatterns)
	assert.InDelta(t, 0.8, aggs[0].AggregatePotential, 1e-9)
	assert.InDelta(t, 3.0, aggs[0].TotalWeightedFrequency, 1e-9)

	assert.Equal(t, 1, aggs[1].SupportingPatterns)
}

func TestAggregateByFuture_EmptyInput(t *testing.T) {
	assert.Nil(t, AggregateByFuture(nil))
}
