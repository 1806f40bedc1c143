package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevakavakians/kato/internal/model"
)

func ev(syms ...string) model.Event { return model.Event(syms) }

func TestComputeAll_Empty(t *testing.T) {
	out := ComputeAll(nil, model.Sequence{ev("a")}, MetricsConfig{})
	assert.Nil(t, out)
}

func TestComputeAll_PerCandidateMetrics(t *testing.T) {
	preds := []model.Prediction{
		{
			PatternName: "p1",
			Past:        model.Sequence{ev("a")},
			Present:     model.Sequence{ev("b")},
			Future:      model.Sequence{ev("c")},
			Matches:     []string{"b"},
			Extras:      nil,
			Frequency:   1,
		},
	}
	stm := model.Sequence{ev("a"), ev("b")}

	out := ComputeAll(preds, stm, MetricsConfig{NPatterns: 1, SymbolFreq: map[string]int64{"a": 1, "b": 1}})
	require.Len(t, out, 1)

	p := out[0]
	assert.InDelta(t, 1.0/3, p.Evidence, 1e-9) // 1 present event / 3 total events
	assert.InDelta(t, 1.0, p.Confidence, 1e-9) // 1 match / 1 present symbol
	assert.InDelta(t, 1.0, p.SNR, 1e-9)        // 1 match, 0 extras
}

func TestComputeAll_ConfluenceSplitsByFuture(t *testing.T) {
	preds := []model.Prediction{
		{PatternName: "p1", Future: model.Sequence{ev("x")}, Similarity: 1, Frequency: 1},
		{PatternName: "p2", Future: model.Sequence{ev("x")}, Similarity: 1, Frequency: 1},
		{PatternName: "p3", Future: model.Sequence{ev("y")}, Similarity: 1, Frequency: 1},
	}
	stm := model.Sequence{ev("a")}

	out := ComputeAll(preds, stm, MetricsConfig{})

	// The two "x"-future predictions each carry their group's share of
	// total potential, which differs from the lone "y"-future prediction's.
	assert.InDelta(t, out[0].Confluence, out[1].Confluence, 1e-9)
	assert.NotEqual(t, out[0].Confluence, out[2].Confluence)
}

func TestComputeAll_BayesianPosteriorSumsToOne(t *testing.T) {
	preds := []model.Prediction{
		{PatternName: "p1", Future: model.Sequence{ev("x")}, Similarity: 0.5, Frequency: 3},
		{PatternName: "p2", Future: model.Sequence{ev("y")}, Similarity: 0.8, Frequency: 1},
	}
	stm := model.Sequence{ev("a")}

	out := ComputeAll(preds, stm, MetricsConfig{})

	var sum float64
	for _, p := range out {
		sum += p.BayesianPosterior
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestPotential_StandardVsLegacy(t *testing.T) {
	p := model.Prediction{Similarity: 0.5, PredictiveInformation: 2, Evidence: 0.5, Confidence: 0.5, SNR: 1, ITFDFSimilarity: 0.25, Fragmentation: 1}

	std := potential(p, PotentialStandard)
	assert.InDelta(t, 1.0, std, 1e-9)

	legacy := potential(p, PotentialLegacy)
	assert.InDelta(t, (0.5+0.5)*1+0.25+1.0/2, legacy, 1e-9)
}

func TestSurprisal(t *testing.T) {
	assert.Equal(t, 0.0, surprisal(0))
	assert.Equal(t, 0.0, surprisal(-1))
	assert.InDelta(t, 1.0, surprisal(0.5), 1e-9)
}

func TestMetadataEntropy(t *testing.T) {
	t.Run("single value has zero entropy", func(t *testing.T) {
		assert.Equal(t, 0.0, metadataEntropy(map[string][]string{"k": {"v", "v"}}))
	})

	t.Run("uniform two-way split has entropy 1", func(t *testing.T) {
		h := metadataEntropy(map[string][]string{"k": {"a", "b"}})
		assert.InDelta(t, 1.0, h, 1e-9)
	})

	t.Run("empty metadata has zero entropy", func(t *testing.T) {
		assert.Equal(t, 0.0, metadataEntropy(nil))
	})
}
