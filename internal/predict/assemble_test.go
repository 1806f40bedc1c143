package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevakavakians/kato/internal/model"
	"github.com/sevakavakians/kato/internal/search"
)

func TestAssemble_PartitionsAroundMatchedSpan(t *testing.T) {
	pattern := &model.Pattern{
		Name:     "deadbeef",
		Sequence: model.Sequence{ev("a"), ev("b"), ev("c"), ev("d")},
		Freq:     3,
	}
	match := search.Match(pattern.Sequence, model.Sequence{ev("b"), ev("c")})

	pred := Assemble(search.Candidate{Pattern: pattern, Match: match})

	assert.Equal(t, "deadbeef", pred.PatternName)
	assert.Equal(t, model.Sequence{ev("a")}, pred.Past)
	assert.Equal(t, model.Sequence{ev("b"), ev("c")}, pred.Present)
	assert.Equal(t, model.Sequence{ev("d")}, pred.Future)
	assert.Equal(t, int64(3), pred.Frequency)
}

func TestAssemble_WholeSequenceMatchedHasNoPastOrFuture(t *testing.T) {
	pattern := &model.Pattern{
		Name:     "cafebabe",
		Sequence: model.Sequence{ev("a"), ev("b")},
	}
	match := search.Match(pattern.Sequence, model.Sequence{ev("a"), ev("b")})

	pred := Assemble(search.Candidate{Pattern: pattern, Match: match})

	assert.Empty(t, pred.Past)
	assert.Empty(t, pred.Future)
	assert.Equal(t, model.Sequence{ev("a"), ev("b")}, pred.Present)
}
