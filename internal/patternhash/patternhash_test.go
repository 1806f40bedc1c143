package patternhash

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevakavakians/kato/internal/model"
)

func TestName_DeterministicAndFortyHex(t *testing.T) {
	seq := model.Sequence{model.Event{"a", "b"}, model.Event{"c"}}

	n1 := Name(seq)
	n2 := Name(seq)

	assert.Equal(t, n1, n2)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{40}$`), n1)
}

func TestName_DiffersForDifferentSequences(t *testing.T) {
	a := model.Sequence{model.Event{"a"}}
	b := model.Sequence{model.Event{"b"}}

	assert.NotEqual(t, Name(a), Name(b))
}

func TestName_SensitiveToEventOrder(t *testing.T) {
	a := model.Sequence{model.Event{"a"}, model.Event{"b"}}
	b := model.Sequence{model.Event{"b"}, model.Event{"a"}}

	assert.NotEqual(t, Name(a), Name(b))
}
