package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence_CloneIsIndependent(t *testing.T) {
	orig := Sequence{Event{"a", "b"}}
	clone := orig.Clone()
	clone[0][0] = "z"

	assert.Equal(t, "a", orig[0][0])
	assert.Equal(t, "z", clone[0][0])
}

func TestSequence_Flatten(t *testing.T) {
	seq := Sequence{Event{"a", "b"}, Event{"c"}}
	assert.Equal(t, []string{"a", "b", "c"}, seq.Flatten())
}

func TestSequence_Symbols(t *testing.T) {
	seq := Sequence{Event{"a", "b"}, Event{"b", "c"}}
	symbols := seq.Symbols()
	assert.Len(t, symbols, 3)
	assert.Contains(t, symbols, "a")
	assert.Contains(t, symbols, "c")
}

func TestSequence_TokenCount(t *testing.T) {
	seq := Sequence{Event{"a", "b"}, Event{"c"}}
	assert.Equal(t, 3, seq.TokenCount())
}

func TestSequence_FirstLastToken(t *testing.T) {
	seq := Sequence{Event{}, Event{"a", "b"}, Event{"c"}}
	assert.Equal(t, "a", seq.FirstToken())
	assert.Equal(t, "c", seq.LastToken())

	assert.Equal(t, "", Sequence{}.FirstToken())
	assert.Equal(t, "", Sequence{}.LastToken())
}

func TestSequence_CanonicalJSON(t *testing.T) {
	seq := Sequence{Event{"a", "b"}, Event{"c"}}
	assert.Equal(t, `[["a","b"],["c"]]`, seq.CanonicalJSON())
}

func TestSequence_CanonicalJSON_EscapesSpecialCharacters(t *testing.T) {
	seq := Sequence{Event{"a\"b", "c\\d", "e\nf"}}
	assert.Equal(t, `[["a\"b","c\\d","e\nf"]]`, seq.CanonicalJSON())
}

func TestSequence_CanonicalJSON_Empty(t *testing.T) {
	assert.Equal(t, `[]`, Sequence{}.CanonicalJSON())
}
