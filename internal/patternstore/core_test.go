package patternstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevakavakians/kato/internal/model"
	"github.com/sevakavakians/kato/internal/patternhash"
)

func TestBuildCore_DerivesIdentityAndBands(t *testing.T) {
	seq := model.Sequence{model.Event{"a", "b"}, model.Event{"c"}}

	core := BuildCore(seq)

	assert.Equal(t, patternhash.Name(seq), core.Name)
	assert.Equal(t, 2, core.Length)
	assert.Equal(t, "a", core.FirstToken)
	assert.Equal(t, "c", core.LastToken)
	assert.Equal(t, 3, core.TokenCount)
	require.NotEmpty(t, core.MinHash)
	require.NotEmpty(t, core.LSHBands)
}

func TestBuildCore_DeterministicAcrossCalls(t *testing.T) {
	seq := model.Sequence{model.Event{"x"}, model.Event{"y"}}

	assert.Equal(t, BuildCore(seq), BuildCore(seq))
}
