package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevakavakians/kato/internal/model"
)

type fakeSymbolizer struct{ next string }

func (f fakeSymbolizer) Symbolize(v model.Vector) (string, error) {
	return f.next, nil
}

func TestEvent_SortsSymbolsByDefault(t *testing.T) {
	e, err := Event([]string{"c", "a", "b"}, nil, fakeSymbolizer{}, true)
	require.NoError(t, err)
	assert.Equal(t, model.Event{"a", "b", "c"}, e)
}

func TestEvent_PreservesOrderWhenSortDisabled(t *testing.T) {
	e, err := Event([]string{"c", "a", "b"}, nil, fakeSymbolizer{}, false)
	require.NoError(t, err)
	assert.Equal(t, model.Event{"c", "a", "b"}, e)
}

func TestEvent_InterleavesVectorSymbols(t *testing.T) {
	e, err := Event([]string{"b"}, []model.Vector{{1, 2, 3}}, fakeSymbolizer{next: "VCTR|abc"}, true)
	require.NoError(t, err)
	assert.Equal(t, model.Event{"VCTR|abc", "b"}, e)
}
