package stm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevakavakians/kato/internal/model"
)

func TestSTM_Append(t *testing.T) {
	t.Run("reports no auto-learn when threshold disabled", func(t *testing.T) {
		s := New(0, Clear)
		should := s.Append(model.Event{"a"})
		assert.False(t, should)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("crosses auto-learn threshold at max_pattern_length", func(t *testing.T) {
		s := New(2, Clear)
		assert.False(t, s.Append(model.Event{"a"}))
		assert.True(t, s.Append(model.Event{"b"}))
	})

	t.Run("total strings counts symbols across events", func(t *testing.T) {
		s := New(0, Clear)
		s.Append(model.Event{"a", "b"})
		s.Append(model.Event{"c"})
		assert.Equal(t, 3, s.TotalStrings())
	})
}

func TestSTM_AfterLearn(t *testing.T) {
	t.Run("CLEAR empties STM", func(t *testing.T) {
		s := New(0, Clear)
		s.Append(model.Event{"a"})
		s.AfterLearn()
		assert.Equal(t, 0, s.Len())
	})

	t.Run("ROLLING drops only the oldest event", func(t *testing.T) {
		s := New(0, Rolling)
		s.Append(model.Event{"a"})
		s.Append(model.Event{"b"})
		s.Append(model.Event{"c"})
		s.AfterLearn()
		require.Equal(t, 2, s.Len())
		assert.Equal(t, model.Event{"b"}, s.Events()[0])
		assert.Equal(t, model.Event{"c"}, s.Events()[1])
	})

	t.Run("ROLLING on a single-event STM empties it", func(t *testing.T) {
		s := New(0, Rolling)
		s.Append(model.Event{"a"})
		s.AfterLearn()
		assert.Equal(t, 0, s.Len())
	})
}

func TestSTM_Clear(t *testing.T) {
	s := New(0, Clear)
	s.Append(model.Event{"a"})
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.TotalStrings())
}

func TestSTM_Configure(t *testing.T) {
	s := New(0, Clear)
	s.Configure(5, Rolling)
	assert.Equal(t, 5, s.MaxPatternLength())
	assert.Equal(t, Rolling, s.Mode())

	t.Run("empty mode leaves the current mode unchanged", func(t *testing.T) {
		s.Configure(3, "")
		assert.Equal(t, Rolling, s.Mode())
		assert.Equal(t, 3, s.MaxPatternLength())
	})
}

func TestNew_DefaultsModeToClear(t *testing.T) {
	s := New(0, "")
	assert.Equal(t, Clear, s.Mode())
}
