package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevakavakians/kato/internal/predict"
	"github.com/sevakavakians/kato/internal/stm"
)

func TestDefaultSessionConfig(t *testing.T) {
	cfg := DefaultSessionConfig()

	assert.Equal(t, 0.1, cfg.RecallThreshold)
	assert.Equal(t, stm.Clear, cfg.STMMode)
	assert.Equal(t, predict.SortPotential, cfg.RankSortAlgo)
	assert.True(t, cfg.SortSymbols)
	assert.True(t, cfg.SessionAutoExtend)
}

func TestApplyPatch_ExplicitOnlyTouchesNamedFields(t *testing.T) {
	cfg := DefaultSessionConfig()

	err := cfg.ApplyPatch(SessionConfig{RecallThreshold: 0.5}, map[string]bool{"recall_threshold": true})

	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.RecallThreshold)
	assert.Equal(t, 100, cfg.MaxPredictions) // untouched, still the default
}

func TestApplyPatch_RejectsOutOfRangeRecallThreshold(t *testing.T) {
	cfg := DefaultSessionConfig()

	err := cfg.ApplyPatch(SessionConfig{RecallThreshold: 1.5}, map[string]bool{"recall_threshold": true})

	assert.Error(t, err)
	assert.Equal(t, 0.1, cfg.RecallThreshold) // rejected patch leaves config unchanged
}

func TestApplyPatch_RejectsInvalidSTMMode(t *testing.T) {
	cfg := DefaultSessionConfig()

	err := cfg.ApplyPatch(SessionConfig{STMMode: "BOGUS"}, map[string]bool{"stm_mode": true})

	assert.Error(t, err)
}

func TestApplyPatch_RejectsSubOneQuotaPersistence(t *testing.T) {
	cfg := DefaultSessionConfig()

	err := cfg.ApplyPatch(SessionConfig{Persistence: 0}, map[string]bool{"persistence": true})

	assert.Error(t, err)
}

func TestApplyPatch_AcceptsValidSTMModeSwitch(t *testing.T) {
	cfg := DefaultSessionConfig()

	err := cfg.ApplyPatch(SessionConfig{STMMode: stm.Rolling}, map[string]bool{"stm_mode": true})

	require.NoError(t, err)
	assert.Equal(t, stm.Rolling, cfg.STMMode)
}

func TestApplyPatch_NilExplicitMergesWholeStruct(t *testing.T) {
	cfg := DefaultSessionConfig()
	patch := cfg
	patch.MaxPredictions = 42

	err := cfg.ApplyPatch(patch, nil)

	require.NoError(t, err)
	assert.Equal(t, 42, cfg.MaxPredictions)
}
