// Package config holds the recognized session configuration (spec §4.14)
// and the process-level connection configuration for the three external
// collaborators, read from environment variables by FromEnv.
package config

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/sevakavakians/kato/internal/stm"
	"github.com/sevakavakians/kato/internal/predict"
)

// SessionConfig holds every recognized per-session option (spec §4.14
// "Recognized configuration options"). Zero value is never used directly;
// start from DefaultSessionConfig.
type SessionConfig struct {
	RecallThreshold   float64              `yaml:"recall_threshold" json:"recall_threshold"`
	MaxPredictions    int                  `yaml:"max_predictions" json:"max_predictions"`
	Persistence       int                  `yaml:"persistence" json:"persistence"`
	MaxPatternLength  int                  `yaml:"max_pattern_length" json:"max_pattern_length"`
	STMMode           stm.Mode             `yaml:"stm_mode" json:"stm_mode"`
	RankSortAlgo      predict.RankSortAlgo `yaml:"rank_sort_algo" json:"rank_sort_algo"`
	SortSymbols       bool                 `yaml:"sort_symbols" json:"sort_symbols"`
	UseTokenMatching  bool                 `yaml:"use_token_matching" json:"use_token_matching"`
	SessionTTLSeconds int                  `yaml:"session_ttl_seconds" json:"session_ttl_seconds"`
	SessionAutoExtend bool                 `yaml:"session_auto_extend" json:"session_auto_extend"`
}

// DefaultSessionConfig returns the baseline session configuration; every
// session starts here and is patched via update_config (spec §4.14).
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		RecallThreshold:   0.1,
		MaxPredictions:    100,
		Persistence:       1,
		MaxPatternLength:  0,
		STMMode:           stm.Clear,
		RankSortAlgo:      predict.SortPotential,
		SortSymbols:       true,
		UseTokenMatching:  true,
		SessionTTLSeconds: 3600,
		SessionAutoExtend: true,
	}
}

// ApplyPatch merges patch onto c in place, overriding only the fields
// patch actually sets (spec §4.14 update_config "atomically patch session
// config"). Grounded in the teacher's use of dario.cat/mergo for
// built-in/user configuration merging (pkg/config/loader.go).
func (c *SessionConfig) ApplyPatch(patch SessionConfig, explicit map[string]bool) error {
	if explicit == nil {
		return mergo.Merge(c, patch, mergo.WithOverride)
	}

	// Field-precise merge: mergo's zero-value detection can't distinguish
	// "explicitly set to false/0" from "not present in patch", so apply
	// only the keys the caller actually named.
	if explicit["recall_threshold"] {
		if patch.RecallThreshold < 0 || patch.RecallThreshold > 1 {
			return fmt.Errorf("recall_threshold must be in [0,1]: got %v", patch.RecallThreshold)
		}
		c.RecallThreshold = patch.RecallThreshold
	}
	if explicit["max_predictions"] {
		if patch.MaxPredictions < 0 {
			return fmt.Errorf("max_predictions must be >= 0: got %v", patch.MaxPredictions)
		}
		c.MaxPredictions = patch.MaxPredictions
	}
	if explicit["persistence"] {
		if patch.Persistence < 1 {
			return fmt.Errorf("persistence must be >= 1: got %v", patch.Persistence)
		}
		c.Persistence = patch.Persistence
	}
	if explicit["max_pattern_length"] {
		if patch.MaxPatternLength < 0 {
			return fmt.Errorf("max_pattern_length must be >= 0: got %v", patch.MaxPatternLength)
		}
		c.MaxPatternLength = patch.MaxPatternLength
	}
	if explicit["stm_mode"] {
		if patch.STMMode != stm.Clear && patch.STMMode != stm.Rolling {
			return fmt.Errorf("stm_mode must be CLEAR or ROLLING: got %v", patch.STMMode)
		}
		c.STMMode = patch.STMMode
	}
	if explicit["rank_sort_algo"] {
		c.RankSortAlgo = patch.RankSortAlgo
	}
	if explicit["sort_symbols"] {
		c.SortSymbols = patch.SortSymbols
	}
	if explicit["use_token_matching"] {
		c.UseTokenMatching = patch.UseTokenMatching
	}
	if explicit["session_ttl_seconds"] {
		if patch.SessionTTLSeconds < 0 {
			return fmt.Errorf("session_ttl_seconds must be >= 0: got %v", patch.SessionTTLSeconds)
		}
		c.SessionTTLSeconds = patch.SessionTTLSeconds
	}
	if explicit["session_auto_extend"] {
		c.SessionAutoExtend = patch.SessionAutoExtend
	}
	return nil
}
