// Package stm implements the short-term memory buffer (spec §4.3): an
// ordered sequence of events with a bounded or unbounded length policy and
// a clear-after-learn or rolling-window transition policy.
package stm

import "github.com/sevakavakians/kato/internal/model"

// Mode selects the STM transition applied after a learn (spec §4.3,
// §4.14 "stm_mode").
type Mode string

const (
	// Clear empties STM entirely after learn.
	Clear Mode = "CLEAR"
	// Rolling keeps a sliding window, dropping only the oldest event.
	Rolling Mode = "ROLLING"
)

// STM is an append-only event buffer owned exclusively by one session
// (spec §3 "Ownership").
type STM struct {
	events            model.Sequence
	maxPatternLength  int // 0 disables auto-learn
	mode              Mode
}

// New creates an empty STM. maxPatternLength <= 0 disables auto-learn
// (spec §4.3 "Auto-learn trigger").
func New(maxPatternLength int, mode Mode) *STM {
	if mode == "" {
		mode = Clear
	}
	return &STM{maxPatternLength: maxPatternLength, mode: mode}
}

// Configure updates the auto-learn threshold and transition mode in
// place, used by update_config (spec §4.14).
func (s *STM) Configure(maxPatternLength int, mode Mode) {
	s.maxPatternLength = maxPatternLength
	if mode != "" {
		s.mode = mode
	}
}

// Append adds one event to the end of STM and reports whether the
// append crossed the auto-learn threshold (spec §4.3 "Auto-learn
// trigger": |STM| >= max_pattern_length after appending).
func (s *STM) Append(e model.Event) (shouldLearn bool) {
	s.events = append(s.events, e)
	return s.maxPatternLength > 0 && len(s.events) >= s.maxPatternLength
}

// AfterLearn applies the configured transition: CLEAR empties STM;
// ROLLING drops the oldest event (spec §4.3).
func (s *STM) AfterLearn() {
	switch s.mode {
	case Rolling:
		if len(s.events) > 0 {
			s.events = s.events[1:]
		}
	default:
		s.events = nil
	}
}

// Clear empties STM unconditionally (spec §4.14 clear_stm).
func (s *STM) Clear() {
	s.events = nil
}

// Events returns the current STM contents. The returned slice must be
// treated as read-only by callers that don't own the STM.
func (s *STM) Events() model.Sequence {
	return s.events
}

// Len returns the number of events currently buffered.
func (s *STM) Len() int {
	return len(s.events)
}

// TotalStrings returns the total count of symbols across all buffered
// events, the quantity spec §4.14/§7 gate learn and get_predictions on
// (StmTooShort requires >= 2).
func (s *STM) TotalStrings() int {
	return s.events.TokenCount()
}

// Mode returns the configured transition mode.
func (s *STM) Mode() Mode {
	return s.mode
}

// MaxPatternLength returns the configured auto-learn threshold.
func (s *STM) MaxPatternLength() int {
	return s.maxPatternLength
}
