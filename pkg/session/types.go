// Package session implements the session manager (spec §4.15): the
// per-session header and STM/accumulator state that wraps one
// processor.Processor, persisted in the KV collaborator under
// "session:<id>" and friends.
package session

import (
	"time"

	"github.com/sevakavakians/kato/internal/model"
	"github.com/sevakavakians/kato/internal/processor"
	"github.com/sevakavakians/kato/pkg/config"
)

// Header is the durable, serializable part of a session: everything
// stored under the "session:<id>" key (spec §6 Collaborator B). A
// session's kb_id is immutable after creation (spec §4.15).
type Header struct {
	ID        string               `json:"id"`
	KBID      string               `json:"kb_id"`
	Config    config.SessionConfig `json:"config"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
}

// stateSnapshot is the durable mirror of session state, stored under
// "session:<id>:stm", ":emotives", ":metadata" (spec §4.15, §6). Manager
// fills in STM only; Emotives and Metadata are always left empty, so the
// accumulators are not recoverable from KV. It exists purely for
// crash-recovery visibility; the live STM and
// accumulator inside the bound Processor are the data of record for the
// lifetime of the process holding them.
type stateSnapshot struct {
	STM      model.Sequence     `json:"stm"`
	Emotives map[string]float64 `json:"emotives"`
	Metadata map[string][]string `json:"metadata"`
}

// Session bundles a session's durable header with its bound orchestrator.
type Session struct {
	Header
	Processor *processor.Processor
}
