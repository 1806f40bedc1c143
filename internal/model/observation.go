package model

// Vector is a fixed-dimension real vector, typically a 768-dim embedding
// (spec §4.2). Dimension is configuration, not a compile-time constant.
type Vector []float64

// Observation is the tagged record modeling the source's loosely-typed
// observation payload (spec §9 "Dynamic-typed observations").
type Observation struct {
	Strings  []string
	Vectors  []Vector
	Emotives map[string]float64
	Metadata map[string][]string
	UniqueID string
}

// Empty reports whether the observation carries no strings and no vectors,
// the condition that makes it a no-op event (spec §4.14, InvalidObservation).
func (o Observation) Empty() bool {
	return len(o.Strings) == 0 && len(o.Vectors) == 0
}
