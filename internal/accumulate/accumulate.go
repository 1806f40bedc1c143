// Package accumulate implements the emotive/metadata aggregator (spec
// §4.4): per-learn accumulation across STM observations, averaging for
// emotives and set-union for metadata.
package accumulate

import "sort"

// Accumulator collects emotive snapshots and metadata contributions
// across the observations that make up one learn cycle.
type Accumulator struct {
	emotiveSnapshots []map[string]float64
	metadata         map[string]map[string]struct{}
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{metadata: make(map[string]map[string]struct{})}
}

// Observe records one observation's emotive and metadata contribution.
// Empty maps are no-ops (spec §4.4 "On every observation with non-empty
// emotives/metadata").
func (a *Accumulator) Observe(emotives map[string]float64, metadata map[string][]string) {
	if len(emotives) > 0 {
		snap := make(map[string]float64, len(emotives))
		for k, v := range emotives {
			snap[k] = v
		}
		a.emotiveSnapshots = append(a.emotiveSnapshots, snap)
	}
	for k, vals := range metadata {
		set, ok := a.metadata[k]
		if !ok {
			set = make(map[string]struct{}, len(vals))
			a.metadata[k] = set
		}
		for _, v := range vals {
			set[v] = struct{}{}
		}
	}
}

// Reset clears all accumulated state (spec §4.14 clear_stm).
func (a *Accumulator) Reset() {
	a.emotiveSnapshots = nil
	a.metadata = make(map[string]map[string]struct{})
}

// EmotiveSnapshot computes the per-key arithmetic mean across every
// snapshot that contains that key, then drops zero-valued entries (spec
// §4.4 "On learn": mean, then storage-hygiene zero drop). Returns nil if
// no emotives were observed.
func (a *Accumulator) EmotiveSnapshot() map[string]float64 {
	if len(a.emotiveSnapshots) == 0 {
		return nil
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, snap := range a.emotiveSnapshots {
		for k, v := range snap {
			sums[k] += v
			counts[k]++
		}
	}

	out := make(map[string]float64, len(sums))
	for k, sum := range sums {
		mean := sum / float64(counts[k])
		if mean != 0 {
			out[k] = mean
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// MetadataSnapshot renders the accumulated per-key string sets as sorted
// slices, suitable for handing to the pattern writer.
func (a *Accumulator) MetadataSnapshot() map[string][]string {
	if len(a.metadata) == 0 {
		return nil
	}
	out := make(map[string][]string, len(a.metadata))
	for k, set := range a.metadata {
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		out[k] = vals
	}
	return out
}
