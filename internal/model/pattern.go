package model

import (
	"sort"
	"time"
)

// EmotiveSnapshot is a single {key -> value} map contributed by one learn
// (spec §4.4, §4.7).
type EmotiveSnapshot map[string]float64

// MetadataSet is a {key -> set-of-strings} accumulator, set-union merged on
// every learn (spec §4.4, §4.7).
type MetadataSet map[string]map[string]struct{}

// Merge set-unions other into m in place.
func (m MetadataSet) Merge(other map[string][]string) {
	for k, vals := range other {
		set, ok := m[k]
		if !ok {
			set = make(map[string]struct{}, len(vals))
			m[k] = set
		}
		for _, v := range vals {
			set[v] = struct{}{}
		}
	}
}

// ToStringLists renders the set-valued map into sorted string lists,
// suitable for serialization or presentation.
func (m MetadataSet) ToStringLists() map[string][]string {
	out := make(map[string][]string, len(m))
	for k, set := range m {
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		out[k] = vals
	}
	return out
}

// Pattern is the content-addressed record of a learned event sequence
// (spec §3).
type Pattern struct {
	Name      string   // lowercase 40-hex SHA1 over canonical E; identity.
	KBID      string   // partition/tenancy key.
	Sequence  Sequence // E
	Length    int      // number of events
	Freq      int64    // >= 1, number of (re-)learns
	Emotives  []EmotiveSnapshot
	Metadata  map[string][]string // key -> sorted set of values
	MinHash   []uint64
	LSHBands  []uint64
	FirstTok  string
	LastTok   string
	TokCount  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PresentationName returns the "PTRN|<name>" presentation affix (spec §6).
func (p *Pattern) PresentationName() string {
	return "PTRN|" + p.Name
}

