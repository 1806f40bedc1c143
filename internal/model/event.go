// Package model holds the core KATO data types shared across packages:
// events, patterns, observations, and predictions (spec §3).
package model

import "strings"

// Event is an ordered sequence of symbols. Stored events are always kept
// sorted lexicographically (the normalization invariant, spec §3 I3); this
// type does not enforce that itself, it is the job of package normalize.
type Event []string

// Sequence is an ordered sequence of events, n >= 1.
type Sequence []Event

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	out := make(Event, len(e))
	copy(out, e)
	return out
}

// Clone returns a deep copy of the sequence.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	for i, e := range s {
		out[i] = e.Clone()
	}
	return out
}

// Flatten concatenates every event left to right, preserving order. This is
// flat(E) from spec §4.10.
func (s Sequence) Flatten() []string {
	n := 0
	for _, e := range s {
		n += len(e)
	}
	out := make([]string, 0, n)
	for _, e := range s {
		out = append(out, e...)
	}
	return out
}

// Symbols returns the set of distinct symbols occurring anywhere in the
// sequence.
func (s Sequence) Symbols() map[string]struct{} {
	out := make(map[string]struct{})
	for _, e := range s {
		for _, sym := range e {
			out[sym] = struct{}{}
		}
	}
	return out
}

// TokenCount returns the total number of symbol occurrences across all
// events (not deduplicated).
func (s Sequence) TokenCount() int {
	n := 0
	for _, e := range s {
		n += len(e)
	}
	return n
}

// FirstToken returns the first symbol of the first non-empty event, or ""
// if the sequence has no symbols.
func (s Sequence) FirstToken() string {
	for _, e := range s {
		if len(e) > 0 {
			return e[0]
		}
	}
	return ""
}

// LastToken returns the last symbol of the last non-empty event, or "" if
// the sequence has no symbols.
func (s Sequence) LastToken() string {
	for i := len(s) - 1; i >= 0; i-- {
		if len(s[i]) > 0 {
			return s[i][len(s[i])-1]
		}
	}
	return ""
}

// CanonicalJSON renders the sequence as the minimal, deterministic JSON
// representation used for content hashing (spec §3 "name", §4.5). Events
// must already be sorted (normalization invariant); this function does not
// re-sort.
func (s Sequence) CanonicalJSON() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		for j, sym := range e {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			writeJSONEscaped(&b, sym)
			b.WriteByte('"')
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// writeJSONEscaped writes s into b, escaping the minimum set required by
// RFC 8259 (quote, backslash, and control characters). Non-ASCII bytes are
// passed through verbatim since UTF-8 is already valid JSON text.
func writeJSONEscaped(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString("\\u00")
				const hex = "0123456789abcdef"
				b.WriteByte(hex[(r>>4)&0xf])
				b.WriteByte(hex[r&0xf])
				continue
			}
			b.WriteRune(r)
		}
	}
}
