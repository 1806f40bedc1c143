// Package predict implements temporal segmentation, the metrics engine,
// and the ranker (spec §4.11-4.13): turning a filter pipeline candidate
// into a fully-scored Prediction.
package predict

import (
	"github.com/sevakavakians/kato/internal/model"
	"github.com/sevakavakians/kato/internal/search"
)

// Assemble partitions a candidate's event sequence into past/present/future
// around its matched span (spec §4.11). Any event containing a matched
// symbol is entirely in present; past and future events are pristine.
func Assemble(c search.Candidate) model.Prediction {
	seq := c.Pattern.Sequence
	first := c.Match.FirstMatchEventIndex
	last := c.Match.LastMatchEventIndex

	return model.Prediction{
		PatternName: c.Pattern.Name,
		Past:        seq[:first].Clone(),
		Present:     seq[first : last+1].Clone(),
		Future:      seq[last+1:].Clone(),

		Matches: c.Match.Matches,
		Missing: c.Match.Missing,
		Extras:  c.Match.Extras,

		Similarity:    c.Match.Similarity,
		Fragmentation: c.Match.Fragmentation(),

		Frequency: c.Pattern.Freq,
		Emotives:  c.Pattern.Emotives,
		Metadata:  c.Pattern.Metadata,
	}
}
