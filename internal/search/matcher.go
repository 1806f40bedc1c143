// Package search implements the filter pipeline (spec §4.9) and the
// subsequence matcher (spec §4.10). No third-party library in the
// retrieval pack implements Ratcliff/Obershelp-style sequence matching;
// Match below follows spec §4.10's definition directly (the
// find-longest-matching-block recursion classic to difflib-style
// matchers), which is algorithmic rather than library-backed.
package search

import (
	"sort"

	"github.com/sevakavakians/kato/internal/model"
)

// Block is one matching run: k consecutive tokens starting at position
// aStart in the pattern stream and bStart in the STM stream (spec §4.10).
type Block struct {
	AStart int
	BStart int
	Len    int
}

// MatchResult is everything the matcher derives from aligning a
// pattern's flattened event stream against the STM's (spec §4.10).
type MatchResult struct {
	Blocks                []Block
	Similarity            float64
	FirstMatchEventIndex  int
	LastMatchEventIndex   int
	Matches               []string
	Missing               []string
	Extras                []string
	MatchedTokens         int
}

// Match aligns pattern and stm (whole event sequences) using the
// longest-common-subsequence definition of spec §4.10 and derives the
// temporal bounds and symbol sets used by the prediction assembler and
// metrics engine.
func Match(pattern, stm model.Sequence) MatchResult {
	a := pattern.Flatten()
	b := stm.Flatten()

	blocks := matchingBlocks(a, b)

	matched := 0
	for _, blk := range blocks {
		matched += blk.Len
	}

	var similarity float64
	if total := len(a) + len(b); total > 0 {
		similarity = 2 * float64(matched) / float64(total)
	}

	firstIdx, lastIdx := -1, -1
	if matched > 0 {
		firstPos := blocks[0].AStart
		lastBlk := blocks[len(blocks)-1]
		lastPos := lastBlk.AStart + lastBlk.Len - 1
		firstIdx = eventIndexForPosition(pattern, firstPos)
		lastIdx = eventIndexForPosition(pattern, lastPos)
	}

	stmSymbols := stm.Symbols()

	matchSet := make(map[string]struct{})
	for _, blk := range blocks {
		for i := 0; i < blk.Len; i++ {
			sym := a[blk.AStart+i]
			if _, inSTM := stmSymbols[sym]; inSTM {
				matchSet[sym] = struct{}{}
			}
		}
	}

	var missing, extras []string
	if firstIdx >= 0 {
		presentSymbols := make(map[string]struct{})
		for i := firstIdx; i <= lastIdx; i++ {
			for _, sym := range pattern[i] {
				presentSymbols[sym] = struct{}{}
			}
		}
		for sym := range presentSymbols {
			if _, ok := stmSymbols[sym]; !ok {
				missing = append(missing, sym)
			}
		}
		for sym := range stmSymbols {
			if _, ok := presentSymbols[sym]; !ok {
				extras = append(extras, sym)
			}
		}
	} else {
		for sym := range stmSymbols {
			extras = append(extras, sym)
		}
	}

	return MatchResult{
		Blocks:               blocks,
		Similarity:           similarity,
		FirstMatchEventIndex: firstIdx,
		LastMatchEventIndex:  lastIdx,
		Matches:              setToSortedSlice(matchSet),
		Missing:              setToSortedSlice(setFromSlice(missing)),
		Extras:               setToSortedSlice(setFromSlice(extras)),
		MatchedTokens:        matched,
	}
}

// Fragmentation is (number of blocks) - 1, 0 for a contiguous match (spec
// §4.10).
func (r MatchResult) Fragmentation() int {
	if len(r.Blocks) == 0 {
		return 0
	}
	return len(r.Blocks) - 1
}

// eventIndexForPosition returns the index of the event in seq containing
// the flattened-token position pos.
func eventIndexForPosition(seq model.Sequence, pos int) int {
	remaining := pos
	for i, e := range seq {
		if remaining < len(e) {
			return i
		}
		remaining -= len(e)
	}
	return len(seq) - 1
}

// matchingBlocks finds every non-overlapping matching block between a and
// b via the classic difflib recursive split, then merges adjacent
// same-diagonal blocks and sorts by position in a.
func matchingBlocks(a, b []string) []Block {
	b2j := make(map[string][]int, len(b))
	for j, tok := range b {
		b2j[tok] = append(b2j[tok], j)
	}

	var blocks []Block
	type span struct{ aLo, aHi, bLo, bHi int }
	queue := []span{{0, len(a), 0, len(b)}}

	for len(queue) > 0 {
		sp := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		blk, ok := longestMatch(a, b2j, sp.aLo, sp.aHi, sp.bLo, sp.bHi)
		if !ok {
			continue
		}
		blocks = append(blocks, blk)

		if sp.aLo < blk.AStart && sp.bLo < blk.BStart {
			queue = append(queue, span{sp.aLo, blk.AStart, sp.bLo, blk.BStart})
		}
		if blk.AStart+blk.Len < sp.aHi && blk.BStart+blk.Len < sp.bHi {
			queue = append(queue, span{blk.AStart + blk.Len, sp.aHi, blk.BStart + blk.Len, sp.bHi})
		}
	}

	sortBlocks(blocks)
	return mergeAdjacent(blocks)
}

// longestMatch finds the longest run of consecutive matching tokens
// within a[aLo:aHi] and b[bLo:bHi].
func longestMatch(a []string, b2j map[string][]int, aLo, aHi, bLo, bHi int) (Block, bool) {
	bestI, bestJ, bestSize := aLo, bLo, 0
	j2len := make(map[int]int)

	for i := aLo; i < aHi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < bLo {
				continue
			}
			if j >= bHi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bestSize {
				bestI, bestJ, bestSize = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}

	if bestSize == 0 {
		return Block{}, false
	}
	return Block{AStart: bestI, BStart: bestJ, Len: bestSize}, true
}

func sortBlocks(blocks []Block) {
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].AStart < blocks[j].AStart })
}

func mergeAdjacent(blocks []Block) []Block {
	if len(blocks) == 0 {
		return nil
	}
	out := []Block{blocks[0]}
	for _, blk := range blocks[1:] {
		last := &out[len(out)-1]
		if last.AStart+last.Len == blk.AStart && last.BStart+last.Len == blk.BStart {
			last.Len += blk.Len
			continue
		}
		out = append(out, blk)
	}
	return out
}

func setFromSlice(ss []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		out[s] = struct{}{}
	}
	return out
}

func setToSortedSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sortStrings(out)
	return out
}

func sortStrings(ss []string) {
	sort.Strings(ss)
}
