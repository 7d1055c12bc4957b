package bracket

import "slices"

// Result is the per-seed summary produced by Results. Pos is the best
// position the seed is guaranteed to finish at or below; it is exact once
// the bracket is done. The GroupStage fields stay zero for other kinds.
type Result struct {
	Seed    int     `json:"seed"`
	Wins    int     `json:"wins"`
	For     float64 `json:"for"`
	Against float64 `json:"against"`
	Pos     int     `json:"pos"`

	GPos   int     `json:"gpos,omitempty"`
	Grp    int     `json:"grp,omitempty"`
	Pts    float64 `json:"pts,omitempty"`
	Draws  int     `json:"draws,omitempty"`
	Losses int     `json:"losses,omitempty"`
}

func (r Result) Diff() float64 {
	return r.For - r.Against
}

// compareRes orders by position, then score differential, then seed.
func compareRes(a, b Result) int {
	if a.Pos != b.Pos {
		return a.Pos - b.Pos
	}
	if c := cmpFloat(b.Diff(), a.Diff()); c != 0 {
		return c
	}
	return a.Seed - b.Seed
}

func sortResults(res []Result) {
	slices.SortStableFunc(res, compareRes)
}

// MatchTieCompute walks opponents sorted best-to-worst within one match and
// assigns positions with "1,2,2,4" skipping: equal scores share a position
// and the next distinct score jumps past the tied slots. Positions start
// after startPos. The input must already be sorted.
func MatchTieCompute(sorted []SeedScore, startPos int, cb func(seed, pos int)) {
	pos, ties := startPos, 0
	for i, s := range sorted {
		if i > 0 && s.Score == sorted[i-1].Score {
			ties++
		} else {
			pos += 1 + ties
			ties = 0
		}
		cb(s.Seed, pos)
	}
}

// ResTieCompute is MatchTieCompute over results, tying on an arbitrary
// comparable metric. res must be sorted consistently with metric.
func ResTieCompute[K comparable](res []*Result, startPos int, metric func(Result) K, cb func(r *Result, pos int)) {
	pos, ties := startPos, 0
	var prev K
	for i, r := range res {
		m := metric(*r)
		if i > 0 && m == prev {
			ties++
		} else {
			pos += 1 + ties
			ties = 0
		}
		prev = m
		cb(r, pos)
	}
}
