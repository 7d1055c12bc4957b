package bracket

import (
	"fmt"
	"slices"
)

type FFAOptions struct {
	// Sizes is the maximum match size of each round.
	Sizes []int `json:"sizes"`
	// Advancers is how many players advance from each match of every
	// round but the last.
	Advancers []int `json:"advancers"`
	// Limit caps how many players the final round ranks as winners.
	Limit              int  `json:"limit,omitempty"`
	LowerScoreIsBetter bool `json:"lowerScoreIsBetter,omitempty"`
}

// FFA is a multi-round free-for-all elimination. Only round one is seeded
// up front; every later round is re-seeded from the previous round's
// survivors once it has been fully scored.
type FFA struct {
	base
	opts FFAOptions
}

var _ Bracket = (*FFA)(nil)

func NewFFA(numPlayers int, opts FFAOptions) (*FFA, error) {
	if err := validateFFA(numPlayers, opts); err != nil {
		return nil, err
	}

	var matches []Match
	np := numPlayers
	for r, size := range opts.Sizes {
		groups := Groups(np, size)
		if r == 0 {
			if err := validateSeeds(groups, numPlayers); err != nil {
				return nil, err
			}
		}
		for i, g := range groups {
			players := g
			if r > 0 {
				players = make([]int, len(g))
			}
			matches = append(matches, Match{ID: ID{S: 1, R: r + 1, M: i + 1}, Players: slices.Clone(players)})
		}
		if r < len(opts.Advancers) {
			np = len(groups) * opts.Advancers[r]
		}
	}

	f := &FFA{opts: opts}
	f.opts.Sizes = slices.Clone(opts.Sizes)
	f.opts.Advancers = slices.Clone(opts.Advancers)
	f.base = newBase(KindFFA, numPlayers, matches, f)
	return f, nil
}

func validateFFA(np int, opts FFAOptions) error {
	if np < 2 {
		return invalidConfig("number of players must be at least 2")
	}
	if len(opts.Sizes) == 0 {
		return invalidConfig("sizes must be a non-empty list")
	}
	if len(opts.Advancers) != len(opts.Sizes)-1 {
		return invalidConfig("advancers must have exactly one entry less than sizes")
	}
	if opts.Limit < 0 {
		return invalidConfig("limit cannot be negative")
	}
	for i, adv := range opts.Advancers {
		size := opts.Sizes[i]
		if size < 2 {
			return invalidConfig("round %d group size must be at least 2", i+1)
		}
		numGroups := ceilDiv(np, size)
		gs := reducedGroupSize(np, size)
		if smallestGroupSize(np, size) < 2 {
			return invalidConfig("round %d would leave a player alone in a match", i+1)
		}
		if adv < 1 {
			return invalidConfig("round %d must advance at least one player per match", i+1)
		}
		if adv >= gs {
			return invalidConfig("round %d must advance fewer players than the group size", i+1)
		}
		if np%numGroups != 0 && adv >= gs-1 {
			return invalidConfig("round %d must advance fewer players than the smallest group", i+1)
		}
		np = numGroups * adv
	}

	last := opts.Sizes[len(opts.Sizes)-1]
	if last < 2 {
		return invalidConfig("final round group size must be at least 2")
	}
	if np < 2 {
		return invalidConfig("final round must have at least 2 players")
	}
	if smallestGroupSize(np, last) < 2 {
		return invalidConfig("final round would leave a player alone in a match")
	}
	if opts.Limit > 0 {
		if opts.Limit >= np {
			return invalidConfig("limit must be less than the %d players reaching the final round", np)
		}
		if opts.Limit%ceilDiv(np, last) != 0 {
			return invalidConfig("number of final matches must divide the limit")
		}
	}
	return nil
}

func (f *FFA) Options() FFAOptions {
	o := f.opts
	o.Sizes = slices.Clone(f.opts.Sizes)
	o.Advancers = slices.Clone(f.opts.Advancers)
	return o
}

func (f *FFA) label(id ID) string {
	return fmt.Sprintf("R%d M%d", id.R, id.M)
}

func (f *FFA) isFinal(round int) bool {
	return round == len(f.opts.Sizes)
}

func (f *FFA) advancers(round int) int {
	if round-1 < len(f.opts.Advancers) {
		return f.opts.Advancers[round-1]
	}
	return 0
}

// winners is how many top placers of a final-round match count as winners.
func (f *FFA) winners(round int) int {
	if f.opts.Limit > 0 {
		return f.opts.Limit / len(f.filter(Filter{R: round}))
	}
	return 1
}

func (f *FFA) sorted(m *Match) []SeedScore {
	return sortedZip(m, f.opts.LowerScoreIsBetter)
}

func (f *FFA) verify(m *Match, score []float64) error {
	cut := f.advancers(m.ID.R)
	if f.isFinal(m.ID.R) {
		if f.opts.Limit == 0 {
			return nil
		}
		cut = f.winners(m.ID.R)
	}
	if cut <= 0 || cut >= len(score) {
		return nil
	}
	s := slices.Clone(score)
	if f.opts.LowerScoreIsBetter {
		slices.Sort(s)
	} else {
		slices.SortFunc(s, func(a, b float64) int { return cmpFloat(b, a) })
	}
	if s[cut] == s[cut-1] {
		return reject(m.ID, ErrAmbiguousScore, "scores must unambiguously decide the top %d", cut)
	}
	return nil
}

// safe holds while the next round has not started.
func (f *FFA) safe(m *Match) bool {
	for _, n := range f.filter(Filter{R: m.ID.R + 1}) {
		if n.Scored() {
			return false
		}
	}
	return true
}

// progress re-seeds the next round once every match of this round has a
// score. Survivors are sorted by score across matches and redistributed
// with Groups, so the best survivors are spread like top seeds.
func (f *FFA) progress(m *Match) {
	adv := f.advancers(m.ID.R)
	if adv == 0 {
		return
	}
	round := f.filter(Filter{R: m.ID.R})
	for _, rm := range round {
		if !rm.Scored() {
			return
		}
	}

	var top []SeedScore
	for _, rm := range round {
		top = append(top, f.sorted(rm)[:adv]...)
	}
	slices.SortStableFunc(top, func(a, b SeedScore) int {
		if f.opts.LowerScoreIsBetter {
			return cmpFloat(a.Score, b.Score)
		}
		return cmpFloat(b.Score, a.Score)
	})

	next := f.filter(Filter{R: m.ID.R + 1})
	size := 0
	for _, n := range next {
		size = max(size, len(n.Players))
	}
	for i, g := range Groups(len(top), size) {
		players := make([]int, len(g))
		for j, s := range g {
			players[j] = top[s-1].Seed
		}
		next[i].Players = players
	}
}

func (f *FFA) initResult(seed int) Result {
	return f.newResult(seed)
}

func (f *FFA) stats(res []Result, m *Match) {
	if !m.Scored() {
		return
	}
	z := f.sorted(m)
	best := z[0].Score
	wins := f.advancers(m.ID.R)
	if f.isFinal(m.ID.R) {
		wins = f.winners(m.ID.R)
	}
	for j, s := range z {
		r := resultFor(res, s.Seed)
		r.For += s.Score
		if f.opts.LowerScoreIsBetter {
			r.Against += s.Score - best
		} else {
			r.Against += best - s.Score
		}
		if j < wins {
			r.Wins++
		}
	}
}

// sort bounds each player's position by the last round they reached, then
// refines it for fully scored rounds using in-match placement: the n-th
// placers of every match (after the advancers) share a position, and
// ties inside a match share the same placement.
func (f *FFA) sort(res []Result) []Result {
	for r := 1; r <= len(f.opts.Sizes); r++ {
		round := f.filter(Filter{R: r})
		var reached []int
		for _, m := range round {
			for _, p := range m.Players {
				if p > Empty {
					reached = append(reached, p)
				}
			}
		}
		for _, p := range reached {
			resultFor(res, p).Pos = len(reached)
		}

		complete := len(round) > 0
		for _, m := range round {
			if !m.Scored() {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}

		adv := f.advancers(r)
		var placers [][]int
		for _, m := range round {
			MatchTieCompute(f.sorted(m)[adv:], 0, func(seed, pos int) {
				for len(placers) < pos {
					placers = append(placers, nil)
				}
				placers[pos-1] = append(placers[pos-1], seed)
			})
		}
		cur := adv * len(round)
		for _, layer := range placers {
			for _, seed := range layer {
				resultFor(res, seed).Pos = cur + 1
			}
			cur += len(layer)
		}
	}
	slices.SortStableFunc(res, func(a, b Result) int {
		if a.Pos != b.Pos {
			return a.Pos - b.Pos
		}
		if f.opts.LowerScoreIsBetter {
			// Against is the margin behind each match winner, For the raw total.
			if c := cmpFloat(a.Against, b.Against); c != 0 {
				return c
			}
			if c := cmpFloat(a.For, b.For); c != 0 {
				return c
			}
			return a.Seed - b.Seed
		}
		if c := cmpFloat(b.Diff(), a.Diff()); c != 0 {
			return c
		}
		if c := cmpFloat(b.For, a.For); c != 0 {
			return c
		}
		return a.Seed - b.Seed
	})
	return res
}

func (f *FFA) isDone() bool {
	return f.allScored()
}
