package bracket

import (
	"fmt"
	"slices"
)

type GroupStageOptions struct {
	// GroupSize defaults to everyone in one group.
	GroupSize int `json:"groupSize,omitempty"`
	// WinPoints and TiePoints default to 3 and 1 when both are zero.
	WinPoints   float64 `json:"winPoints,omitempty"`
	TiePoints   float64 `json:"tiePoints,omitempty"`
	ScoresBreak bool    `json:"scoresBreak,omitempty"`
	MeetTwice   bool    `json:"meetTwice,omitempty"`
}

func (o GroupStageOptions) withDefaults(np int) GroupStageOptions {
	if o.GroupSize == 0 {
		o.GroupSize = np
	}
	if o.WinPoints == 0 && o.TiePoints == 0 {
		o.WinPoints, o.TiePoints = 3, 1
	}
	return o
}

// GroupStage plays a round robin inside each group. Points are purely
// additive, so any match can be re-scored at any time.
type GroupStage struct {
	base
	opts      GroupStageOptions
	numGroups int
	groupOf   []int
}

var _ Bracket = (*GroupStage)(nil)

func NewGroupStage(numPlayers int, opts GroupStageOptions) (*GroupStage, error) {
	opts = opts.withDefaults(numPlayers)
	if numPlayers < 2 {
		return nil, invalidConfig("number of players must be at least 2")
	}
	if opts.GroupSize < 2 {
		return nil, invalidConfig("group size must be at least 2")
	}
	if opts.GroupSize > numPlayers {
		return nil, invalidConfig("group size cannot exceed the number of players")
	}
	if smallestGroupSize(numPlayers, opts.GroupSize) < 2 {
		return nil, invalidConfig("group size %d would leave a player alone in a group", opts.GroupSize)
	}

	groups := Groups(numPlayers, opts.GroupSize)
	if err := validateSeeds(groups, numPlayers); err != nil {
		return nil, err
	}

	g := &GroupStage{opts: opts, numGroups: len(groups), groupOf: make([]int, numPlayers+1)}
	var matches []Match
	for gi, group := range groups {
		for _, s := range group {
			g.groupOf[s] = gi + 1
		}
		for ri, rnd := range RoundRobin(group) {
			for mi, pair := range rnd {
				r := ri + 1
				if opts.MeetTwice {
					r = 2*ri + 1
				}
				matches = append(matches, Match{ID: ID{S: gi + 1, R: r, M: mi + 1}, Players: []int{pair[0], pair[1]}})
				if opts.MeetTwice {
					matches = append(matches, Match{ID: ID{S: gi + 1, R: r + 1, M: mi + 1}, Players: []int{pair[1], pair[0]}})
				}
			}
		}
	}
	g.base = newBase(KindGroupStage, numPlayers, matches, g)
	return g, nil
}

func (g *GroupStage) Options() GroupStageOptions { return g.opts }
func (g *GroupStage) NumGroups() int             { return g.numGroups }

// GroupFor returns the 1-indexed group of a seed.
func (g *GroupStage) GroupFor(seed int) int {
	if seed < 1 || seed >= len(g.groupOf) {
		return 0
	}
	return g.groupOf[seed]
}

func (g *GroupStage) label(id ID) string {
	return fmt.Sprintf("G%d R%d M%d", id.S, id.R, id.M)
}

func (g *GroupStage) safe(*Match) bool { return true }

func (g *GroupStage) verify(*Match, []float64) error { return nil }

func (g *GroupStage) progress(*Match) {}

func (g *GroupStage) isDone() bool { return g.allScored() }

func (g *GroupStage) initResult(seed int) Result {
	r := g.newResult(seed)
	r.Grp = g.GroupFor(seed)
	r.GPos = g.opts.GroupSize
	return r
}

func (g *GroupStage) stats(res []Result, m *Match) {
	if !m.Scored() {
		return
	}
	p0, p1 := resultFor(res, m.Players[0]), resultFor(res, m.Players[1])
	s0, s1 := m.Score[0], m.Score[1]
	switch {
	case s0 == s1:
		p0.Pts += g.opts.TiePoints
		p1.Pts += g.opts.TiePoints
		p0.Draws++
		p1.Draws++
	case s0 > s1:
		p0.Pts += g.opts.WinPoints
		p0.Wins++
		p1.Losses++
	default:
		p1.Pts += g.opts.WinPoints
		p1.Wins++
		p0.Losses++
	}
	p0.For += s0
	p0.Against += s1
	p1.For += s1
	p1.Against += s0
}

type groupMetric struct {
	pts  float64
	diff float64
}

func (g *GroupStage) metric(r Result) groupMetric {
	if g.opts.ScoresBreak {
		return groupMetric{pts: r.Pts, diff: r.Diff()}
	}
	return groupMetric{pts: r.Pts}
}

// compare orders by points, then score differential when ScoresBreak,
// then seed.
func (g *GroupStage) compare(a, b Result) int {
	if c := cmpFloat(b.Pts, a.Pts); c != 0 {
		return c
	}
	if g.opts.ScoresBreak {
		if c := cmpFloat(b.Diff(), a.Diff()); c != 0 {
			return c
		}
	}
	return a.Seed - b.Seed
}

// sort assigns gpos inside each group. Once the stage is done, pos is
// assigned layer by layer: all group winners first, then all runners-up,
// and so on, each layer ordered with the same comparator.
func (g *GroupStage) sort(res []Result) []Result {
	slices.SortStableFunc(res, g.compare)

	var layers [][]*Result
	for grp := 1; grp <= g.numGroups; grp++ {
		var members []*Result
		for i := range res {
			if res[i].Grp == grp {
				members = append(members, &res[i])
			}
		}
		ResTieCompute(members, 0, g.metric, func(r *Result, pos int) {
			r.GPos = pos
			for len(layers) < pos {
				layers = append(layers, nil)
			}
			layers[pos-1] = append(layers[pos-1], r)
		})
	}

	if g.IsDone() {
		cur := 0
		for _, layer := range layers {
			slices.SortStableFunc(layer, func(a, b *Result) int { return g.compare(*a, *b) })
			ResTieCompute(layer, cur, g.metric, func(r *Result, pos int) {
				r.Pos = pos
			})
			cur += len(layer)
		}
	}

	slices.SortStableFunc(res, func(a, b Result) int {
		if a.Pos != b.Pos {
			return a.Pos - b.Pos
		}
		return g.compare(a, b)
	})
	return res
}
