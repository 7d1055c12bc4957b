package bracket

import (
	"math"
	"slices"
)

type Kind string

const (
	KindDuel       Kind = "duel"
	KindFFA        Kind = "ffa"
	KindGroupStage Kind = "groupstage"
)

// Bracket is the contract shared by every topology. The set of
// implementations is closed: *Duel, *FFA and *GroupStage.
type Bracket interface {
	Kind() Kind
	NumPlayers() int

	// Label renders a match id in the topology's own notation.
	Label(id ID) string

	Matches() []Match
	FindMatch(id ID) (Match, bool)
	FindMatches(f Filter) []Match
	Rounds(section int) [][]Match
	Sections() []int
	CurrentRound(section int) int
	NextRound(section int) int
	MatchesFor(seed int) []Match
	Upcoming(seed int) (Match, bool)
	Players(f Filter) []int

	Score(id ID, score []float64) error
	Unscorable(id ID, score []float64, allowPast bool) error
	Results() []Result
	IsDone() bool
	State() []StateElt

	sealed()
}

// variant is what each topology plugs into base.
type variant interface {
	progress(m *Match)
	safe(m *Match) bool
	verify(m *Match, score []float64) error
	initResult(seed int) Result
	stats(res []Result, m *Match)
	sort(res []Result) []Result
	isDone() bool
	label(id ID) string
}

// base owns match storage and the score log. Topologies embed it and
// install themselves as v.
type base struct {
	kind       Kind
	numPlayers int
	matches    []Match
	state      []StateElt
	v          variant
}

func newBase(kind Kind, numPlayers int, matches []Match, v variant) base {
	slices.SortFunc(matches, func(a, b Match) int { return CompareIDs(a.ID, b.ID) })
	return base{kind: kind, numPlayers: numPlayers, matches: matches, v: v}
}

func (b *base) sealed() {}

func (b *base) Kind() Kind        { return b.kind }
func (b *base) NumPlayers() int   { return b.numPlayers }
func (b *base) Label(id ID) string { return b.v.label(id) }

func (b *base) State() []StateElt {
	out := make([]StateElt, len(b.state))
	for i, s := range b.state {
		out[i] = StateElt{Type: s.Type, ID: s.ID, Score: slices.Clone(s.Score)}
	}
	return out
}

func (b *base) Matches() []Match {
	out := make([]Match, len(b.matches))
	for i := range b.matches {
		out[i] = b.matches[i].clone()
	}
	return out
}

// find returns a pointer into the match storage, or nil.
func (b *base) find(id ID) *Match {
	i, ok := slices.BinarySearchFunc(b.matches, id, func(m Match, id ID) int {
		return CompareIDs(m.ID, id)
	})
	if !ok {
		return nil
	}
	return &b.matches[i]
}

func (b *base) filter(f Filter) []*Match {
	var out []*Match
	for i := range b.matches {
		if f.matches(b.matches[i].ID) {
			out = append(out, &b.matches[i])
		}
	}
	return out
}

func (b *base) FindMatch(id ID) (Match, bool) {
	m := b.find(id)
	if m == nil {
		return Match{}, false
	}
	return m.clone(), true
}

func (b *base) FindMatches(f Filter) []Match {
	return cloneAll(b.filter(f))
}

func (b *base) Sections() []int {
	var out []int
	for _, m := range b.matches {
		if !slices.Contains(out, m.ID.S) {
			out = append(out, m.ID.S)
		}
	}
	return out
}

// Rounds groups the matches of a section by round, in round order.
// Section 0 means every section.
func (b *base) Rounds(section int) [][]Match {
	byRound := map[int][]*Match{}
	var rounds []int
	for _, m := range b.filter(Filter{S: section}) {
		if _, ok := byRound[m.ID.R]; !ok {
			rounds = append(rounds, m.ID.R)
		}
		byRound[m.ID.R] = append(byRound[m.ID.R], m)
	}
	slices.Sort(rounds)
	out := make([][]Match, len(rounds))
	for i, r := range rounds {
		out[i] = cloneAll(byRound[r])
	}
	return out
}

// CurrentRound is the lowest round of the section that still has an
// unscored match, or 0 when the section is complete.
func (b *base) CurrentRound(section int) int {
	cur := 0
	for _, m := range b.filter(Filter{S: section}) {
		if !m.Scored() && (cur == 0 || m.ID.R < cur) {
			cur = m.ID.R
		}
	}
	return cur
}

func (b *base) NextRound(section int) int {
	cur := b.CurrentRound(section)
	if cur == 0 {
		return 0
	}
	if len(b.filter(Filter{S: section, R: cur + 1})) == 0 {
		return 0
	}
	return cur + 1
}

func (b *base) MatchesFor(seed int) []Match {
	var out []Match
	for i := range b.matches {
		if b.matches[i].Has(seed) {
			out = append(out, b.matches[i].clone())
		}
	}
	return out
}

// Upcoming is the first unscored match the seed has been placed in.
func (b *base) Upcoming(seed int) (Match, bool) {
	for i := range b.matches {
		m := &b.matches[i]
		if m.Has(seed) && !m.Scored() {
			return m.clone(), true
		}
	}
	return Match{}, false
}

// Players lists the distinct seeds placed in the filtered matches.
func (b *base) Players(f Filter) []int {
	var out []int
	for _, m := range b.filter(f) {
		for _, p := range m.Players {
			if p > Empty && !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Unscorable explains why score cannot be applied to id, or returns nil.
// Past matches may only be re-scored when allowPast is set or when the
// topology considers the rescore safe.
func (b *base) Unscorable(id ID, score []float64, allowPast bool) error {
	m := b.find(id)
	if m == nil {
		return reject(id, ErrMatchNotFound, "")
	}
	if !m.Playable() {
		return reject(id, ErrNotPlayable, "")
	}
	if len(score) != len(m.Players) {
		return reject(id, ErrInvalidScore, "scores must have length %d", len(m.Players))
	}
	for _, s := range score {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return reject(id, ErrInvalidScore, "")
		}
	}
	if !allowPast && m.Scored() && !b.v.safe(m) {
		return reject(id, ErrUnsafeRescore, "")
	}
	return b.v.verify(m, score)
}

// Score applies a score, records it in the log and lets the topology
// propagate the outcome. Past-rescoring safety is the caller's concern;
// check Unscorable with allowPast=false first to enforce it.
func (b *base) Score(id ID, score []float64) error {
	if err := b.Unscorable(id, score, true); err != nil {
		return err
	}
	m := b.find(id)
	m.Score = slices.Clone(score)
	b.state = append(b.state, StateElt{Type: StateScore, ID: id, Score: slices.Clone(score)})
	b.v.progress(m)
	return nil
}

func (b *base) Results() []Result {
	res := make([]Result, b.numPlayers)
	for i := range res {
		res[i] = b.v.initResult(i + 1)
	}
	for i := range b.matches {
		b.v.stats(res, &b.matches[i])
	}
	return b.v.sort(res)
}

func (b *base) IsDone() bool {
	return b.v.isDone()
}

func (b *base) allScored() bool {
	for i := range b.matches {
		if !b.matches[i].Scored() {
			return false
		}
	}
	return true
}

func (b *base) newResult(seed int) Result {
	return Result{Seed: seed, Pos: b.numPlayers}
}

// resultFor indexes res by seed. res is always seed-ordered while stats run.
func resultFor(res []Result, seed int) *Result {
	return &res[seed-1]
}

func cloneAll(ms []*Match) []Match {
	out := make([]Match, len(ms))
	for i, m := range ms {
		out[i] = m.clone()
	}
	return out
}

// Replay scores every entry of log in order. It stops at the first
// rejected entry.
func Replay(b Bracket, log []StateElt) error {
	for _, s := range log {
		if s.Type != StateScore {
			continue
		}
		if err := b.Score(s.ID, s.Score); err != nil {
			return err
		}
	}
	return nil
}

// validateSeeds checks that the round one groups use every seed 1..n once.
func validateSeeds(groups [][]int, n int) error {
	seen := make([]bool, n+1)
	count := 0
	for _, g := range groups {
		for _, s := range g {
			if s < 1 || s > n || seen[s] {
				return invalidConfig("seed %d is out of range or duplicated", s)
			}
			seen[s] = true
			count++
		}
	}
	if count != n {
		return invalidConfig("expected %d seeds, got %d", n, count)
	}
	return nil
}
