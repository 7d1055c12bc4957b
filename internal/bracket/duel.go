package bracket

import (
	"fmt"
	"slices"
)

// WO marks a walkover slot: a bye that never plays. Matches against a
// walkover are resolved when the opponent is placed.
const WO = -1

type DuelOptions struct {
	// Last is WB for single elimination and LB for double elimination.
	// Zero means WB.
	Last Section `json:"last,omitempty"`
	// Short drops the bronze final in single elimination and the bracket
	// reset final in double elimination.
	Short bool `json:"short,omitempty"`
}

// Duel is a single or double elimination bracket. In double elimination
// the winners bracket (WB) feeds its losers into the losers bracket (LB),
// and the LB champion meets the WB champion in a grand final.
type Duel struct {
	base
	opts DuelOptions
	p    int
}

var _ Bracket = (*Duel)(nil)

func NewDuel(numPlayers int, opts DuelOptions) (*Duel, error) {
	if opts.Last == 0 {
		opts.Last = WB
	}
	if opts.Last != WB && opts.Last != LB {
		return nil, invalidConfig("last bracket must be WB or LB")
	}
	if numPlayers < 2 {
		return nil, invalidConfig("number of players must be at least 2")
	}
	if opts.Last == LB && numPlayers < 4 {
		return nil, invalidConfig("double elimination needs at least 4 players")
	}

	p := 0
	for 1<<p < numPlayers {
		p++
	}

	var matches []Match
	var round1 [][]int
	for i, pair := range seedPairs(1 << p) {
		players := []int{pair[0], pair[1]}
		var real []int
		for j, s := range players {
			if s > numPlayers {
				players[j] = WO
			} else {
				real = append(real, s)
			}
		}
		round1 = append(round1, real)
		matches = append(matches, Match{ID: ID{S: WB, R: 1, M: i + 1}, Players: players})
	}
	if err := validateSeeds(round1, numPlayers); err != nil {
		return nil, err
	}

	for r := 2; r <= p; r++ {
		for m := 1; m <= 1<<(p-r); m++ {
			matches = append(matches, blank(WB, r, m))
		}
	}

	d := &Duel{opts: opts, p: p}
	if opts.Last == LB {
		for r := 1; r <= 2*p-2; r++ {
			for m := 1; m <= d.lbCount(r); m++ {
				matches = append(matches, blank(LB, r, m))
			}
		}
		matches = append(matches, blank(LB, 2*p-1, 1))
		if !opts.Short {
			matches = append(matches, blank(LB, 2*p, 1))
		}
	} else if d.hasBronze() {
		matches = append(matches, blank(LB, 1, 1))
	}

	d.base = newBase(KindDuel, numPlayers, matches, d)
	for _, m := range d.filter(Filter{S: WB, R: 1}) {
		d.walkover(m)
	}
	return d, nil
}

func blank(s, r, m int) Match {
	return Match{ID: ID{S: s, R: r, M: m}, Players: []int{Empty, Empty}}
}

// seedPairs returns the round one pairings of a power-of-two bracket using
// standard seeding, so the top two seeds can only meet in the final. It
// folds the seed list: every pass pairs each seed s with (count+1)-s.
func seedPairs(bracketSize int) [][2]int {
	if bracketSize < 2 {
		return nil
	}

	rounds := []int{1}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, currentCount+1-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}
	return pairs
}

func (d *Duel) Options() DuelOptions { return d.opts }

// Power is the number of winners bracket rounds.
func (d *Duel) Power() int { return d.p }

func (d *Duel) hasBronze() bool {
	return d.opts.Last == WB && !d.opts.Short && d.p >= 2
}

func (d *Duel) lbCount(r int) int {
	return 1 << (d.p - 1 - (r+1)/2)
}

func (d *Duel) grandFinal() ID { return ID{S: LB, R: 2*d.p - 1, M: 1} }
func (d *Duel) resetFinal() ID { return ID{S: LB, R: 2 * d.p, M: 1} }

func (d *Duel) isDouble() bool { return d.opts.Last == LB }

func (d *Duel) label(id ID) string {
	s := "WB"
	if id.S == LB {
		s = "LB"
	}
	return fmt.Sprintf("%s R%d M%d", s, id.R, id.M)
}

// right is where the winner of id goes.
func (d *Duel) right(id ID) (ID, int, bool) {
	r, m := id.R, id.M
	if id.S == WB {
		if r < d.p {
			return ID{S: WB, R: r + 1, M: (m + 1) / 2}, (m - 1) % 2, true
		}
		if d.isDouble() {
			return d.grandFinal(), 0, true
		}
		return ID{}, 0, false
	}
	if !d.isDouble() || r >= 2*d.p-1 {
		return ID{}, 0, false
	}
	if r == 2*d.p-2 {
		return d.grandFinal(), 1, true
	}
	if r%2 == 1 {
		return ID{S: LB, R: r + 1, M: m}, 1, true
	}
	return ID{S: LB, R: r + 1, M: (m + 1) / 2}, (m - 1) % 2, true
}

// down is where the loser of id goes. Losers of WB round r >= 2 drop into
// LB round 2r-2; the match order is reversed on even rounds so players do
// not meet the same opponents again straight away.
func (d *Duel) down(id ID) (ID, int, bool) {
	if id.S != WB {
		return ID{}, 0, false
	}
	r, m := id.R, id.M
	if !d.isDouble() {
		if d.hasBronze() && r == d.p-1 {
			return ID{S: LB, R: 1, M: 1}, (m - 1) % 2, true
		}
		return ID{}, 0, false
	}
	if r == 1 {
		return ID{S: LB, R: 1, M: (m + 1) / 2}, (m - 1) % 2, true
	}
	g := m
	if r%2 == 0 {
		g = 1<<(d.p-r) + 1 - m
	}
	return ID{S: LB, R: 2*r - 2, M: g}, 0, true
}

func (d *Duel) downstream(m *Match) []ID {
	var out []ID
	if id, _, ok := d.right(m.ID); ok {
		out = append(out, id)
	}
	if id, _, ok := d.down(m.ID); ok {
		out = append(out, id)
	}
	if d.isDouble() && !d.opts.Short && m.ID == d.grandFinal() {
		out = append(out, d.resetFinal())
	}
	return out
}

func winnerLoser(m *Match) (int, int) {
	if m.Score[1] > m.Score[0] {
		return m.Players[1], m.Players[0]
	}
	return m.Players[0], m.Players[1]
}

func hasWO(m *Match) bool {
	return slices.Contains(m.Players, WO)
}

func (d *Duel) progress(m *Match) {
	if d.isDouble() && m.ID == d.grandFinal() {
		if d.opts.Short {
			return
		}
		reset := d.find(d.resetFinal())
		if m.Score[1] > m.Score[0] {
			reset.Players = slices.Clone(m.Players)
		} else {
			reset.Players = []int{Empty, Empty}
			reset.Score = nil
		}
		return
	}

	w, l := winnerLoser(m)
	if id, slot, ok := d.right(m.ID); ok {
		d.place(id, slot, w)
	}
	if id, slot, ok := d.down(m.ID); ok {
		d.place(id, slot, l)
	}
}

func (d *Duel) place(id ID, slot, seed int) {
	n := d.find(id)
	n.Players[slot] = seed
	d.walkover(n)
}

// walkover resolves a filled match that contains a walkover: the real
// player (or a walkover, if both are) moves on without a score entry in
// the log.
func (d *Duel) walkover(m *Match) {
	if !hasWO(m) || slices.Contains(m.Players, Empty) {
		return
	}
	if m.Players[0] == WO && m.Players[1] != WO {
		m.Score = []float64{0, 1}
	} else {
		m.Score = []float64{1, 0}
	}
	d.progress(m)
}

// safe holds while no match fed by this one has been scored. Walkover
// matches are looked through since they are re-resolved on placement.
func (d *Duel) safe(m *Match) bool {
	for _, id := range d.downstream(m) {
		n := d.find(id)
		if n == nil || !n.Scored() {
			continue
		}
		if hasWO(n) && d.safe(n) {
			continue
		}
		return false
	}
	return true
}

func (d *Duel) verify(m *Match, score []float64) error {
	if score[0] == score[1] {
		return reject(m.ID, ErrDraw, "")
	}
	return nil
}

// isDone ignores the reset final when the WB champion won the grand final.
func (d *Duel) isDone() bool {
	for i := range d.matches {
		m := &d.matches[i]
		if m.Scored() {
			continue
		}
		if d.isDouble() && !d.opts.Short && m.ID == d.resetFinal() {
			gf := d.find(d.grandFinal())
			if gf.Scored() && gf.Score[0] > gf.Score[1] {
				continue
			}
		}
		return false
	}
	return true
}

func (d *Duel) initResult(seed int) Result {
	return d.newResult(seed)
}

// lbLossPos is where a loser of LB round r finishes: behind the champion,
// the grand finalist and one player per LB match still to come.
func (d *Duel) lbLossPos(r int) int {
	pos := 3
	for k := r + 1; k <= 2*d.p-2; k++ {
		pos += d.lbCount(k)
	}
	return pos
}

// lossPos bounds the final position of the loser of id. It is exact for
// eliminated players and the worst case for players who drop to the LB.
func (d *Duel) lossPos(id ID) int {
	if id.S == WB {
		if d.isDouble() {
			to, _, _ := d.down(id)
			return d.lossPos(to)
		}
		if d.hasBronze() && id.R == d.p-1 {
			return 4
		}
		return 1<<(d.p-id.R) + 1
	}
	if !d.isDouble() {
		return 4
	}
	if id.R >= 2*d.p-1 {
		return 2
	}
	return d.lbLossPos(id.R)
}

// winPos bounds the final position of the winner of id by assuming they
// lose their next match.
func (d *Duel) winPos(m *Match) int {
	id := m.ID
	switch {
	case !d.isDouble() && id.S == LB:
		return 3
	case d.isDouble() && id == d.grandFinal():
		if !d.opts.Short && m.Score[1] > m.Score[0] {
			return 2
		}
		return 1
	case id.S == LB && id.R == 2*d.p:
		return 1
	}
	next, _, ok := d.right(id)
	if !ok {
		return 1
	}
	return d.lossPos(next)
}

func (d *Duel) stats(res []Result, m *Match) {
	if !m.Scored() {
		return
	}
	w, l := winnerLoser(m)
	if w > Empty {
		r := resultFor(res, w)
		r.Pos = min(r.Pos, d.winPos(m))
	}
	if hasWO(m) {
		return
	}

	lr := resultFor(res, l)
	if d.isDouble() && m.ID == d.grandFinal() && !d.opts.Short && m.Score[1] > m.Score[0] {
		lr.Pos = min(lr.Pos, 2)
	} else {
		lr.Pos = min(lr.Pos, d.lossPos(m.ID))
	}

	resultFor(res, w).Wins++
	for i, s := range m.Players {
		r := resultFor(res, s)
		r.For += m.Score[i]
		r.Against += m.Score[1-i]
	}
}

func (d *Duel) sort(res []Result) []Result {
	for i := range res {
		res[i].Pos = min(res[i].Pos, d.numPlayers)
	}
	sortResults(res)
	return res
}
