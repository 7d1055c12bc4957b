package bracket

import (
	"fmt"
	"slices"
)

// Empty marks an unfilled participant slot.
const Empty = 0

// Section numbers used by Duel. FFA always uses section 1 and
// GroupStage uses the group number.
type Section = int

const (
	WB Section = 1
	LB Section = 2
)

// ID locates a match by section, round and match number (all 1-indexed).
type ID struct {
	S int `json:"s"`
	R int `json:"r"`
	M int `json:"m"`
}

func (id ID) String() string {
	return fmt.Sprintf("S%d R%d M%d", id.S, id.R, id.M)
}

// Less orders ids by section, then round, then match.
func (id ID) Less(o ID) bool {
	return CompareIDs(id, o) < 0
}

func CompareIDs(a, b ID) int {
	if a.S != b.S {
		return a.S - b.S
	}
	if a.R != b.R {
		return a.R - b.R
	}
	return a.M - b.M
}

// Filter is a partial ID. Zero fields match anything.
type Filter struct {
	S int
	R int
	M int
}

func (f Filter) matches(id ID) bool {
	return (f.S == 0 || f.S == id.S) && (f.R == 0 || f.R == id.R) && (f.M == 0 || f.M == id.M)
}

type Match struct {
	ID ID `json:"id"`

	// Players holds seed numbers. Empty (0) is an unfilled slot.
	Players []int `json:"p"`

	// Score is nil until the match has been scored.
	Score []float64 `json:"m,omitempty"`

	Data any `json:"data,omitempty"`
}

// Playable reports whether every slot holds a real seed.
func (m *Match) Playable() bool {
	for _, p := range m.Players {
		if p <= Empty {
			return false
		}
	}
	return true
}

func (m *Match) Scored() bool {
	return m.Score != nil
}

func (m *Match) Has(seed int) bool {
	return slices.Contains(m.Players, seed)
}

func (m Match) clone() Match {
	c := m
	c.Players = slices.Clone(m.Players)
	if m.Score != nil {
		c.Score = slices.Clone(m.Score)
	}
	return c
}

// SeedScore pairs a seed with the score it got in one match.
type SeedScore struct {
	Seed  int
	Score float64
}

// zip pairs players with scores in slot order.
func zip(m *Match) []SeedScore {
	out := make([]SeedScore, len(m.Players))
	for i, p := range m.Players {
		out[i] = SeedScore{Seed: p, Score: m.Score[i]}
	}
	return out
}

// sortedZip returns players best-to-worst. The sort is stable so equal
// scores keep slot order.
func sortedZip(m *Match, lowerIsBetter bool) []SeedScore {
	z := zip(m)
	slices.SortStableFunc(z, func(a, b SeedScore) int {
		if lowerIsBetter {
			return cmpFloat(a.Score, b.Score)
		}
		return cmpFloat(b.Score, a.Score)
	})
	return z
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// StateElt is one entry of the append-only score log. Replaying the log
// on a freshly constructed bracket reproduces its matches exactly.
type StateElt struct {
	Type  string    `json:"type"`
	ID    ID        `json:"id"`
	Score []float64 `json:"score"`
}

const StateScore = "score"
