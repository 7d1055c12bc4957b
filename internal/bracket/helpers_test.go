package bracket

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// bySeed scores a match so that lower seeds always finish ahead.
func bySeed(m Match) []float64 {
	score := make([]float64, len(m.Players))
	for i, p := range m.Players {
		score[i] = float64(100 - p)
	}
	return score
}

// playAll scores every playable match until nothing is left to play.
func playAll(t *testing.T, b Bracket, scorer func(Match) []float64) {
	t.Helper()
	for {
		progressed := false
		for _, m := range b.Matches() {
			if m.Scored() || !m.Playable() {
				continue
			}
			require.NoError(t, b.Score(m.ID, scorer(m)), "scoring %s", m.ID)
			progressed = true
		}
		if !progressed {
			return
		}
	}
}

func positions(res []Result) []int {
	out := make([]int, len(res))
	for i, r := range res {
		out[i] = r.Pos
	}
	slices.Sort(out)
	return out
}

func resultOf(t *testing.T, res []Result, seed int) Result {
	t.Helper()
	for _, r := range res {
		if r.Seed == seed {
			return r
		}
	}
	require.Failf(t, "missing result", "seed %d", seed)
	return Result{}
}

// scorePair scores the match between a and b, giving sa to a and sb to b.
func scorePair(t *testing.T, b Bracket, a, bb int, sa, sb float64) ID {
	t.Helper()
	for _, m := range b.Matches() {
		if !m.Has(a) || !m.Has(bb) {
			continue
		}
		score := []float64{sa, sb}
		if m.Players[0] == bb {
			score = []float64{sb, sa}
		}
		require.NoError(t, b.Score(m.ID, score))
		return m.ID
	}
	require.Failf(t, "missing match", "%d vs %d", a, bb)
	return ID{}
}
