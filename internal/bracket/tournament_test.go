package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayReproducesMatches(t *testing.T) {
	testCases := []struct {
		name    string
		factory func() (Bracket, error)
	}{
		{name: "single elimination", factory: func() (Bracket, error) { return NewDuel(7, DuelOptions{}) }},
		{name: "double elimination", factory: func() (Bracket, error) { return NewDuel(11, DuelOptions{Last: LB}) }},
		{name: "ffa", factory: func() (Bracket, error) {
			return NewFFA(16, FFAOptions{Sizes: []int{4, 4, 4}, Advancers: []int{2, 2}})
		}},
		{name: "group stage", factory: func() (Bracket, error) {
			return NewGroupStage(10, GroupStageOptions{GroupSize: 4, MeetTwice: true})
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			played, err := tc.factory()
			require.NoError(t, err)
			playAll(t, played, bySeed)
			require.True(t, played.IsDone())

			replayed, err := tc.factory()
			require.NoError(t, err)
			require.NoError(t, Replay(replayed, played.State()))

			assert.Equal(t, played.Matches(), replayed.Matches())
			assert.Equal(t, played.Results(), replayed.Results())
			assert.Equal(t, played.State(), replayed.State())
		})
	}
}

func TestReplayStopsAtRejectedEntry(t *testing.T) {
	d, err := NewDuel(4, DuelOptions{})
	require.NoError(t, err)

	log := []StateElt{
		{Type: StateScore, ID: ID{S: WB, R: 1, M: 1}, Score: []float64{1, 0}},
		{Type: StateScore, ID: ID{S: WB, R: 1, M: 2}, Score: []float64{1, 1}},
		{Type: StateScore, ID: ID{S: WB, R: 2, M: 1}, Score: []float64{1, 0}},
	}
	assert.ErrorIs(t, Replay(d, log), ErrDraw)
	assert.Len(t, d.State(), 1)
}

func TestBracketQueries(t *testing.T) {
	d, err := NewDuel(4, DuelOptions{})
	require.NoError(t, err)

	assert.Equal(t, KindDuel, d.Kind())
	assert.Equal(t, 4, d.NumPlayers())
	assert.Equal(t, []int{WB, LB}, d.Sections())
	assert.Equal(t, 1, d.CurrentRound(WB))
	assert.Equal(t, 2, d.NextRound(WB))

	rounds := d.Rounds(WB)
	require.Len(t, rounds, 2)
	assert.Len(t, rounds[0], 2)
	assert.Len(t, rounds[1], 1)

	up, ok := d.Upcoming(1)
	require.True(t, ok)
	assert.Equal(t, ID{S: WB, R: 1, M: 1}, up.ID)

	require.NoError(t, d.Score(up.ID, []float64{3, 1}))
	up, ok = d.Upcoming(1)
	require.True(t, ok)
	assert.Equal(t, ID{S: WB, R: 2, M: 1}, up.ID)
	up, ok = d.Upcoming(4)
	require.True(t, ok)
	assert.Equal(t, ID{S: LB, R: 1, M: 1}, up.ID)

	assert.Len(t, d.MatchesFor(1), 2)
	assert.Equal(t, []int{1, 4}, d.Players(Filter{S: WB, R: 1, M: 1}))

	// returned matches are copies
	ms := d.Matches()
	ms[0].Players[0] = 99
	m, _ := d.FindMatch(ID{S: WB, R: 1, M: 1})
	assert.Equal(t, 1, m.Players[0])
}
