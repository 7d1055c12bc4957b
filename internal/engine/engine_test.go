package engine

import (
	"encoding/json"
	"testing"

	"github.com/Oozturn/oozturn-sub001/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wb11 = bracket.ID{S: bracket.WB, R: 1, M: 1}
	wb12 = bracket.ID{S: bracket.WB, R: 1, M: 2}
	wb21 = bracket.ID{S: bracket.WB, R: 2, M: 1}
	lb11 = bracket.ID{S: bracket.LB, R: 1, M: 1}
)

func startedDuel(t *testing.T) *Engine {
	t.Helper()
	e := withPlayers(t, duelSettings(), "a", "b", "c", "d")
	require.NoError(t, e.StartTournament(false))
	return e
}

func scoreMatch(t *testing.T, e *Engine, bracketIdx int, id bracket.ID, scores map[string]float64) {
	t.Helper()
	for opponent, v := range scores {
		require.NoError(t, e.Score(id, opponent, v, bracketIdx))
	}
}

func TestLifecycle(t *testing.T) {
	e := withPlayers(t, duelSettings(), "a", "b", "c", "d")
	assert.Equal(t, StatusOpen, e.Status())

	require.NoError(t, e.SetBalancing(true))
	assert.Equal(t, StatusBalancing, e.Status())
	require.NoError(t, e.AddPlayer("e"), "roster stays editable while balancing")
	require.NoError(t, e.RemovePlayer("e"))

	assert.ErrorIs(t, e.TogglePause(), ErrInvalidTransition)
	assert.ErrorIs(t, e.StopTournament(), ErrInvalidTransition)

	require.NoError(t, e.StartTournament(false))
	assert.Equal(t, StatusRunning, e.Status())
	assert.Len(t, e.Brackets(), 1)
	assert.ErrorIs(t, e.StartTournament(false), ErrInvalidTransition)
	assert.ErrorIs(t, e.SetBalancing(false), ErrInvalidTransition)

	require.NoError(t, e.TogglePause())
	assert.Equal(t, StatusPaused, e.Status())
	assert.ErrorIs(t, e.Score(wb11, "a", 1, 0), ErrNotRunning)
	require.NoError(t, e.TogglePause())

	scoreMatch(t, e, 0, wb11, map[string]float64{"a": 3, "d": 1})
	require.NoError(t, e.StopTournament())
	assert.Equal(t, StatusOpen, e.Status())
	assert.Empty(t, e.Brackets())
	assert.Empty(t, e.States())
}

func TestStartTournamentErrors(t *testing.T) {
	t.Run("no settings", func(t *testing.T) {
		e := withPlayers(t, nil, "a", "b")
		assert.ErrorIs(t, e.StartTournament(false), ErrNoSettings)
		assert.Equal(t, StatusOpen, e.Status())
	})

	t.Run("empty team", func(t *testing.T) {
		e := withPlayers(t, []Settings{{Type: bracket.KindDuel, UseTeams: true}}, "a", "b")
		require.NoError(t, e.AddTeam("red"))
		require.NoError(t, e.AddTeam("blue"))
		require.NoError(t, e.AddPlayerToTeam("a", "red"))
		assert.ErrorIs(t, e.StartTournament(false), ErrEmptyTeam)
	})

	t.Run("too few players", func(t *testing.T) {
		e := withPlayers(t, duelSettings(), "a")
		assert.ErrorIs(t, e.StartTournament(false), bracket.ErrInvalidConfig)
	})

	t.Run("later stage cannot be built", func(t *testing.T) {
		settings := []Settings{
			{Type: bracket.KindDuel, Short: true},
			{Type: bracket.KindGroupStage, GroupSize: 5},
		}
		e := withPlayers(t, settings, "a", "b", "c", "d")
		err := e.StartTournament(false)
		assert.ErrorIs(t, err, bracket.ErrInvalidConfig)
		assert.ErrorContains(t, err, "stage 2")
		assert.Equal(t, StatusOpen, e.Status())
		assert.Empty(t, e.Brackets())
	})

	t.Run("later stage sized by qualifiers", func(t *testing.T) {
		settings := []Settings{
			{Type: bracket.KindGroupStage, GroupSize: 3, Qualifiers: 2},
			{Type: bracket.KindGroupStage, GroupSize: 3},
		}
		e := withPlayers(t, settings, "a", "b", "c", "d", "e", "f")
		assert.ErrorIs(t, e.StartTournament(false), bracket.ErrInvalidConfig)
		assert.Equal(t, StatusOpen, e.Status())
	})
}

func TestTeamsAsOpponents(t *testing.T) {
	e := withPlayers(t, []Settings{{Type: bracket.KindDuel, UseTeams: true}}, "a", "b", "c", "d")
	require.NoError(t, e.AddTeam("red"))
	require.NoError(t, e.AddTeam("blue"))
	require.NoError(t, e.DistributePlayersOnTeams())
	require.NoError(t, e.StartTournament(false))

	scoreMatch(t, e, 0, wb11, map[string]float64{"red": 2, "blue": 1})
	assert.Equal(t, StatusDone, e.Status())

	res, err := e.Results(0)
	require.NoError(t, err)
	assert.Equal(t, "red", res[0].Opponent)
	assert.Equal(t, 1, res[0].Pos)
}

func TestPartialScoring(t *testing.T) {
	e := startedDuel(t)

	require.NoError(t, e.Score(wb11, "a", 10, 0))
	b, _ := e.Bracket(0)
	m, _ := b.FindMatch(wb11)
	assert.False(t, m.Scored())

	states := e.States()
	require.Len(t, states, 1)
	assert.Equal(t, []string{"a", "d"}, states[0].Opponents)
	require.NotNil(t, states[0].Scores[0])
	assert.Equal(t, 10.0, *states[0].Scores[0])
	assert.Nil(t, states[0].Scores[1])

	require.NoError(t, e.Score(wb11, "d", 0, 0))
	m, _ = b.FindMatch(wb11)
	assert.Equal(t, []float64{10, 0}, m.Score)

	toPlay, err := e.MatchesToPlay(0)
	require.NoError(t, err)
	require.Len(t, toPlay, 1)
	assert.Equal(t, wb12, toPlay[0].ID)
}

func TestScoreRejections(t *testing.T) {
	e := startedDuel(t)

	assert.ErrorIs(t, e.Score(wb11, "a", 1, 3), ErrBracketNotFound)
	assert.ErrorIs(t, e.Score(bracket.ID{S: 1, R: 9, M: 1}, "a", 1, 0), ErrMatchNotFound)
	assert.ErrorIs(t, e.Score(wb11, "b", 1, 0), ErrOpponentNotInMatch)
	assert.ErrorIs(t, e.Score(wb21, "a", 1, 0), bracket.ErrNotPlayable)

	require.NoError(t, e.Score(wb11, "a", 1, 0))
	err := e.Score(wb11, "d", 1, 0)
	assert.ErrorIs(t, err, bracket.ErrDraw)
	var verr *bracket.ValidationError
	assert.ErrorAs(t, err, &verr)

	states := e.States()
	require.Len(t, states, 1)
	assert.Nil(t, states[0].Scores[1], "rejected value is rolled back")
}

func TestUnsafeRescoreIsRejected(t *testing.T) {
	e := startedDuel(t)
	scoreMatch(t, e, 0, wb11, map[string]float64{"a": 3, "d": 1})
	scoreMatch(t, e, 0, wb12, map[string]float64{"b": 3, "c": 1})
	scoreMatch(t, e, 0, wb21, map[string]float64{"a": 3, "b": 1})

	err := e.Score(wb11, "d", 5, 0)
	assert.ErrorIs(t, err, bracket.ErrUnsafeRescore)
	assert.Equal(t, 1.0, *e.States()[0].Scores[1])
}

func TestRescoreDropsStalePartialStates(t *testing.T) {
	e := startedDuel(t)
	scoreMatch(t, e, 0, wb11, map[string]float64{"a": 3, "d": 1})
	scoreMatch(t, e, 0, wb12, map[string]float64{"b": 3, "c": 1})
	require.NoError(t, e.Score(wb21, "a", 5, 0))
	require.Len(t, e.States(), 3)

	require.NoError(t, e.Score(wb11, "d", 7, 0))

	states := e.States()
	require.Len(t, states, 2)
	assert.Equal(t, wb12, states[0].MatchID)
	assert.Equal(t, wb11, states[1].MatchID, "rescored state moves to the end")

	b, _ := e.Bracket(0)
	final, _ := b.FindMatch(wb21)
	assert.Equal(t, []int{4, 2}, final.Players)
}

func TestTournamentCompletes(t *testing.T) {
	e := startedDuel(t)
	scoreMatch(t, e, 0, wb11, map[string]float64{"a": 10, "d": 0})
	scoreMatch(t, e, 0, wb12, map[string]float64{"b": 0, "c": 10})
	scoreMatch(t, e, 0, wb21, map[string]float64{"a": 10, "c": 0})
	assert.Equal(t, StatusRunning, e.Status())
	scoreMatch(t, e, 0, lb11, map[string]float64{"d": 0, "b": 10})
	assert.Equal(t, StatusDone, e.Status())

	res, err := e.Results(0)
	require.NoError(t, err)
	var order []string
	for _, r := range res {
		order = append(order, r.Opponent)
	}
	assert.Equal(t, []string{"a", "c", "b", "d"}, order)

	assert.ErrorIs(t, e.Score(wb11, "a", 1, 0), ErrNotRunning)
}

func TestChainedStages(t *testing.T) {
	settings := []Settings{
		{Type: bracket.KindGroupStage, GroupSize: 3, Qualifiers: 4},
		{Type: bracket.KindDuel, Short: true},
	}
	e := withPlayers(t, settings, "a", "b", "c", "d", "e", "f")
	require.NoError(t, e.StartTournament(false))

	group, _ := e.Bracket(0)
	for _, m := range group.Matches() {
		a, _ := e.Opponent(0, m.Players[0])
		b, _ := e.Opponent(0, m.Players[1])
		// lower seed wins
		hi, lo := a, b
		if m.Players[1] < m.Players[0] {
			hi, lo = b, a
		}
		scoreMatch(t, e, 0, m.ID, map[string]float64{hi: 2, lo: 1})
	}

	require.Len(t, e.Brackets(), 2)
	assert.Equal(t, StatusRunning, e.Status())
	duel, _ := e.Bracket(1)
	assert.Equal(t, 4, duel.NumPlayers())

	first, err := e.Opponent(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", first)

	m, _ := group.FindMatch(bracket.ID{S: 1, R: 1, M: 1})
	opp, _ := e.Opponent(0, m.Players[0])
	assert.ErrorIs(t, e.Score(m.ID, opp, 0, 0), ErrStageClosed)

	for _, id := range []bracket.ID{wb11, wb12, wb21} {
		m, ok := duel.FindMatch(id)
		require.True(t, ok)
		a, _ := e.Opponent(1, m.Players[0])
		b, _ := e.Opponent(1, m.Players[1])
		scoreMatch(t, e, 1, id, map[string]float64{a: 1, b: 0})
	}
	assert.Equal(t, StatusDone, e.Status())

	res, err := e.Results(1)
	require.NoError(t, err)
	assert.Equal(t, "a", res[0].Opponent)
}

func TestStorageRoundTrip(t *testing.T) {
	testCases := []struct {
		name     string
		settings []Settings
		ids      []string
	}{
		{name: "duel", settings: []Settings{{Type: bracket.KindDuel, Last: bracket.LB}}, ids: []string{"a", "b", "c", "d", "e"}},
		{name: "ffa", settings: []Settings{{Type: bracket.KindFFA, Sizes: []int{3, 3}, Advancers: []int{1}}}, ids: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}},
		{name: "group stage", settings: []Settings{{Type: bracket.KindGroupStage, MeetTwice: true}}, ids: []string{"a", "b", "c", "d"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := withPlayers(t, tc.settings, tc.ids...)
			require.NoError(t, e.StartTournament(false))

			// three full matches, then one side of a fourth
			for range 3 {
				toPlay, err := e.MatchesToPlay(0)
				require.NoError(t, err)
				require.NotEmpty(t, toPlay)
				for _, seed := range toPlay[0].Players {
					opp, _ := e.Opponent(0, seed)
					require.NoError(t, e.Score(toPlay[0].ID, opp, float64(100-seed), 0))
				}
			}
			toPlay, err := e.MatchesToPlay(0)
			require.NoError(t, err)
			require.NotEmpty(t, toPlay)
			opp, _ := e.Opponent(0, toPlay[0].Players[0])
			require.NoError(t, e.Score(toPlay[0].ID, opp, 1, 0))
			require.Len(t, e.States(), 4)

			require.NoError(t, e.TogglePause())

			raw, err := json.Marshal(e.Storage())
			require.NoError(t, err)
			var stored Storage
			require.NoError(t, json.Unmarshal(raw, &stored))

			restored, err := FromStorage(stored)
			require.NoError(t, err)

			assert.Equal(t, StatusPaused, restored.Status())
			assert.Equal(t, e.States(), restored.States())
			assert.Equal(t, e.Players(), restored.Players())

			live, _ := e.Bracket(0)
			replayed, _ := restored.Bracket(0)
			assert.Equal(t, live.Matches(), replayed.Matches())

			liveRes, _ := e.Results(0)
			replayedRes, _ := restored.Results(0)
			assert.Equal(t, liveRes, replayedRes)
		})
	}
}

type scoreStep int

const (
	stepFull scoreStep = iota
	stepPartial
	stepRescore
)

// playStep scores a match by slot: a full play ranks slot order, a rescore
// reverses it one opponent at a time, a partial reports only the first slot.
func playStep(t *testing.T, e *Engine, id bracket.ID, step scoreStep) {
	t.Helper()
	b, err := e.Bracket(0)
	require.NoError(t, err)
	m, ok := b.FindMatch(id)
	require.True(t, ok, "match %s", id)
	for i, seed := range m.Players {
		opp, err := e.Opponent(0, seed)
		require.NoError(t, err)
		value := float64(len(m.Players)-i) * 10
		if step == stepRescore {
			value = float64(i+1)*10 + 5
		}
		require.NoError(t, e.Score(id, opp, value, 0), "%s slot %d", id, i)
		if step == stepPartial {
			return
		}
	}
}

func TestStorageRoundTripAfterRescore(t *testing.T) {
	type step struct {
		id   bracket.ID
		kind scoreStep
	}
	r1 := func(m int) bracket.ID { return bracket.ID{S: 1, R: 1, M: m} }
	r2 := func(m int) bracket.ID { return bracket.ID{S: 1, R: 2, M: m} }

	testCases := []struct {
		name     string
		settings []Settings
		ids      []string
		steps    []step
		log      []bracket.ID
		partial  int
	}{
		{
			name:     "duel rescore prunes the next round",
			settings: []Settings{{Type: bracket.KindDuel, Last: bracket.LB}},
			ids:      []string{"a", "b", "c", "d", "e", "f"},
			steps: []step{
				{r1(2), stepFull}, {r1(4), stepFull}, {wb21, stepPartial},
				{r1(2), stepRescore}, {wb21, stepFull},
			},
			log: []bracket.ID{r1(4), r1(2), wb21},
		},
		{
			name:     "ffa rescore reseeds the next round",
			settings: []Settings{{Type: bracket.KindFFA, Sizes: []int{3, 3}, Advancers: []int{1}}},
			ids:      []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"},
			steps: []step{
				{r1(1), stepFull}, {r1(2), stepFull}, {r1(3), stepFull}, {r2(1), stepPartial},
				{r1(1), stepRescore}, {r2(1), stepFull},
			},
			log: []bracket.ID{r1(2), r1(3), r1(1), r2(1)},
		},
		{
			name:     "group stage rescore keeps partial states",
			settings: []Settings{{Type: bracket.KindGroupStage, MeetTwice: true}},
			ids:      []string{"a", "b", "c", "d"},
			steps: []step{
				{r1(1), stepFull}, {r1(2), stepFull}, {r2(1), stepPartial},
				{r1(1), stepRescore},
			},
			log:     []bracket.ID{r1(2), r2(1), r1(1)},
			partial: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := withPlayers(t, tc.settings, tc.ids...)
			require.NoError(t, e.StartTournament(false))
			for _, st := range tc.steps {
				playStep(t, e, st.id, st.kind)
			}

			var log []bracket.ID
			partial := 0
			for _, st := range e.States() {
				log = append(log, st.MatchID)
				if !st.complete() {
					partial++
				}
			}
			assert.Equal(t, tc.log, log)
			assert.Equal(t, tc.partial, partial)

			raw, err := json.Marshal(e.Storage())
			require.NoError(t, err)
			var stored Storage
			require.NoError(t, json.Unmarshal(raw, &stored))

			restored, err := FromStorage(stored)
			require.NoError(t, err)
			assert.Equal(t, e.Status(), restored.Status())
			assert.Equal(t, e.States(), restored.States())

			live, _ := e.Bracket(0)
			replayed, _ := restored.Bracket(0)
			assert.Equal(t, live.Matches(), replayed.Matches())

			liveRes, _ := e.Results(0)
			replayedRes, _ := restored.Results(0)
			assert.Equal(t, liveRes, replayedRes)

			again, err := FromStorage(restored.Storage())
			require.NoError(t, err)
			assert.Equal(t, restored.Storage(), again.Storage())
		})
	}
}

func TestFromStorageOpenTournament(t *testing.T) {
	e := withPlayers(t, duelSettings(), "a", "b")
	require.NoError(t, e.SetBalancing(true))

	restored, err := FromStorage(e.Storage())
	require.NoError(t, err)
	assert.Equal(t, StatusBalancing, restored.Status())
	assert.Empty(t, restored.Brackets())
	assert.Equal(t, e.Players(), restored.Players())
}

func TestFromStorageRejectsBadLog(t *testing.T) {
	one := 1.0
	s := Storage{
		ID:       "t1",
		Status:   StatusRunning,
		Players:  []Player{{UserID: "a"}, {UserID: "b"}},
		Settings: duelSettings(),
		States: []BracketState{{
			Bracket:   0,
			MatchID:   wb11,
			Opponents: []string{"a", "b"},
			Scores:    []*float64{&one, &one},
		}},
	}
	_, err := FromStorage(s)
	assert.ErrorIs(t, err, bracket.ErrDraw)

	s.Status = "archived"
	_, err = FromStorage(s)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestNotifier(t *testing.T) {
	var events []EventType
	e := New("t1", Properties{}, duelSettings())
	e.SetNotifier(NotifierFunc(func(ev Event) {
		assert.Equal(t, "t1", ev.TournamentID)
		events = append(events, ev.Type)
	}))

	require.NoError(t, e.AddPlayer("a"))
	require.NoError(t, e.AddPlayer("b"))
	assert.ErrorIs(t, e.AddPlayer("b"), ErrPlayerExists)
	require.NoError(t, e.StartTournament(false))
	require.NoError(t, e.Score(wb11, "a", 1, 0))
	e.SetProperties(Properties{Name: "renamed"})

	assert.Equal(t, []EventType{EventPlayers, EventPlayers, EventStatus, EventScore, EventProperties}, events)
}
