package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Oozturn/oozturn-sub001/internal/bracket"
)

// Score records one opponent's score for a match of the active stage.
// The match is scored in its bracket once every opponent has reported.
// Bracket rejections come back as *bracket.ValidationError and leave the
// previous value in place.
func (e *Engine) Score(matchID bracket.ID, opponent string, value float64, bracketIdx int) error {
	if e.status != StatusRunning {
		return ErrNotRunning
	}
	b, err := e.Bracket(bracketIdx)
	if err != nil {
		return err
	}
	if bracketIdx != len(e.brackets)-1 {
		return fmt.Errorf("%w: %d", ErrStageClosed, bracketIdx)
	}

	m, ok := b.FindMatch(matchID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, b.Label(matchID))
	}
	if !m.Playable() {
		return &bracket.ValidationError{ID: matchID, Reason: bracket.ErrNotPlayable.Error(), Err: bracket.ErrNotPlayable}
	}
	opponents := e.matchOpponents(bracketIdx, m)
	slot := slices.Index(opponents, opponent)
	if slot < 0 {
		return fmt.Errorf("%w: %s in %s", ErrOpponentNotInMatch, opponent, b.Label(matchID))
	}

	i := e.stateIndex(bracketIdx, matchID)
	if i < 0 || !slices.Equal(e.states[i].Opponents, opponents) {
		st := BracketState{
			Bracket:   bracketIdx,
			MatchID:   matchID,
			Opponents: opponents,
			Scores:    make([]*float64, len(opponents)),
		}
		if i < 0 {
			e.states = append(e.states, st)
			i = len(e.states) - 1
		} else {
			e.states[i] = st
		}
	}

	st := &e.states[i]
	prev := st.Scores[slot]
	st.Scores[slot] = &value
	if !st.complete() {
		e.notify(EventScore)
		return nil
	}

	if err := e.applyScore(b, matchID, st.values()); err != nil {
		st.Scores[slot] = prev
		var verr *bracket.ValidationError
		if errors.As(err, &verr) {
			slog.Warn("score rejected", "tournament", e.id, "match", b.Label(matchID), "reason", verr.Reason)
		}
		return err
	}

	// complete states are kept in the order they were applied
	done := e.states[i].clone()
	e.states = append(slices.Delete(e.states, i, i+1), done)
	e.pruneStates()
	if err := e.advance(); err != nil {
		return err
	}
	e.notify(EventScore)
	return nil
}

func (e *Engine) applyScore(b bracket.Bracket, id bracket.ID, score []float64) error {
	if err := b.Unscorable(id, score, false); err != nil {
		return err
	}
	return b.Score(id, score)
}

// applyState replays a complete stored state.
func (e *Engine) applyState(s BracketState) error {
	if !s.complete() {
		return ErrIncompleteState
	}
	b, err := e.Bracket(s.Bracket)
	if err != nil {
		return err
	}
	if err := e.applyScore(b, s.MatchID, s.values()); err != nil {
		return err
	}
	e.states = append(e.states, s.clone())
	return e.advance()
}

func (e *Engine) matchOpponents(bracketIdx int, m bracket.Match) []string {
	out := make([]string, len(m.Players))
	for i, p := range m.Players {
		out[i] = e.opponents[bracketIdx][p-1]
	}
	return out
}

func (e *Engine) stateIndex(bracketIdx int, id bracket.ID) int {
	return slices.IndexFunc(e.states, func(s BracketState) bool {
		return s.Bracket == bracketIdx && s.MatchID == id
	})
}

// pruneStates drops partial states whose match no longer holds the same
// opponents, which happens when an earlier result is changed.
func (e *Engine) pruneStates() {
	e.states = slices.DeleteFunc(e.states, func(s BracketState) bool {
		if s.complete() {
			return false
		}
		if s.Bracket < 0 || s.Bracket >= len(e.brackets) {
			return true
		}
		m, ok := e.brackets[s.Bracket].FindMatch(s.MatchID)
		if !ok || !m.Playable() {
			return true
		}
		return !slices.Equal(s.Opponents, e.matchOpponents(s.Bracket, m))
	})
}
