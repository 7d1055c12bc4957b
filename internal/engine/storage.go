package engine

import "fmt"

// Storage is the persisted form of an engine. Brackets are not stored;
// they are rebuilt from the roster and settings and the score states are
// replayed on top.
type Storage struct {
	ID         string         `json:"id"`
	Status     Status         `json:"status"`
	Players    []Player       `json:"players"`
	Teams      []Team         `json:"teams"`
	Properties Properties     `json:"properties"`
	Settings   []Settings     `json:"settings"`
	States     []BracketState `json:"states"`
}

func (e *Engine) Storage() Storage {
	return Storage{
		ID:         e.id,
		Status:     e.status,
		Players:    e.Players(),
		Teams:      e.Teams(),
		Properties: e.props,
		Settings:   e.Settings(),
		States:     e.States(),
	}
}

// FromStorage rebuilds an engine. Started tournaments replay every complete
// state in order, each re-validated as a live score would be.
func FromStorage(s Storage) (*Engine, error) {
	e := New(s.ID, s.Properties, s.Settings)
	for _, p := range s.Players {
		e.players = append(e.players, Player{UserID: p.UserID})
	}
	for _, t := range s.Teams {
		e.teams = append(e.teams, Team{Name: t.Name, Members: append([]string{}, t.Members...)})
	}
	e.reseed()

	switch s.Status {
	case StatusOpen, StatusBalancing:
		e.status = s.Status
		for _, st := range s.States {
			e.states = append(e.states, st.clone())
		}
	case StatusRunning, StatusPaused, StatusDone:
		if err := e.start(s.States); err != nil {
			return nil, fmt.Errorf("failed to restore tournament %s: %w", s.ID, err)
		}
		if s.Status == StatusPaused && e.status == StatusRunning {
			e.status = StatusPaused
		}
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, s.Status)
	}
	return e, nil
}
