package engine

import (
	"fmt"
	"slices"

	"github.com/Oozturn/oozturn-sub001/internal/bracket"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusBalancing Status = "balancing"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusDone      Status = "done"
)

// Player is a registered user. Seed is the player's index in the roster.
type Player struct {
	UserID string `json:"userId"`
	Seed   int    `json:"seed"`
}

type Team struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Seed    int      `json:"seed"`
}

type Properties struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// BracketState is a score being assembled one opponent at a time. A nil
// entry in Scores is a side that has not reported yet.
type BracketState struct {
	Bracket   int        `json:"bracket"`
	MatchID   bracket.ID `json:"matchId"`
	Opponents []string   `json:"opponents"`
	Scores    []*float64 `json:"scores"`
}

func (s BracketState) complete() bool {
	return !slices.Contains(s.Scores, nil)
}

func (s BracketState) values() []float64 {
	out := make([]float64, len(s.Scores))
	for i, v := range s.Scores {
		out[i] = *v
	}
	return out
}

func (s BracketState) clone() BracketState {
	c := s
	c.Opponents = slices.Clone(s.Opponents)
	c.Scores = make([]*float64, len(s.Scores))
	for i, v := range s.Scores {
		if v != nil {
			x := *v
			c.Scores[i] = &x
		}
	}
	return c
}

// OpponentResult is a bracket result resolved to the opponent identifier.
type OpponentResult struct {
	Opponent string `json:"opponent"`
	bracket.Result
}

// Engine binds bracket stages to players or teams. It is not safe for
// concurrent use; callers serialize access per tournament.
type Engine struct {
	id       string
	status   Status
	props    Properties
	settings []Settings

	players []Player
	teams   []Team

	// brackets holds one entry per started stage; opponents[i][seed-1] is
	// the identifier behind a seed of brackets[i].
	brackets  []bracket.Bracket
	opponents [][]string
	states    []BracketState

	notifier Notifier
}

func New(id string, props Properties, settings []Settings) *Engine {
	return &Engine{
		id:       id,
		status:   StatusOpen,
		props:    props,
		settings: cloneSettings(settings),
		notifier: nopNotifier{},
	}
}

// SetNotifier installs n as the event sink. A nil n disables events.
func (e *Engine) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	e.notifier = n
}

func (e *Engine) notify(t EventType) {
	e.notifier.Notify(Event{TournamentID: e.id, Type: t})
}

func (e *Engine) ID() string             { return e.id }
func (e *Engine) Status() Status         { return e.status }
func (e *Engine) Properties() Properties { return e.props }
func (e *Engine) Settings() []Settings   { return cloneSettings(e.settings) }

func (e *Engine) SetProperties(p Properties) {
	e.props = p
	e.notify(EventProperties)
}

func (e *Engine) SetSettings(settings []Settings) error {
	if !e.editable() {
		return ErrNotEditable
	}
	e.settings = cloneSettings(settings)
	e.notify(EventSettings)
	return nil
}

func (e *Engine) editable() bool {
	return e.status == StatusOpen || e.status == StatusBalancing
}

func (e *Engine) useTeams() bool {
	return len(e.settings) > 0 && e.settings[0].UseTeams
}

func (e *Engine) SetBalancing(on bool) error {
	if !e.editable() {
		return fmt.Errorf("%w: cannot balance a %s tournament", ErrInvalidTransition, e.status)
	}
	e.status = StatusOpen
	if on {
		e.status = StatusBalancing
	}
	e.notify(EventStatus)
	return nil
}

// StartTournament builds the first stage from the current roster. Unless
// resume is set, any recorded score states are discarded first.
func (e *Engine) StartTournament(resume bool) error {
	if !e.editable() {
		return fmt.Errorf("%w: cannot start a %s tournament", ErrInvalidTransition, e.status)
	}
	states := e.states
	if !resume {
		states = nil
	}
	if err := e.start(states); err != nil {
		return err
	}
	e.notify(EventStatus)
	return nil
}

func (e *Engine) start(states []BracketState) error {
	if len(e.settings) == 0 {
		return ErrNoSettings
	}

	var opponents []string
	if e.useTeams() {
		for _, t := range e.teams {
			if len(t.Members) == 0 {
				return fmt.Errorf("%w: %s", ErrEmptyTeam, t.Name)
			}
			opponents = append(opponents, t.Name)
		}
	} else {
		for _, p := range e.players {
			opponents = append(opponents, p.UserID)
		}
	}

	b, err := e.settings[0].build(len(opponents))
	if err != nil {
		return fmt.Errorf("failed to build stage 1: %w", err)
	}
	if err := e.checkStages(len(opponents)); err != nil {
		return err
	}
	e.brackets = []bracket.Bracket{b}
	e.opponents = [][]string{opponents}
	e.states = nil
	e.status = StatusRunning

	for _, s := range states {
		if !s.complete() {
			e.states = append(e.states, s.clone())
			continue
		}
		if err := e.applyState(s); err != nil {
			e.reset()
			return fmt.Errorf("failed to replay %s: %w", s.MatchID, err)
		}
	}
	e.pruneStates()
	return e.advance()
}

// checkStages builds every later stage once with the number of opponents
// it will receive, so a stage that cannot be built fails before play starts.
func (e *Engine) checkStages(n int) error {
	for k := 1; k < len(e.settings); k++ {
		if q := e.settings[k-1].Qualifiers; q > 0 && q < n {
			n = q
		}
		if _, err := e.settings[k].build(n); err != nil {
			return fmt.Errorf("failed to build stage %d: %w", k+1, err)
		}
	}
	return nil
}

func (e *Engine) reset() {
	e.brackets = nil
	e.opponents = nil
	e.states = nil
	e.status = StatusOpen
}

// StopTournament discards every bracket and score and reopens the roster.
func (e *Engine) StopTournament() error {
	if e.editable() {
		return fmt.Errorf("%w: tournament is not started", ErrInvalidTransition)
	}
	e.reset()
	e.notify(EventStatus)
	return nil
}

func (e *Engine) TogglePause() error {
	switch e.status {
	case StatusRunning:
		e.status = StatusPaused
	case StatusPaused:
		e.status = StatusRunning
	default:
		return fmt.Errorf("%w: cannot pause a %s tournament", ErrInvalidTransition, e.status)
	}
	e.notify(EventStatus)
	return nil
}

// advance opens the next stage once the active one is done, or marks the
// tournament done after the last stage.
func (e *Engine) advance() error {
	for {
		idx := len(e.brackets) - 1
		if idx < 0 || !e.brackets[idx].IsDone() {
			return nil
		}
		if idx+1 >= len(e.settings) {
			e.status = StatusDone
			return nil
		}

		qualifiers := e.settings[idx].Qualifiers
		res := e.brackets[idx].Results()
		if qualifiers > 0 && qualifiers < len(res) {
			res = res[:qualifiers]
		}
		next := make([]string, len(res))
		for i, r := range res {
			next[i] = e.opponents[idx][r.Seed-1]
		}

		b, err := e.settings[idx+1].build(len(next))
		if err != nil {
			return fmt.Errorf("failed to build stage %d: %w", idx+2, err)
		}
		e.brackets = append(e.brackets, b)
		e.opponents = append(e.opponents, next)
	}
}

func (e *Engine) Brackets() []bracket.Bracket {
	return slices.Clone(e.brackets)
}

func (e *Engine) Bracket(idx int) (bracket.Bracket, error) {
	if idx < 0 || idx >= len(e.brackets) {
		return nil, fmt.Errorf("%w: %d", ErrBracketNotFound, idx)
	}
	return e.brackets[idx], nil
}

// Opponent resolves a seed of the given stage to its identifier.
func (e *Engine) Opponent(bracketIdx, seed int) (string, error) {
	if bracketIdx < 0 || bracketIdx >= len(e.opponents) {
		return "", fmt.Errorf("%w: %d", ErrBracketNotFound, bracketIdx)
	}
	ops := e.opponents[bracketIdx]
	if seed < 1 || seed > len(ops) {
		return "", fmt.Errorf("%w: seed %d", ErrIndexOutOfRange, seed)
	}
	return ops[seed-1], nil
}

func (e *Engine) Results(bracketIdx int) ([]OpponentResult, error) {
	b, err := e.Bracket(bracketIdx)
	if err != nil {
		return nil, err
	}
	res := b.Results()
	out := make([]OpponentResult, len(res))
	for i, r := range res {
		out[i] = OpponentResult{Opponent: e.opponents[bracketIdx][r.Seed-1], Result: r}
	}
	return out, nil
}

// MatchesToPlay lists the playable matches of a stage that have no score.
func (e *Engine) MatchesToPlay(bracketIdx int) ([]bracket.Match, error) {
	b, err := e.Bracket(bracketIdx)
	if err != nil {
		return nil, err
	}
	var out []bracket.Match
	for _, m := range b.Matches() {
		if m.Playable() && !m.Scored() {
			out = append(out, m)
		}
	}
	return out, nil
}

func (e *Engine) States() []BracketState {
	out := make([]BracketState, len(e.states))
	for i, s := range e.states {
		out[i] = s.clone()
	}
	return out
}
