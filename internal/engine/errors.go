package engine

import "errors"

var (
	ErrNotEditable        = errors.New("tournament roster can only change while open or balancing")
	ErrNotRunning         = errors.New("tournament is not running")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNoSettings         = errors.New("tournament has no bracket settings")
	ErrPlayerExists       = errors.New("player already registered")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrTeamExists         = errors.New("team already exists")
	ErrTeamNotFound       = errors.New("team not found")
	ErrEmptyTeam          = errors.New("every team needs at least one player")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrBracketNotFound    = errors.New("bracket not found")
	ErrStageClosed        = errors.New("bracket stage is already closed")
	ErrMatchNotFound      = errors.New("match not found")
	ErrOpponentNotInMatch = errors.New("opponent is not part of this match")
	ErrIncompleteState    = errors.New("cannot apply an incomplete score")
)
