package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

func (e *Engine) Players() []Player {
	return slices.Clone(e.players)
}

func (e *Engine) Teams() []Team {
	out := make([]Team, len(e.teams))
	for i, t := range e.teams {
		t.Members = slices.Clone(t.Members)
		out[i] = t
	}
	return out
}

// reseed makes every seed equal to its index again.
func (e *Engine) reseed() {
	for i := range e.players {
		e.players[i].Seed = i
	}
	for i := range e.teams {
		e.teams[i].Seed = i
	}
}

func (e *Engine) playerIndex(userID string) int {
	return slices.IndexFunc(e.players, func(p Player) bool { return p.UserID == userID })
}

func (e *Engine) teamIndex(name string) int {
	return slices.IndexFunc(e.teams, func(t Team) bool { return t.Name == name })
}

func (e *Engine) rosterChanged(t EventType) {
	e.reseed()
	e.notify(t)
}

func (e *Engine) AddPlayer(userID string) error {
	if !e.editable() {
		return ErrNotEditable
	}
	if e.playerIndex(userID) >= 0 {
		return fmt.Errorf("%w: %s", ErrPlayerExists, userID)
	}
	e.players = append(e.players, Player{UserID: userID})
	e.rosterChanged(EventPlayers)
	return nil
}

// RemovePlayer also takes the player out of their team.
func (e *Engine) RemovePlayer(userID string) error {
	if !e.editable() {
		return ErrNotEditable
	}
	i := e.playerIndex(userID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, userID)
	}
	e.players = slices.Delete(e.players, i, i+1)
	e.leaveTeams(userID)
	e.rosterChanged(EventPlayers)
	return nil
}

func (e *Engine) ReorderPlayer(from, to int) error {
	if !e.editable() {
		return ErrNotEditable
	}
	if err := move(e.players, from, to); err != nil {
		return err
	}
	e.rosterChanged(EventPlayers)
	return nil
}

// move shifts s[from] to index to, keeping the order of everything else.
func move[T any](s []T, from, to int) error {
	if from < 0 || from >= len(s) || to < 0 || to >= len(s) {
		return fmt.Errorf("%w: %d -> %d", ErrIndexOutOfRange, from, to)
	}
	v := s[from]
	if from < to {
		copy(s[from:to], s[from+1:to+1])
	} else {
		copy(s[to+1:from+1], s[to:from])
	}
	s[to] = v
	return nil
}

func (e *Engine) AddTeam(name string) error {
	if !e.editable() {
		return ErrNotEditable
	}
	if e.teamIndex(name) >= 0 {
		return fmt.Errorf("%w: %s", ErrTeamExists, name)
	}
	e.teams = append(e.teams, Team{Name: name, Members: []string{}})
	e.rosterChanged(EventTeams)
	return nil
}

func (e *Engine) RemoveTeam(name string) error {
	if !e.editable() {
		return ErrNotEditable
	}
	i := e.teamIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, name)
	}
	e.teams = slices.Delete(e.teams, i, i+1)
	e.rosterChanged(EventTeams)
	return nil
}

func (e *Engine) RenameTeam(oldName, newName string) error {
	if !e.editable() {
		return ErrNotEditable
	}
	i := e.teamIndex(oldName)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, oldName)
	}
	if oldName != newName && e.teamIndex(newName) >= 0 {
		return fmt.Errorf("%w: %s", ErrTeamExists, newName)
	}
	e.teams[i].Name = newName
	e.rosterChanged(EventTeams)
	return nil
}

func (e *Engine) ReorderTeam(from, to int) error {
	if !e.editable() {
		return ErrNotEditable
	}
	if err := move(e.teams, from, to); err != nil {
		return err
	}
	e.rosterChanged(EventTeams)
	return nil
}

// AddPlayerToTeam moves a registered player into the team, leaving any
// team they were in before.
func (e *Engine) AddPlayerToTeam(userID, team string) error {
	if !e.editable() {
		return ErrNotEditable
	}
	if e.playerIndex(userID) < 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, userID)
	}
	i := e.teamIndex(team)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, team)
	}
	e.leaveTeams(userID)
	e.teams[i].Members = append(e.teams[i].Members, userID)
	e.rosterChanged(EventTeams)
	return nil
}

func (e *Engine) RemovePlayerFromTeam(userID, team string) error {
	if !e.editable() {
		return ErrNotEditable
	}
	i := e.teamIndex(team)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, team)
	}
	j := slices.Index(e.teams[i].Members, userID)
	if j < 0 {
		return fmt.Errorf("%w: %s in team %s", ErrPlayerNotFound, userID, team)
	}
	e.teams[i].Members = slices.Delete(e.teams[i].Members, j, j+1)
	e.rosterChanged(EventTeams)
	return nil
}

func (e *Engine) leaveTeams(userID string) {
	for i := range e.teams {
		e.teams[i].Members = slices.DeleteFunc(e.teams[i].Members, func(m string) bool { return m == userID })
	}
}

func (e *Engine) inTeam(userID string) bool {
	for _, t := range e.teams {
		if slices.Contains(t.Members, userID) {
			return true
		}
	}
	return false
}

// smallestTeam returns the first team with the fewest members.
func (e *Engine) smallestTeam() int {
	best := 0
	for i, t := range e.teams {
		if len(t.Members) < len(e.teams[best].Members) {
			best = i
		}
	}
	return best
}

func (e *Engine) largestTeam() int {
	best := 0
	for i, t := range e.teams {
		if len(t.Members) > len(e.teams[best].Members) {
			best = i
		}
	}
	return best
}

// DistributePlayersOnTeams puts every player without a team into the
// smallest team, one at a time in roster order.
func (e *Engine) DistributePlayersOnTeams() error {
	if !e.editable() {
		return ErrNotEditable
	}
	if len(e.teams) == 0 {
		return ErrTeamNotFound
	}
	e.distribute(e.players)
	e.rosterChanged(EventTeams)
	return nil
}

func (e *Engine) distribute(players []Player) {
	for _, p := range players {
		if e.inTeam(p.UserID) {
			continue
		}
		i := e.smallestTeam()
		e.teams[i].Members = append(e.teams[i].Members, p.UserID)
	}
}

// BalanceTeams moves the last member of the largest team to the smallest
// team until sizes differ by at most one.
func (e *Engine) BalanceTeams() error {
	if !e.editable() {
		return ErrNotEditable
	}
	if len(e.teams) == 0 {
		return ErrTeamNotFound
	}
	for {
		big, small := e.largestTeam(), e.smallestTeam()
		if len(e.teams[big].Members)-len(e.teams[small].Members) <= 1 {
			break
		}
		members := e.teams[big].Members
		last := members[len(members)-1]
		e.teams[big].Members = members[:len(members)-1]
		e.teams[small].Members = append(e.teams[small].Members, last)
	}
	e.rosterChanged(EventTeams)
	return nil
}

// RandomizePlayersOnTeams empties every team and deals the players out
// again in a shuffled order.
func (e *Engine) RandomizePlayersOnTeams(rng *rand.Rand) error {
	if !e.editable() {
		return ErrNotEditable
	}
	if len(e.teams) == 0 {
		return ErrTeamNotFound
	}
	for i := range e.teams {
		e.teams[i].Members = []string{}
	}
	shuffled := slices.Clone(e.players)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	e.distribute(shuffled)
	e.rosterChanged(EventTeams)
	return nil
}
