package engine

type EventType string

const (
	EventPlayers    EventType = "players"
	EventTeams      EventType = "teams"
	EventStatus     EventType = "status"
	EventScore      EventType = "score"
	EventProperties EventType = "properties"
	EventSettings   EventType = "settings"
)

type Event struct {
	TournamentID string    `json:"tournamentId"`
	Type         EventType `json:"type"`
}

// Notifier receives an event after every successful mutation. Delivery is
// fire-and-forget: Notify must not block and its failures are not seen by
// the engine.
type Notifier interface {
	Notify(Event)
}

type NotifierFunc func(Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
