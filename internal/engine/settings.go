package engine

import (
	"fmt"

	"github.com/Oozturn/oozturn-sub001/internal/bracket"
)

// Settings configures one bracket stage. Only the fields of the chosen
// Type are read.
type Settings struct {
	Type     bracket.Kind `json:"type"`
	UseTeams bool         `json:"useTeams,omitempty"`

	// Duel
	Last  bracket.Section `json:"last,omitempty"`
	Short bool            `json:"short,omitempty"`

	// FFA
	Sizes              []int `json:"sizes,omitempty"`
	Advancers          []int `json:"advancers,omitempty"`
	Limit              int   `json:"limit,omitempty"`
	LowerScoreIsBetter bool  `json:"lowerScoreIsBetter,omitempty"`

	// GroupStage
	GroupSize   int     `json:"groupSize,omitempty"`
	WinPoints   float64 `json:"winPoints,omitempty"`
	TiePoints   float64 `json:"tiePoints,omitempty"`
	ScoresBreak bool    `json:"scoresBreak,omitempty"`
	MeetTwice   bool    `json:"meetTwice,omitempty"`

	// Qualifiers is how many of the best opponents enter the next stage.
	// Zero means everyone.
	Qualifiers int `json:"qualifiers,omitempty"`
}

func (s Settings) build(numOpponents int) (bracket.Bracket, error) {
	switch s.Type {
	case bracket.KindDuel:
		return bracket.NewDuel(numOpponents, bracket.DuelOptions{Last: s.Last, Short: s.Short})
	case bracket.KindFFA:
		return bracket.NewFFA(numOpponents, bracket.FFAOptions{
			Sizes:              s.Sizes,
			Advancers:          s.Advancers,
			Limit:              s.Limit,
			LowerScoreIsBetter: s.LowerScoreIsBetter,
		})
	case bracket.KindGroupStage:
		return bracket.NewGroupStage(numOpponents, bracket.GroupStageOptions{
			GroupSize:   s.GroupSize,
			WinPoints:   s.WinPoints,
			TiePoints:   s.TiePoints,
			ScoresBreak: s.ScoresBreak,
			MeetTwice:   s.MeetTwice,
		})
	}
	return nil, fmt.Errorf("%w: unknown bracket type %q", bracket.ErrInvalidConfig, s.Type)
}

func cloneSettings(in []Settings) []Settings {
	out := make([]Settings, len(in))
	for i, s := range in {
		s.Sizes = append([]int(nil), s.Sizes...)
		s.Advancers = append([]int(nil), s.Advancers...)
		out[i] = s
	}
	return out
}
