package engine

import (
	"github.com/flyingdarts/x01/internal/match/domain"
)

// PlayerView decorates a seat with identity info and its live leg score.
type PlayerView struct {
	ID          string `json:"playerId"`
	DisplayName string `json:"displayName"`
	CountryCode string `json:"countryCode"`
	JoinOrder   int    `json:"joinOrder"`
	Remaining   int    `json:"remaining"`
}

// MatchProjection is the client-facing read model recomputed after every
// accepted throw. It has no identity of its own: it is always disposable and
// reconstructible from rules, players, and the throw log.
type MatchProjection struct {
	MatchID     string                    `json:"matchId"`
	Rules       domain.MatchRules         `json:"rules"`
	Players     []PlayerView              `json:"players"`
	History     map[string][]domain.Throw `json:"perPlayerHistory"`
	LegsWon     map[string]int            `json:"legsWonPerPlayer"`
	SetsWon     map[string]int            `json:"setsWonPerPlayer"`
	CurrentSet  int                       `json:"currentSet"`
	CurrentLeg  int                       `json:"currentLeg"`
	NextToThrow string                    `json:"nextToThrow,omitempty"`
	Finished    bool                      `json:"finished"`
	Winner      string                    `json:"winner,omitempty"`
}

// Project assembles the full projection from rules, players, and the throw log.
//
// Per-player history is restricted to the current leg: once a checkout throw
// is observed the pointer advances and completed-leg history disappears from
// the live view. Players are ordered by join order; standings cover every
// player so all connected clients read a consistent view.
func Project(matchID string, rules domain.MatchRules, players []domain.Player, log []domain.Throw) MatchProjection {
	domain.OrderLog(log)
	slot := CurrentSlot(rules, log)
	standings := ComputeStandings(rules, players, log, slot.Set)

	ordered := make([]domain.Player, len(players))
	copy(ordered, players)
	domain.SortPlayers(ordered)

	projection := MatchProjection{
		MatchID:    matchID,
		Rules:      rules,
		Players:    make([]PlayerView, 0, len(ordered)),
		History:    make(map[string][]domain.Throw, len(ordered)),
		LegsWon:    standings.LegsWon,
		SetsWon:    standings.SetsWon,
		CurrentSet: slot.Set,
		CurrentLeg: slot.Leg,
		Finished:   standings.Finished,
		Winner:     standings.Winner,
	}

	for _, player := range ordered {
		history := make([]domain.Throw, 0, 8)
		for _, thr := range log {
			if thr.PlayerID == player.ID && thr.Set == slot.Set && thr.Leg == slot.Leg {
				history = append(history, thr)
			}
		}
		projection.History[player.ID] = history
		projection.Players = append(projection.Players, PlayerView{
			ID:          player.ID,
			DisplayName: player.DisplayName,
			CountryCode: player.CountryCode,
			JoinOrder:   player.JoinOrder,
			Remaining:   RemainingScore(rules, log, player.ID, slot),
		})
	}

	if !standings.Finished {
		projection.NextToThrow = NextThrower(ordered, log, slot)
	}
	return projection
}
