package engine

import (
	"github.com/flyingdarts/x01/internal/match/domain"
)

// Standings aggregates per-player leg and set wins derived from the log.
type Standings struct {
	// LegsWon counts legs won per player within the given set.
	LegsWon map[string]int
	// SetsWon counts decided sets per player across the match.
	SetsWon map[string]int
	// Winner is the player that reached the match-win threshold, if any.
	Winner string
	// Finished reports whether the match-win threshold has been reached.
	Finished bool
}

// LegsWonInSet counts legs in one set won by the player.
//
// A player wins leg (s, l) when one of their throws in that slot checked out.
func LegsWonInSet(log []domain.Throw, playerID string, set int) int {
	won := 0
	for _, thr := range log {
		if thr.PlayerID == playerID && thr.Set == set && thr.RemainingAfter == 0 {
			won++
		}
	}
	return won
}

// SetsWon counts sets across the match in which the player holds a leg majority.
func SetsWon(rules domain.MatchRules, log []domain.Throw, playerID string) int {
	threshold := LegsToWinSet(rules)
	perSet := make(map[int]int)
	for _, thr := range log {
		if thr.PlayerID == playerID && thr.RemainingAfter == 0 {
			perSet[thr.Set]++
		}
	}
	won := 0
	for _, legs := range perSet {
		if legs >= threshold {
			won++
		}
	}
	return won
}

// ComputeStandings evaluates leg counts for the given set, total set wins, and
// match completion for every player.
//
// The match finishes the moment any player reaches the set threshold; the
// caller must stop accepting throws once Finished is true.
func ComputeStandings(rules domain.MatchRules, players []domain.Player, log []domain.Throw, set int) Standings {
	standings := Standings{
		LegsWon: make(map[string]int, len(players)),
		SetsWon: make(map[string]int, len(players)),
	}
	target := SetsToWinMatch(rules)
	for _, player := range players {
		standings.LegsWon[player.ID] = LegsWonInSet(log, player.ID, set)
		sets := SetsWon(rules, log, player.ID)
		standings.SetsWon[player.ID] = sets
		if sets >= target && !standings.Finished {
			standings.Finished = true
			standings.Winner = player.ID
		}
	}
	return standings
}
