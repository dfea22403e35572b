package engine

import (
	"github.com/flyingdarts/x01/internal/match/domain"
)

// ThrowOutcome describes the effect of scoring one turn against a remaining total.
type ThrowOutcome struct {
	// Scored is the effective score after bust policy (0 for a bust).
	Scored int
	// Remaining is the player's remaining score after the throw.
	Remaining int
	// Busted reports whether the turn scored nothing under the bust policy.
	Busted bool
	// FinishesLeg reports whether the throw checked out the leg.
	FinishesLeg bool
}

// EvaluateThrow applies one turn total to a remaining score.
//
// A turn busts when it would take the remaining score below zero, or to
// exactly 1 under double-out rules (a double cannot score 1). A busted turn
// is still recorded: it consumes the turn but leaves the score unchanged.
func EvaluateThrow(rules domain.MatchRules, remaining, raw int) ThrowOutcome {
	next := remaining - raw
	if next < 0 || (rules.DoubleOut && next == 1) {
		return ThrowOutcome{Scored: 0, Remaining: remaining, Busted: true}
	}
	return ThrowOutcome{
		Scored:      raw,
		Remaining:   next,
		FinishesLeg: next == 0,
	}
}

// RemainingScore derives a player's remaining score within one leg.
//
// The log must be ordered; only the player's throws in the given slot count.
func RemainingScore(rules domain.MatchRules, log []domain.Throw, playerID string, slot Slot) int {
	remaining := rules.StartingScore
	for _, thr := range log {
		if thr.PlayerID != playerID || thr.Set != slot.Set || thr.Leg != slot.Leg {
			continue
		}
		remaining -= thr.ScoredValue
	}
	if remaining < 0 {
		// A well-formed log never takes a leg score below zero.
		remaining = 0
	}
	return remaining
}
