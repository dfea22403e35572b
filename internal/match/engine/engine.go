package engine

import (
	"github.com/flyingdarts/x01/internal/match/domain"
)

// EvaluatedThrow is the engine's verdict on one submitted turn before it is
// stamped with an id and appended to the log.
type EvaluatedThrow struct {
	Slot           Slot
	Scored         int
	RemainingAfter int
	Busted         bool
	FinishesLeg    bool
}

// Evaluate scores a submitted turn against the current log.
//
// The (set, leg) assignment always comes from the log, never from the caller,
// so clients cannot forge match progression. The log is reordered in place.
func Evaluate(rules domain.MatchRules, log []domain.Throw, playerID string, raw int) EvaluatedThrow {
	domain.OrderLog(log)
	slot := CurrentSlot(rules, log)
	remaining := RemainingScore(rules, log, playerID, slot)
	outcome := EvaluateThrow(rules, remaining, raw)
	return EvaluatedThrow{
		Slot:           slot,
		Scored:         outcome.Scored,
		RemainingAfter: outcome.Remaining,
		Busted:         outcome.Busted,
		FinishesLeg:    outcome.FinishesLeg,
	}
}
