package engine

import (
	"github.com/flyingdarts/x01/internal/match/domain"
)

// Slot identifies a (set, leg) position within a match.
type Slot struct {
	Set int `json:"set"`
	Leg int `json:"leg"`
}

// CurrentSlot derives the (set, leg) the next throw belongs to.
//
// The pointer is the maximum (set, leg) observed in the ordered log. When the
// most recent throw checked out its leg, the pointer advances: to the next
// leg, or to leg 1 of the next set when the set is decided or the leg count
// would exceed the configured legs per set. An empty log starts at (1, 1).
func CurrentSlot(rules domain.MatchRules, log []domain.Throw) Slot {
	slot := Slot{Set: 1, Leg: 1}
	if len(log) == 0 {
		return slot
	}
	for _, thr := range log {
		if thr.Set > slot.Set {
			slot.Set = thr.Set
			slot.Leg = thr.Leg
			continue
		}
		if thr.Set == slot.Set && thr.Leg > slot.Leg {
			slot.Leg = thr.Leg
		}
	}

	last := log[len(log)-1]
	if last.RemainingAfter != 0 {
		return slot
	}

	// The last throw ended a leg: advance the pointer.
	if setDecided(rules, log, slot.Set) || slot.Leg+1 > rules.LegsPerSet {
		return Slot{Set: slot.Set + 1, Leg: 1}
	}
	return Slot{Set: slot.Set, Leg: slot.Leg + 1}
}

// setDecided reports whether some player already holds a leg majority in the set.
func setDecided(rules domain.MatchRules, log []domain.Throw, set int) bool {
	counts := make(map[string]int)
	for _, thr := range log {
		if thr.Set == set && thr.RemainingAfter == 0 {
			counts[thr.PlayerID]++
		}
	}
	threshold := LegsToWinSet(rules)
	for _, won := range counts {
		if won >= threshold {
			return true
		}
	}
	return false
}

// LegsToWinSet returns the strict leg majority needed to take a set.
func LegsToWinSet(rules domain.MatchRules) int {
	return rules.LegsPerSet/2 + 1
}

// SetsToWinMatch returns the set count needed to take the match.
func SetsToWinMatch(rules domain.MatchRules) int {
	return (rules.SetsToWinMatch + 1) / 2
}
