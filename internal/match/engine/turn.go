package engine

import (
	"github.com/flyingdarts/x01/internal/match/domain"
)

// NextThrower decides which player throws next.
//
// Throw order is round-robin by join order within a leg, resetting to the
// first seat at the start of each new leg. With two players this degenerates
// to strict alternation: the submitter of the most recent throw is never the
// immediate next to throw.
func NextThrower(players []domain.Player, log []domain.Throw, slot Slot) string {
	if len(players) == 0 {
		return ""
	}
	ordered := make([]domain.Player, len(players))
	copy(ordered, players)
	domain.SortPlayers(ordered)

	thrown := 0
	for _, thr := range log {
		if thr.Set == slot.Set && thr.Leg == slot.Leg {
			thrown++
		}
	}
	return ordered[thrown%len(ordered)].ID
}
