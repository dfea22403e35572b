package engine

import (
	"testing"

	"github.com/flyingdarts/x01/internal/match/domain"
)

func twoPlayers() []domain.Player {
	return []domain.Player{
		{ID: "a", DisplayName: "Alice", JoinOrder: 0},
		{ID: "b", DisplayName: "Bob", JoinOrder: 1},
	}
}

func TestLegsWonInSet(t *testing.T) {
	t.Parallel()

	log := []domain.Throw{
		throwAt(0, "a", 1, 1, 40, 0),
		throwAt(1, "b", 1, 2, 40, 0),
		throwAt(2, "a", 2, 1, 40, 0),
	}
	if got := LegsWonInSet(log, "a", 1); got != 1 {
		t.Fatalf("legs won by a in set 1 = %d, want 1", got)
	}
	if got := LegsWonInSet(log, "b", 1); got != 1 {
		t.Fatalf("legs won by b in set 1 = %d, want 1", got)
	}
	if got := LegsWonInSet(log, "a", 2); got != 1 {
		t.Fatalf("legs won by a in set 2 = %d, want 1", got)
	}

	// Completed legs in a set equal the players' leg wins summed.
	completed := 0
	for _, thr := range log {
		if thr.Set == 1 && thr.RemainingAfter == 0 {
			completed++
		}
	}
	if LegsWonInSet(log, "a", 1)+LegsWonInSet(log, "b", 1) != completed {
		t.Fatal("leg wins must sum to completed legs")
	}
}

func TestSetAwardedAtMajorityBeforeLastLeg(t *testing.T) {
	t.Parallel()

	// legsPerSet=3: two legs are a strict majority, the third leg is dead.
	rules := domain.MatchRules{StartingScore: 301, LegsPerSet: 3, SetsToWinMatch: 3}
	log := []domain.Throw{
		throwAt(0, "a", 1, 1, 40, 0),
		throwAt(1, "a", 1, 2, 40, 0),
	}
	if got := SetsWon(rules, log, "a"); got != 1 {
		t.Fatalf("sets won by a = %d, want 1", got)
	}
	if got := SetsWon(rules, log, "b"); got != 0 {
		t.Fatalf("sets won by b = %d, want 0", got)
	}
}

func TestComputeStandingsFinishesExactlyAtThreshold(t *testing.T) {
	t.Parallel()

	// setsToWinMatch=1 finishes after a single set.
	rules := domain.MatchRules{StartingScore: 301, LegsPerSet: 3, SetsToWinMatch: 1}

	oneLeg := []domain.Throw{throwAt(0, "a", 1, 1, 40, 0)}
	standings := ComputeStandings(rules, twoPlayers(), oneLeg, 1)
	if standings.Finished {
		t.Fatal("one leg must not finish the match")
	}
	if standings.Winner != "" {
		t.Fatalf("unexpected winner %q", standings.Winner)
	}

	twoLegs := append(oneLeg, throwAt(1, "a", 1, 2, 40, 0))
	standings = ComputeStandings(rules, twoPlayers(), twoLegs, 1)
	if !standings.Finished {
		t.Fatal("leg majority must finish a one-set match")
	}
	if standings.Winner != "a" {
		t.Fatalf("winner = %q, want a", standings.Winner)
	}
	if standings.LegsWon["a"] != 2 || standings.LegsWon["b"] != 0 {
		t.Fatalf("legs won = %+v", standings.LegsWon)
	}
	if standings.SetsWon["a"] != 1 {
		t.Fatalf("sets won = %+v", standings.SetsWon)
	}
}

func TestComputeStandingsBestOfThreeSets(t *testing.T) {
	t.Parallel()

	rules := domain.MatchRules{StartingScore: 301, LegsPerSet: 3, SetsToWinMatch: 3}
	log := []domain.Throw{
		// Set 1 to a.
		throwAt(0, "a", 1, 1, 40, 0),
		throwAt(1, "a", 1, 2, 40, 0),
		// Set 2 to b.
		throwAt(2, "b", 2, 1, 40, 0),
		throwAt(3, "b", 2, 2, 40, 0),
	}

	standings := ComputeStandings(rules, twoPlayers(), log, 2)
	if standings.Finished {
		t.Fatal("one set each must not finish a best-of-three")
	}

	// Set 3 to a: two sets reach ceil(3/2).
	log = append(log,
		throwAt(4, "a", 3, 1, 40, 0),
		throwAt(5, "a", 3, 2, 40, 0),
	)
	standings = ComputeStandings(rules, twoPlayers(), log, 3)
	if !standings.Finished || standings.Winner != "a" {
		t.Fatalf("standings = %+v, want finished with winner a", standings)
	}
}
