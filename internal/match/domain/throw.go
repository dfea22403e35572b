package domain

import (
	"sort"
	"time"

	apperrors "github.com/flyingdarts/x01/internal/platform/errors"
)

// MaxTurnScore is the highest total a player can score with one turn of three darts.
const MaxTurnScore = 180

// Throw records the outcome of one scored turn. Throws are append-only and
// immutable once written; every derived match state is recomputed from the
// ordered throw log.
type Throw struct {
	ID      string `json:"id"`
	MatchID string `json:"-"`
	// PlayerID identifies the seat that submitted the turn.
	PlayerID string `json:"playerId"`
	// Set and Leg are assigned by the engine when the throw is recorded,
	// never by the submitting client.
	Set int `json:"set"`
	Leg int `json:"leg"`
	// RawInput is the turn total as submitted.
	RawInput int `json:"rawInput"`
	// ScoredValue is the effective score after bust policy (0 for a bust).
	ScoredValue int `json:"scoredValue"`
	// RemainingAfter is the player's remaining leg score after this throw.
	RemainingAfter int       `json:"remainingScoreAfter"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ValidateRawInput checks a submitted turn total against the physical dart range.
func ValidateRawInput(raw int) error {
	if raw < 0 || raw > MaxTurnScore {
		return apperrors.New(apperrors.CodeThrowInvalidInput, "turn total must be between 0 and 180")
	}
	return nil
}

// OrderLog sorts throws by creation time with id as tiebreak, mutating the slice.
//
// All derived computations rely on this order, never on arrival order, since
// retries and redeliveries can reorder arrival.
func OrderLog(log []Throw) {
	sort.SliceStable(log, func(i, j int) bool {
		if log[i].CreatedAt.Equal(log[j].CreatedAt) {
			return log[i].ID < log[j].ID
		}
		return log[i].CreatedAt.Before(log[j].CreatedAt)
	})
}
