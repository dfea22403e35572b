// Package domain defines the match scoring entities and their validation rules.
package domain

import (
	"fmt"
	"time"

	apperrors "github.com/flyingdarts/x01/internal/platform/errors"
	"github.com/flyingdarts/x01/internal/platform/id"
)

// Status describes the lifecycle state of a match.
type Status int

const (
	// StatusUnspecified represents an invalid status value.
	StatusUnspecified Status = iota
	// StatusPending indicates a match that has been created but not started.
	StatusPending
	// StatusStarted indicates a match that is accepting throws.
	StatusStarted
	// StatusFinished indicates a match with a decided winner.
	StatusFinished
)

// String returns the storage representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusStarted:
		return "started"
	case StatusFinished:
		return "finished"
	default:
		return "unspecified"
	}
}

// ParseStatus maps a storage representation back to a Status.
func ParseStatus(value string) Status {
	switch value {
	case "pending":
		return StatusPending
	case "started":
		return StatusStarted
	case "finished":
		return StatusFinished
	default:
		return StatusUnspecified
	}
}

// MatchRules holds the immutable scoring configuration set at match creation.
type MatchRules struct {
	// StartingScore is the countdown start for every leg (e.g. 301 or 501).
	StartingScore int `json:"startingScore"`
	// LegsPerSet is the maximum number of legs played within one set.
	LegsPerSet int `json:"legsPerSet"`
	// SetsToWinMatch is the configured set target used by the match-win threshold.
	SetsToWinMatch int `json:"setsToWinMatch"`
	// DoubleIn requires a double to open scoring in a leg.
	DoubleIn bool `json:"doubleIn"`
	// DoubleOut requires a double to finish a leg.
	DoubleOut bool `json:"doubleOut"`
}

// NormalizeRules validates match rules at creation time.
func NormalizeRules(rules MatchRules) (MatchRules, error) {
	if rules.StartingScore < 2 {
		return MatchRules{}, apperrors.New(apperrors.CodeMatchInvalidRules, "starting score must be at least 2")
	}
	if rules.LegsPerSet < 1 {
		return MatchRules{}, apperrors.New(apperrors.CodeMatchInvalidRules, "legs per set must be at least 1")
	}
	if rules.SetsToWinMatch < 1 {
		return MatchRules{}, apperrors.New(apperrors.CodeMatchInvalidRules, "sets to win match must be at least 1")
	}
	return rules, nil
}

// Match represents match metadata and lifecycle state.
type Match struct {
	ID        string
	Rules     MatchRules
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateMatchInput describes the configuration needed to create a match.
type CreateMatchInput struct {
	Rules MatchRules
}

// CreateMatch creates a new match with a generated ID and timestamps.
func CreateMatch(input CreateMatchInput, now func() time.Time, idGenerator func() (string, error)) (Match, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	rules, err := NormalizeRules(input.Rules)
	if err != nil {
		return Match{}, err
	}

	matchID, err := idGenerator()
	if err != nil {
		return Match{}, fmt.Errorf("generate match id: %w", err)
	}

	createdAt := now().UTC()
	return Match{
		ID:        matchID,
		Rules:     rules,
		Status:    StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}
