// Package storage defines the persistence boundary for match scoring.
package storage

import (
	"context"
	"time"

	"github.com/flyingdarts/x01/internal/match/domain"
	apperrors "github.com/flyingdarts/x01/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrAppendConflict indicates a conditional throw append lost the race:
// another throw committed first and the caller must reload the log,
// recompute, and retry.
var ErrAppendConflict = apperrors.New(apperrors.CodeThrowConflict, "throw log advanced concurrently")

// DisplayInfo carries identity decoration for projections. It never feeds
// the scoring computation.
type DisplayInfo struct {
	DisplayName string
	CountryCode string
}

// MatchStore owns match metadata, seats, and the append-only throw log.
type MatchStore interface {
	// CreateMatch stores a new match with its immutable rules.
	CreateMatch(ctx context.Context, match domain.Match) error
	// GetMatch retrieves match metadata by id.
	GetMatch(ctx context.Context, matchID string) (domain.Match, error)
	// UpdateMatchStatus transitions a match's lifecycle status.
	UpdateMatchStatus(ctx context.Context, matchID string, status domain.Status, updatedAt time.Time) error
	// AddPlayer registers a seat; join order must be unique within the match.
	AddPlayer(ctx context.Context, player domain.Player) error
	// ListPlayers returns all seats for a match ordered by join order.
	ListPlayers(ctx context.Context, matchID string) ([]domain.Player, error)
	// ListThrows returns the full throw log ordered by creation time with
	// id as tiebreak.
	ListThrows(ctx context.Context, matchID string) ([]domain.Throw, error)
	// AppendThrow atomically appends a throw, conditional on the log still
	// holding exactly expectedCount throws. Returns ErrAppendConflict when
	// another writer advanced the log first.
	AppendThrow(ctx context.Context, thr domain.Throw, expectedCount int) error
}

// IdentityStore resolves display identity for projection decoration.
type IdentityStore interface {
	// PutDisplayInfo stores or replaces a user's display identity.
	PutDisplayInfo(ctx context.Context, userID string, info DisplayInfo) error
	// GetDisplayInfo resolves display identity for a batch of user ids.
	// Unknown ids are simply absent from the result.
	GetDisplayInfo(ctx context.Context, userIDs []string) (map[string]DisplayInfo, error)
}

// Store is a composite interface for all persistence concerns of the
// scoring service.
type Store interface {
	MatchStore
	IdentityStore
	Close() error
}
