// Package service orchestrates match lifecycle and throw submission on top of
// the scoring engine and the persistence boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/flyingdarts/x01/internal/match/domain"
	"github.com/flyingdarts/x01/internal/match/engine"
	apperrors "github.com/flyingdarts/x01/internal/platform/errors"
	"github.com/flyingdarts/x01/internal/platform/id"
	"github.com/flyingdarts/x01/internal/storage"
)

// Notifier pushes a fresh projection to every live connection of the named
// players. Delivery is best effort: implementations log partial failures and
// never fail the submission that produced the projection.
type Notifier interface {
	Broadcast(ctx context.Context, playerIDs []string, projection engine.MatchProjection)
}

// NopNotifier discards every broadcast.
type NopNotifier struct{}

// Broadcast implements Notifier.
func (NopNotifier) Broadcast(context.Context, []string, engine.MatchProjection) {}

// Store is the persistence surface the service depends on.
type Store interface {
	storage.MatchStore
	storage.IdentityStore
}

// Service exposes the match scoring use-cases.
type Service struct {
	store    Store
	notifier Notifier
	clock    func() time.Time
	newID    func() (string, error)
	tracer   trace.Tracer
}

// NewService constructs the scoring service. A nil notifier disables pushes;
// nil clock and id generator fall back to real time and random ids.
func NewService(store Store, notifier Notifier, clock func() time.Time, newID func() (string, error)) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:    store,
		notifier: notifier,
		clock:    clock,
		newID:    newID,
		tracer:   otel.Tracer("match/service"),
	}
}

// SeatInput describes one player joining a match at creation time.
type SeatInput struct {
	PlayerID    string
	DisplayName string
	CountryCode string
}

// CreateMatchInput carries the rules and the full seat list for a new match.
type CreateMatchInput struct {
	Rules   domain.MatchRules
	Players []SeatInput
}

// CreateMatch stores a new match with its immutable rules and seats. Join
// order follows the input order.
func (s *Service) CreateMatch(ctx context.Context, input CreateMatchInput) (domain.Match, error) {
	if s == nil || s.store == nil {
		return domain.Match{}, fmt.Errorf("match store is not configured")
	}
	if len(input.Players) < 2 {
		return domain.Match{}, apperrors.New(apperrors.CodeMatchInvalidRules, "a match needs at least two seats")
	}
	seen := make(map[string]bool, len(input.Players))
	for _, seat := range input.Players {
		playerID := strings.TrimSpace(seat.PlayerID)
		if playerID == "" {
			return domain.Match{}, apperrors.New(apperrors.CodePlayerEmptyID, "player id is required")
		}
		if seen[playerID] {
			return domain.Match{}, apperrors.New(apperrors.CodePlayerDuplicateSeat, "player listed twice")
		}
		seen[playerID] = true
	}

	match, err := domain.CreateMatch(domain.CreateMatchInput{Rules: input.Rules}, s.clock, s.newID)
	if err != nil {
		return domain.Match{}, err
	}
	if err := s.store.CreateMatch(ctx, match); err != nil {
		return domain.Match{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "create match", err)
	}
	for order, seat := range input.Players {
		player := domain.Player{
			ID:          seat.PlayerID,
			MatchID:     match.ID,
			DisplayName: seat.DisplayName,
			CountryCode: seat.CountryCode,
			JoinOrder:   order,
		}
		if err := s.store.AddPlayer(ctx, player); err != nil {
			return domain.Match{}, err
		}
		info := storage.DisplayInfo{DisplayName: seat.DisplayName, CountryCode: seat.CountryCode}
		if err := s.store.PutDisplayInfo(ctx, seat.PlayerID, info); err != nil {
			return domain.Match{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "store display info", err)
		}
	}
	return match, nil
}

// StartMatch transitions a pending match to started. Starting an already
// started match is a no-op; a finished match cannot restart.
func (s *Service) StartMatch(ctx context.Context, matchID string) (domain.Match, error) {
	if s == nil || s.store == nil {
		return domain.Match{}, fmt.Errorf("match store is not configured")
	}
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}
	switch match.Status {
	case domain.StatusStarted:
		return match, nil
	case domain.StatusFinished:
		return domain.Match{}, apperrors.New(apperrors.CodeMatchAlreadyFinished, "match already finished")
	}
	now := s.clock().UTC()
	if err := s.store.UpdateMatchStatus(ctx, match.ID, domain.StatusStarted, now); err != nil {
		return domain.Match{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "start match", err)
	}
	match.Status = domain.StatusStarted
	match.UpdatedAt = now
	return match, nil
}

// Snapshot rebuilds the current projection for a match from its throw log.
// Clients receive it on connect so a reconnect never waits for the next throw.
func (s *Service) Snapshot(ctx context.Context, matchID string) (engine.MatchProjection, error) {
	if s == nil || s.store == nil {
		return engine.MatchProjection{}, fmt.Errorf("match store is not configured")
	}
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return engine.MatchProjection{}, err
	}
	players, log, err := s.loadState(ctx, match.ID)
	if err != nil {
		return engine.MatchProjection{}, err
	}
	return engine.Project(match.ID, match.Rules, players, log), nil
}

func (s *Service) loadMatch(ctx context.Context, matchID string) (domain.Match, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return domain.Match{}, apperrors.New(apperrors.CodeMatchNotFound, "match id is required")
	}
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Match{}, apperrors.Wrap(apperrors.CodeMatchNotFound, "match not found", err)
		}
		return domain.Match{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "load match", err)
	}
	return match, nil
}

// loadState fetches seats and the throw log, refreshing seat identity from
// the user directory where an entry exists.
func (s *Service) loadState(ctx context.Context, matchID string) ([]domain.Player, []domain.Throw, error) {
	players, err := s.store.ListPlayers(ctx, matchID)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeStorageUnavailable, "load players", err)
	}
	log, err := s.store.ListThrows(ctx, matchID)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeStorageUnavailable, "load throws", err)
	}

	ids := make([]string, 0, len(players))
	for _, player := range players {
		ids = append(ids, player.ID)
	}
	infos, err := s.store.GetDisplayInfo(ctx, ids)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeStorageUnavailable, "load display info", err)
	}
	for i, player := range players {
		info, ok := infos[player.ID]
		if !ok {
			continue
		}
		if info.DisplayName != "" {
			players[i].DisplayName = info.DisplayName
		}
		if info.CountryCode != "" {
			players[i].CountryCode = info.CountryCode
		}
	}
	return players, log, nil
}
