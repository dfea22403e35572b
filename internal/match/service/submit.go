package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flyingdarts/x01/internal/match/domain"
	"github.com/flyingdarts/x01/internal/match/engine"
	apperrors "github.com/flyingdarts/x01/internal/platform/errors"
	"github.com/flyingdarts/x01/internal/storage"
)

// submitAttempts bounds the reload-and-retry loop when a conditional append
// loses to a concurrent writer.
const submitAttempts = 2

// SubmitInput carries one scored turn from a seated player.
type SubmitInput struct {
	MatchID  string
	PlayerID string
	// Score is the turn total for three darts, 0 through 180.
	Score int
}

// Submit records one turn and returns the resulting projection.
//
// The throw is evaluated against the log as persisted, never against client
// state: set, leg, bust handling, and remaining score all derive from the
// stored history. When the append races another submission the log is
// reloaded once and the turn re-evaluated, so the loser of the race still
// lands on a consistent score.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (engine.MatchProjection, error) {
	if s == nil || s.store == nil {
		return engine.MatchProjection{}, fmt.Errorf("match store is not configured")
	}
	ctx, span := s.tracer.Start(ctx, "match.submit", trace.WithAttributes(
		attribute.String("match.id", input.MatchID),
		attribute.String("player.id", input.PlayerID),
		attribute.Int("throw.score", input.Score),
	))
	defer span.End()

	if err := domain.ValidateRawInput(input.Score); err != nil {
		return engine.MatchProjection{}, err
	}
	match, err := s.loadMatch(ctx, input.MatchID)
	if err != nil {
		return engine.MatchProjection{}, err
	}
	switch match.Status {
	case domain.StatusStarted:
	case domain.StatusFinished:
		return engine.MatchProjection{}, apperrors.New(apperrors.CodeMatchAlreadyFinished, "match already finished")
	default:
		return engine.MatchProjection{}, apperrors.New(apperrors.CodeMatchNotActive, "match is not accepting throws")
	}

	players, log, err := s.loadState(ctx, match.ID)
	if err != nil {
		return engine.MatchProjection{}, err
	}
	if !hasSeat(players, input.PlayerID) {
		return engine.MatchProjection{}, apperrors.New(apperrors.CodePlayerNotInMatch, "player has no seat in this match")
	}

	var projection engine.MatchProjection
	for attempt := 0; ; attempt++ {
		if logDecided(match.Rules, players, log) {
			return engine.MatchProjection{}, apperrors.New(apperrors.CodeMatchAlreadyFinished, "match already finished")
		}
		thr, evalErr := s.evaluateThrow(match, log, input)
		if evalErr != nil {
			return engine.MatchProjection{}, evalErr
		}
		appendErr := s.store.AppendThrow(ctx, thr, len(log))
		if appendErr == nil {
			projection = engine.Project(match.ID, match.Rules, players, append(log, thr))
			break
		}
		if !errors.Is(appendErr, storage.ErrAppendConflict) {
			return engine.MatchProjection{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "append throw", appendErr)
		}
		if attempt+1 >= submitAttempts {
			return engine.MatchProjection{}, appendErr
		}
		log, err = s.store.ListThrows(ctx, match.ID)
		if err != nil {
			return engine.MatchProjection{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "reload throws", err)
		}
	}

	if projection.Finished {
		if err := s.store.UpdateMatchStatus(ctx, match.ID, domain.StatusFinished, s.clock().UTC()); err != nil {
			return engine.MatchProjection{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "finish match", err)
		}
	}

	s.notifier.Broadcast(ctx, seatIDs(players), projection)
	return projection, nil
}

// logDecided reports whether the throw log already contains a match winner.
// It catches the case where the stored status lags behind the log, for
// example when a prior finish transition failed mid-flight.
func logDecided(rules domain.MatchRules, players []domain.Player, log []domain.Throw) bool {
	domain.OrderLog(log)
	slot := engine.CurrentSlot(rules, log)
	return engine.ComputeStandings(rules, players, log, slot.Set).Finished
}

// evaluateThrow scores the turn against the current log and stamps identity
// and time.
func (s *Service) evaluateThrow(match domain.Match, log []domain.Throw, input SubmitInput) (domain.Throw, error) {
	evaluated := engine.Evaluate(match.Rules, log, input.PlayerID, input.Score)

	throwID, err := s.newID()
	if err != nil {
		return domain.Throw{}, fmt.Errorf("generate throw id: %w", err)
	}
	return domain.Throw{
		ID:             throwID,
		MatchID:        match.ID,
		PlayerID:       input.PlayerID,
		Set:            evaluated.Slot.Set,
		Leg:            evaluated.Slot.Leg,
		RawInput:       input.Score,
		ScoredValue:    evaluated.Scored,
		RemainingAfter: evaluated.RemainingAfter,
		CreatedAt:      s.clock().UTC(),
	}, nil
}

func hasSeat(players []domain.Player, playerID string) bool {
	for _, player := range players {
		if player.ID == playerID {
			return true
		}
	}
	return false
}

func seatIDs(players []domain.Player) []string {
	ids := make([]string, 0, len(players))
	for _, player := range players {
		ids = append(ids, player.ID)
	}
	return ids
}
