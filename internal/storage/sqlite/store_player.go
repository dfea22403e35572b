package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/flyingdarts/x01/internal/match/domain"
	apperrors "github.com/flyingdarts/x01/internal/platform/errors"
)

// AddPlayer registers one seat for a match.
//
// The (match, join order) pair is unique: a second seat claiming the same
// order fails with PLAYER_DUPLICATE_SEAT.
func (s *Store) AddPlayer(ctx context.Context, player domain.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := domain.NormalizePlayer(player)
	if err != nil {
		return err
	}
	matchID := strings.TrimSpace(player.MatchID)
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO match_players (match_id, player_id, display_name, country_code, join_order)
		 VALUES (?, ?, ?, ?, ?)`,
		matchID,
		normalized.ID,
		normalized.DisplayName,
		normalized.CountryCode,
		normalized.JoinOrder,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.CodePlayerDuplicateSeat, "seat already taken", err)
		}
		return fmt.Errorf("add player: %w", err)
	}
	return nil
}

// ListPlayers returns all seats for a match ordered by join order.
func (s *Store) ListPlayers(ctx context.Context, matchID string) ([]domain.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT match_id, player_id, display_name, country_code, join_order
		 FROM match_players WHERE match_id = ? ORDER BY join_order ASC`,
		strings.TrimSpace(matchID),
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var player domain.Player
		if err := rows.Scan(
			&player.MatchID,
			&player.ID,
			&player.DisplayName,
			&player.CountryCode,
			&player.JoinOrder,
		); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read players: %w", err)
	}
	return players, nil
}
