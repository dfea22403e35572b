package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flyingdarts/x01/internal/match/domain"
	"github.com/flyingdarts/x01/internal/storage"
)

// CreateMatch inserts one match record with its immutable rules.
func (s *Store) CreateMatch(ctx context.Context, match domain.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	matchID := strings.TrimSpace(match.ID)
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}
	if _, err := domain.NormalizeRules(match.Rules); err != nil {
		return err
	}
	createdAt := match.CreatedAt.UTC()
	updatedAt := match.UpdatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO matches (
		   id,
		   starting_score,
		   legs_per_set,
		   sets_to_win,
		   double_in,
		   double_out,
		   status,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		matchID,
		match.Rules.StartingScore,
		match.Rules.LegsPerSet,
		match.Rules.SetsToWinMatch,
		boolToInt(match.Rules.DoubleIn),
		boolToInt(match.Rules.DoubleOut),
		match.Status.String(),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// GetMatch returns one match by id.
func (s *Store) GetMatch(ctx context.Context, matchID string) (domain.Match, error) {
	if err := ctx.Err(); err != nil {
		return domain.Match{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Match{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, starting_score, legs_per_set, sets_to_win, double_in, double_out, status, created_at, updated_at
		 FROM matches WHERE id = ?`,
		strings.TrimSpace(matchID),
	)

	var match domain.Match
	var doubleIn, doubleOut int
	var status string
	var createdAt, updatedAt int64
	err := row.Scan(
		&match.ID,
		&match.Rules.StartingScore,
		&match.Rules.LegsPerSet,
		&match.Rules.SetsToWinMatch,
		&doubleIn,
		&doubleOut,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Match{}, storage.ErrNotFound
		}
		return domain.Match{}, fmt.Errorf("get match: %w", err)
	}
	match.Rules.DoubleIn = doubleIn != 0
	match.Rules.DoubleOut = doubleOut != 0
	match.Status = domain.ParseStatus(status)
	match.CreatedAt = fromMillis(createdAt)
	match.UpdatedAt = fromMillis(updatedAt)
	return match, nil
}

// UpdateMatchStatus transitions the lifecycle status of one match.
func (s *Store) UpdateMatchStatus(ctx context.Context, matchID string, status domain.Status, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if status == domain.StatusUnspecified {
		return fmt.Errorf("match status is required")
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE matches SET status = ?, updated_at = ? WHERE id = ?`,
		status.String(),
		toMillis(updatedAt),
		strings.TrimSpace(matchID),
	)
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
