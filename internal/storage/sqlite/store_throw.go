package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flyingdarts/x01/internal/match/domain"
	"github.com/flyingdarts/x01/internal/storage"
)

// ListThrows returns the full throw log for a match in authoritative order.
func (s *Store) ListThrows(ctx context.Context, matchID string) ([]domain.Throw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, match_id, player_id, set_number, leg_number, raw_input, scored_value, remaining_after, created_at
		 FROM throws WHERE match_id = ? ORDER BY created_at ASC, id ASC`,
		strings.TrimSpace(matchID),
	)
	if err != nil {
		return nil, fmt.Errorf("list throws: %w", err)
	}
	defer rows.Close()

	var log []domain.Throw
	for rows.Next() {
		var thr domain.Throw
		var createdAt int64
		if err := rows.Scan(
			&thr.ID,
			&thr.MatchID,
			&thr.PlayerID,
			&thr.Set,
			&thr.Leg,
			&thr.RawInput,
			&thr.ScoredValue,
			&thr.RemainingAfter,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan throw: %w", err)
		}
		thr.CreatedAt = fromMillis(createdAt)
		log = append(log, thr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read throws: %w", err)
	}
	return log, nil
}

// AppendThrow atomically appends one throw, conditional on the log length.
//
// The throw takes sequence expectedCount+1; the unique (match_id, seq) index
// makes the slower of two concurrent writers fail, which surfaces as
// storage.ErrAppendConflict so the caller can reload and retry.
func (s *Store) AppendThrow(ctx context.Context, thr domain.Throw, expectedCount int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(thr.ID) == "" {
		return fmt.Errorf("throw id is required")
	}
	matchID := strings.TrimSpace(thr.MatchID)
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}
	if expectedCount < 0 {
		return fmt.Errorf("expected throw count must not be negative")
	}
	createdAt := thr.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO throws (
		   id, match_id, player_id, set_number, leg_number,
		   raw_input, scored_value, remaining_after, seq, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		thr.ID,
		matchID,
		thr.PlayerID,
		thr.Set,
		thr.Leg,
		thr.RawInput,
		thr.ScoredValue,
		thr.RemainingAfter,
		expectedCount+1,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAppendConflict
		}
		return fmt.Errorf("append throw: %w", err)
	}
	return nil
}
