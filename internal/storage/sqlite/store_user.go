package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flyingdarts/x01/internal/storage"
)

// PutDisplayInfo stores or replaces a user's display identity.
func (s *Store) PutDisplayInfo(ctx context.Context, userID string, info storage.DisplayInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (id, display_name, country_code, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   display_name = excluded.display_name,
		   country_code = excluded.country_code,
		   updated_at = excluded.updated_at`,
		userID,
		strings.TrimSpace(info.DisplayName),
		strings.ToLower(strings.TrimSpace(info.CountryCode)),
		toMillis(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("put display info: %w", err)
	}
	return nil
}

// GetDisplayInfo resolves display identity for a batch of user ids.
// Unknown ids are absent from the result rather than failing the batch.
func (s *Store) GetDisplayInfo(ctx context.Context, userIDs []string) (map[string]storage.DisplayInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	result := make(map[string]storage.DisplayInfo, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(userIDs)), ", ")
	args := make([]any, 0, len(userIDs))
	for _, userID := range userIDs {
		args = append(args, strings.TrimSpace(userID))
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, display_name, country_code FROM users WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("get display info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var info storage.DisplayInfo
		if err := rows.Scan(&userID, &info.DisplayName, &info.CountryCode); err != nil {
			return nil, fmt.Errorf("scan display info: %w", err)
		}
		result[userID] = info
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read display info: %w", err)
	}
	return result, nil
}
