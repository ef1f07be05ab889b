package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/storage"
)

// GetUserProfile retrieves a user's directory entry by UID.
func (s *SQLiteStore) GetUserProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	query := `
		SELECT uid, display_name, email, photo_url, username
		FROM users
		WHERE uid = ?
	`

	p := &models.UserProfile{}
	err := s.db.QueryRowContext(ctx, query, uid).Scan(
		&p.UID,
		&p.DisplayName,
		&p.Email,
		&p.PhotoURL,
		&p.Username,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", uid, storage.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to get user profile: %w", err))
	}

	return p, nil
}
