package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/storage"
)

// GetCircle retrieves a circle with its member snapshots.
func (s *SQLiteStore) GetCircle(ctx context.Context, circleID string) (*models.Circle, error) {
	circle := &models.Circle{}
	var created int64
	var lastMessage sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at, last_message_at FROM circles WHERE id = ?`,
		circleID,
	).Scan(&circle.ID, &circle.Name, &circle.OwnerID, &created, &lastMessage)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("circle %s: %w", circleID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to get circle: %w", err))
	}

	circle.CreatedAt = fromMillis(created)
	if lastMessage.Valid {
		t := fromMillis(lastMessage.Int64)
		circle.LastMessageAt = &t
	}

	members, err := s.loadMembers(ctx, circleID)
	if err != nil {
		return nil, err
	}
	circle.SetMembers(members)

	return circle, nil
}

// ListCirclesForUser retrieves every circle uid belongs to, newest first.
func (s *SQLiteStore) ListCirclesForUser(ctx context.Context, uid string) ([]*models.Circle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id FROM circles c
		 JOIN circle_members m ON m.circle_id = c.id
		 WHERE m.uid = ?
		 ORDER BY c.created_at DESC, c.rowid DESC`,
		uid,
	)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to list circles: %w", err))
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan circle id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Errorf("error iterating circles: %w", err))
	}

	circles := make([]*models.Circle, 0, len(ids))
	for _, id := range ids {
		circle, err := s.GetCircle(ctx, id)
		if err != nil {
			return nil, err
		}
		circles = append(circles, circle)
	}
	return circles, nil
}

func (s *SQLiteStore) loadMembers(ctx context.Context, circleID string) (map[string]models.UserProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uid, profile FROM circle_members WHERE circle_id = ?`,
		circleID,
	)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to load circle members: %w", err))
	}
	defer rows.Close()

	members := make(map[string]models.UserProfile)
	for rows.Next() {
		var uid, raw string
		if err := rows.Scan(&uid, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan circle member: %w", err)
		}
		var p models.UserProfile
		if err := unmarshalJSON(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode member profile: %w", err)
		}
		if p.UID == "" {
			p.UID = uid
		}
		members[uid] = p
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Errorf("error iterating circle members: %w", err))
	}

	return members, nil
}
