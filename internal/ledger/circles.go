package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/feed"
	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/storage"
)

// CreateCircle creates a circle owned by owner. Every other member must have synced a
// profile. The owner's profile is stored in the same batch.
func (l *Ledger) CreateCircle(ctx context.Context, owner models.UserProfile, name string, memberUIDs []string) (*models.Circle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("circle name is required")
	}
	if owner.UID == "" {
		return nil, apperr.Validation("owner is required")
	}

	members := map[string]models.UserProfile{owner.UID: owner}
	for _, uid := range memberUIDs {
		if _, ok := members[uid]; ok || uid == "" {
			continue
		}
		p, err := l.directoryProfile(ctx, uid)
		if err != nil {
			return nil, err
		}
		members[uid] = p
	}

	circle := &models.Circle{
		Name:      name,
		OwnerID:   owner.UID,
		Members:   members,
		CreatedAt: l.now().UTC(),
	}

	b := l.store.NewBatch()
	b.UpsertUserProfile(owner)
	b.CreateCircle(circle)
	if err := b.Commit(ctx); err != nil {
		return nil, apperr.FromStorage(err, "failed to create circle")
	}

	l.logger.Info("Circle created", "circle_id", circle.ID, "owner_id", owner.UID, "members", len(circle.MemberIDs))
	return circle, nil
}

// GetCircle returns a circle that actor belongs to.
func (l *Ledger) GetCircle(ctx context.Context, actor, circleID string) (*models.Circle, error) {
	return l.memberCircle(ctx, actor, circleID)
}

// ListCircles returns the circles uid belongs to, newest first.
func (l *Ledger) ListCircles(ctx context.Context, uid string) ([]*models.Circle, error) {
	circles, err := l.store.ListCirclesForUser(ctx, uid)
	if err != nil {
		return nil, apperr.FromStorage(err, "failed to list circles")
	}
	return circles, nil
}

// AddMember adds uid to a circle. Only the owner can add members.
func (l *Ledger) AddMember(ctx context.Context, actor, circleID, uid string) (*models.Circle, error) {
	circle, err := l.loadCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if circle.OwnerID != actor {
		return nil, apperr.Permission("only the circle owner can add members")
	}
	if circle.IsMember(uid) {
		return circle, nil
	}
	p, err := l.directoryProfile(ctx, uid)
	if err != nil {
		return nil, err
	}

	b := l.store.NewBatch()
	b.AddCircleMember(circleID, p)
	if err := b.Commit(ctx); err != nil {
		return nil, apperr.FromStorage(err, "failed to add member")
	}

	circle.Members[uid] = p
	circle.SetMembers(circle.Members)
	l.publish(circleID, feed.TopicCircle)
	return circle, nil
}

// LeaveCircle removes actor from a circle. An owner who leaves hands ownership to the
// remaining member with the lowest uid; the last member leaving deletes the circle.
// It reports whether the circle was deleted.
func (l *Ledger) LeaveCircle(ctx context.Context, actor, circleID string) (deleted bool, err error) {
	circle, err := l.memberCircle(ctx, actor, circleID)
	if err != nil {
		return false, err
	}

	var remaining []string
	for _, uid := range circle.MemberIDs {
		if uid != actor {
			remaining = append(remaining, uid)
		}
	}
	sort.Strings(remaining)

	b := l.store.NewBatch()
	if len(remaining) == 0 {
		b.DeleteCircle(circleID)
	} else {
		b.RemoveCircleMember(circleID, actor)
		if circle.OwnerID == actor {
			b.SetCircleOwner(circleID, remaining[0])
		}
	}
	if err := b.Commit(ctx); err != nil {
		return false, apperr.FromStorage(err, "failed to leave circle")
	}

	l.publish(circleID, feed.TopicCircle)
	l.logger.Info("Member left circle", "circle_id", circleID, "user_id", actor, "circle_deleted", len(remaining) == 0)
	return len(remaining) == 0, nil
}

// SyncProfile stores a user's profile and rewrites every embedded copy of it, so display
// names stay current on circles, debts, pending claims and settlements.
func (l *Ledger) SyncProfile(ctx context.Context, p models.UserProfile) error {
	if p.UID == "" || p.Email == "" {
		return apperr.Validation("uid and email are required")
	}
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	if p.DisplayName == "" {
		p.DisplayName = p.Email
	}

	b := l.store.NewBatch()
	b.UpsertUserProfile(p)
	b.RefreshProfileSnapshots(p)
	if err := b.Commit(ctx); err != nil {
		return apperr.FromStorage(err, "failed to sync profile")
	}

	circles, err := l.store.ListCirclesForUser(ctx, p.UID)
	if err != nil {
		l.logger.Warn("Failed to list circles after profile sync", "user_id", p.UID, "error", err)
		return nil
	}
	for _, c := range circles {
		l.publish(c.ID, feed.TopicCircle, feed.TopicDebts, feed.TopicSettlements)
	}
	return nil
}

func (l *Ledger) loadCircle(ctx context.Context, circleID string) (*models.Circle, error) {
	if circleID == "" {
		return nil, apperr.Validation("circle ID is required")
	}
	circle, err := l.store.GetCircle(ctx, circleID)
	if err != nil {
		return nil, apperr.FromStorage(err, "failed to load circle")
	}
	return circle, nil
}

// memberCircle loads a circle and checks that actor belongs to it.
func (l *Ledger) memberCircle(ctx context.Context, actor, circleID string) (*models.Circle, error) {
	circle, err := l.loadCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if !circle.IsMember(actor) {
		return nil, apperr.Permission("you are not a member of this circle")
	}
	return circle, nil
}

func (l *Ledger) directoryProfile(ctx context.Context, uid string) (models.UserProfile, error) {
	p, err := l.store.GetUserProfile(ctx, uid)
	if errors.Is(err, storage.ErrNotFound) {
		return models.UserProfile{}, apperr.Validation("unknown user %s", uid)
	}
	if err != nil {
		return models.UserProfile{}, apperr.FromStorage(err, "failed to load profile")
	}
	return *p, nil
}
