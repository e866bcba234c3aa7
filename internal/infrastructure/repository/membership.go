package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/G1okz/Geo-app/internal/domain"
)

type membershipKey struct {
	roomID string
	userID string
}

type membershipRepository struct {
	members map[membershipKey]*domain.Membership
	mu      sync.RWMutex
}

func NewMembershipRepository() domain.MembershipRepository {
	return &membershipRepository{
		members: make(map[membershipKey]*domain.Membership),
	}
}

func (r *membershipRepository) Add(ctx context.Context, m *domain.Membership) error {
	if m == nil || m.RoomID == "" || m.UserID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := membershipKey{roomID: m.RoomID, userID: m.UserID}
	if _, exists := r.members[key]; exists {
		// Idempotent: re-joining keeps the original row.
		return nil
	}

	stored := *m
	r.members[key] = &stored

	return nil
}

func (r *membershipRepository) Remove(ctx context.Context, roomID, userID string) error {
	if roomID == "" || userID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members, membershipKey{roomID: roomID, userID: userID})
	return nil
}

func (r *membershipRepository) RemoveByRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.members {
		if key.roomID == roomID {
			delete(r.members, key)
		}
	}
	return nil
}

func (r *membershipRepository) Exists(ctx context.Context, roomID, userID string) (bool, error) {
	if roomID == "" || userID == "" {
		return false, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.members[membershipKey{roomID: roomID, userID: userID}]
	return exists, nil
}

func (r *membershipRepository) ListRoomIDsByUser(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	type joined struct {
		roomID string
		at     time.Time
	}

	rows := make([]joined, 0)
	for key, m := range r.members {
		if key.userID == userID {
			rows = append(rows, joined{roomID: key.roomID, at: m.JoinedAt})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].at.After(rows[j].at)
	})

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.roomID)
	}

	return ids, nil
}
