package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/G1okz/Geo-app/internal/domain"
)

type locationRepository struct {
	locations map[string]*domain.Location // ID -> Location
	mu        sync.RWMutex
}

func NewLocationRepository() domain.LocationRepository {
	return &locationRepository{
		locations: make(map[string]*domain.Location),
	}
}

// UpsertLive is the single insert-or-replace primitive keyed by
// (room_id, user_id) for live positions. There is no separate existence
// check for callers to race against.
func (r *locationRepository) UpsertLive(ctx context.Context, loc *domain.Location) (bool, error) {
	if loc == nil || loc.RoomID == "" || loc.UserID == "" {
		return false, domain.ErrInvalidInput
	}
	if loc.Kind != domain.KindLivePosition {
		return false, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.locations {
		if existing.Kind != domain.KindLivePosition {
			continue
		}
		if existing.RoomID != loc.RoomID || existing.UserID != loc.UserID {
			continue
		}

		updated := *existing
		updated.UserName = loc.UserName
		updated.Latitude = loc.Latitude
		updated.Longitude = loc.Longitude
		updated.Timestamp = loc.Timestamp
		r.locations[id] = &updated

		// Report the surviving record back to the caller.
		*loc = updated

		return false, nil
	}

	stored := *loc
	r.locations[loc.ID] = &stored

	return true, nil
}

func (r *locationRepository) Insert(ctx context.Context, loc *domain.Location) error {
	if loc == nil || loc.ID == "" || loc.RoomID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *loc
	r.locations[loc.ID] = &stored

	return nil
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, exists := r.locations[id]
	if !exists {
		return nil, domain.ErrLocationNotFound
	}

	copied := *loc
	return &copied, nil
}

func (r *locationRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.locations, id)
	return nil
}

func (r *locationRepository) DeleteByRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, loc := range r.locations {
		if loc.RoomID == roomID {
			delete(r.locations, id)
		}
	}
	return nil
}

func (r *locationRepository) DeleteByRoomAndUser(ctx context.Context, roomID, userID string) error {
	if roomID == "" || userID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, loc := range r.locations {
		if loc.RoomID == roomID && loc.UserID == userID {
			delete(r.locations, id)
		}
	}
	return nil
}

func (r *locationRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Location, error) {
	if roomID == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]domain.Location, 0)
	for _, loc := range r.locations {
		if loc.RoomID == roomID {
			records = append(records, *loc)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID > records[j].ID
	})

	return records, nil
}
