// Package repository holds the in-memory implementations of the domain
// repositories. They back the `memory` store driver and double as the test
// fixtures; the mongo implementations live in internal/persistence.
package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/G1okz/Geo-app/internal/domain"
)

type roomRepository struct {
	rooms     map[string]*domain.Room // ID -> Room
	codeIndex map[string]string       // Code -> ID
	mu        sync.RWMutex
}

func NewRoomRepository() domain.RoomRepository {
	return &roomRepository{
		rooms:     make(map[string]*domain.Room),
		codeIndex: make(map[string]string),
	}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	if room == nil || room.ID == "" || room.Code == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; exists {
		return domain.ErrRoomAlreadyExists
	}
	if _, exists := r.codeIndex[room.Code]; exists {
		return domain.ErrRoomAlreadyExists
	}

	stored := *room
	r.rooms[room.ID] = &stored
	r.codeIndex[room.Code] = room.ID

	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[id]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}

	copied := *room
	return &copied, nil
}

func (r *roomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	if code == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.codeIndex[code]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}

	copied := *r.rooms[id]
	return &copied, nil
}

func (r *roomRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[id]
	if !exists {
		return domain.ErrRoomNotFound
	}

	delete(r.codeIndex, room.Code)
	delete(r.rooms, id)

	return nil
}

func (r *roomRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Room, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := make([]domain.Room, 0)
	for _, room := range r.rooms {
		if room.CreatedBy == userID {
			owned = append(owned, *room)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	return owned, nil
}
