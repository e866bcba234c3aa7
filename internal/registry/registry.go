// Package registry owns room identity: creation with collision-checked join
// codes, membership, and owner-only cascading deletion.
package registry

import (
	"context"
	"errors"
	"sort"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
	"github.com/G1okz/Geo-app/internal/store"
)

// maxCodeAttempts bounds join-code regeneration. With 36^6 codes a second
// collision is already vanishingly unlikely; ten keeps the loop finite.
const maxCodeAttempts = 10

// RemotePublisher forwards room lifecycle events to out-of-process
// consumers; failures never fail the operation.
type RemotePublisher interface {
	PublishRoomEvent(ctx context.Context, eventType domain.RoomEventType, room domain.Room) error
}

type Registry struct {
	rooms   domain.RoomRepository
	members domain.MembershipRepository
	store   *store.Store
	remote  RemotePublisher
	logger  logging.Logger
}

func New(rooms domain.RoomRepository, members domain.MembershipRepository, locationStore *store.Store, remote RemotePublisher, logger logging.Logger) *Registry {
	if rooms == nil || members == nil || locationStore == nil {
		panic("registry: room repository, membership repository and store are required")
	}

	return &Registry{
		rooms:   rooms,
		members: members,
		store:   locationStore,
		remote:  remote,
		logger:  logger,
	}
}

// CreateRoom persists a new room under a fresh join code, regenerating on
// the (practically impossible) uniqueness collision. The creator owns the
// room via created_by but is not added to the membership set.
func (r *Registry) CreateRoom(ctx context.Context, name, ownerID string) (*domain.Room, error) {
	room, err := domain.NewRoom(name, ownerID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		err = r.rooms.Create(ctx, room)
		if err == nil {
			r.publish(ctx, domain.EventRoomCreated, *room)
			return room, nil
		}
		if !errors.Is(err, domain.ErrRoomAlreadyExists) {
			return nil, err
		}

		if r.logger != nil {
			r.logger.Warn(logging.General, logging.Startup, "join code collision, regenerating", map[logging.ExtraKey]any{
				logging.RoomId: room.ID,
			})
		}
		if err := room.RegenerateCode(); err != nil {
			return nil, err
		}
	}

	return nil, domain.ErrCodeExhausted
}

// JoinRoom resolves an uppercased join code and records membership.
// Re-joining an already joined room succeeds without a duplicate row.
func (r *Registry) JoinRoom(ctx context.Context, code, userID string) (*domain.Room, error) {
	code = domain.NormalizeJoinCode(code)
	if code == "" || userID == "" {
		return nil, domain.ErrInvalidInput
	}

	room, err := r.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := r.members.Add(ctx, domain.NewMembership(room.ID, userID)); err != nil {
		return nil, err
	}

	r.publish(ctx, domain.EventMemberJoined, *room)
	return room, nil
}

// LeaveRoom removes the user's location records so the room stops showing
// them, and removes the membership row. Deleting the membership is a
// deliberate policy choice: an invisible member that still counts as joined
// serves nobody.
func (r *Registry) LeaveRoom(ctx context.Context, roomID, userID string) error {
	if roomID == "" || userID == "" {
		return domain.ErrInvalidInput
	}

	room, err := r.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}

	if err := r.store.RemoveAllForUserInRoom(ctx, roomID, userID); err != nil {
		return err
	}
	if err := r.members.Remove(ctx, roomID, userID); err != nil {
		return err
	}

	r.publish(ctx, domain.EventMemberLeft, *room)
	return nil
}

// DeleteRoom cascades: locations first, then the room, then memberships.
// Only the owner may delete.
func (r *Registry) DeleteRoom(ctx context.Context, roomID, requesterID string) error {
	room, err := r.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}

	if !room.IsOwner(requesterID) {
		return domain.ErrNotRoomOwner
	}

	if err := r.store.RemoveAllForRoom(ctx, roomID); err != nil {
		return err
	}
	if err := r.rooms.Delete(ctx, roomID); err != nil {
		return err
	}
	if err := r.members.RemoveByRoom(ctx, roomID); err != nil {
		return err
	}

	r.publish(ctx, domain.EventRoomDeleted, *room)
	return nil
}

// GetRoom looks a room up by ID.
func (r *Registry) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	return r.rooms.GetByID(ctx, roomID)
}

// IsMember reports whether the user has joined the room. Owners pass
// implicitly: ownership grants access without a membership row.
func (r *Registry) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	room, err := r.rooms.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	if room.IsOwner(userID) {
		return true, nil
	}
	return r.members.Exists(ctx, roomID, userID)
}

// ListOwnedRooms returns rooms created by the user, newest first.
func (r *Registry) ListOwnedRooms(ctx context.Context, userID string) ([]domain.Room, error) {
	return r.rooms.ListByOwner(ctx, userID)
}

// ListJoinedRooms returns rooms the user is a member of, newest first by
// room creation time.
func (r *Registry) ListJoinedRooms(ctx context.Context, userID string) ([]domain.Room, error) {
	ids, err := r.members.ListRoomIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	rooms := make([]domain.Room, 0, len(ids))
	for _, id := range ids {
		room, err := r.rooms.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrRoomNotFound) {
				// Room deleted while the membership row lingered.
				continue
			}
			return nil, err
		}
		rooms = append(rooms, *room)
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})

	return rooms, nil
}

func (r *Registry) publish(ctx context.Context, eventType domain.RoomEventType, room domain.Room) {
	if r.remote == nil {
		return
	}
	if err := r.remote.PublishRoomEvent(ctx, eventType, room); err != nil && r.logger != nil {
		r.logger.Warn(logging.RabbitMQ, logging.Broadcast, "failed to publish room event", map[logging.ExtraKey]any{
			logging.RoomId:       room.ID,
			logging.ErrorMessage: err.Error(),
		})
	}
}
