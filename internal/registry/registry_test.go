package registry_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
	"github.com/G1okz/Geo-app/internal/infrastructure/repository"
	"github.com/G1okz/Geo-app/internal/registry"
	"github.com/G1okz/Geo-app/internal/store"
)

type fixture struct {
	registry *registry.Registry
	store    *store.Store
	rooms    domain.RoomRepository
	members  domain.MembershipRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rooms := repository.NewRoomRepository()
	members := repository.NewMembershipRepository()
	locations := repository.NewLocationRepository()

	logger := logging.NewNopLogger()
	locationStore := store.New(locations, nil, nil, logger)

	return &fixture{
		registry: registry.New(rooms, members, locationStore, nil, logger),
		store:    locationStore,
		rooms:    rooms,
		members:  members,
	}
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.registry.CreateRoom(ctx, "Trip", "owner-1")
	require.NoError(t, err)

	assert.NotEmpty(t, room.ID)
	assert.Equal(t, "Trip", room.Name)
	assert.Equal(t, "owner-1", room.CreatedBy)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), room.Code)

	got, err := f.registry.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.Code, got.Code)
}

func TestCreateRoomOwnerIsNotMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.registry.CreateRoom(ctx, "Trip", "owner-1")
	require.NoError(t, err)

	exists, err := f.members.Exists(ctx, room.ID, "owner-1")
	require.NoError(t, err)
	assert.False(t, exists, "ownership must not create a membership row")

	// The owner still has access.
	ok, err := f.registry.IsMember(ctx, room.ID, "owner-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateRoomValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.CreateRoom(ctx, "", "owner-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.registry.CreateRoom(ctx, "Trip", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJoinRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.registry.CreateRoom(ctx, "Trip", "owner-1")
	require.NoError(t, err)

	joined, err := f.registry.JoinRoom(ctx, room.Code, "user-2")
	require.NoError(t, err)
	assert.Equal(t, room.ID, joined.ID)

	ok, err := f.registry.IsMember(ctx, room.ID, "user-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJoinRoomNormalizesCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.registry.CreateRoom(ctx, "Trip", "owner-1")
	require.NoError(t, err)

	joined, err := f.registry.JoinRoom(ctx, "  "+lower(room.Code)+" ", "user-2")
	require.NoError(t, err)
	assert.Equal(t, room.ID, joined.ID)
}

func TestJoinRoomIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.registry.CreateRoom(ctx, "Trip", "owner-1")
	require.NoError(t, err)

	_, err = f.registry.JoinRoom(ctx, room.Code, "user-2")
	require.NoError(t, err)
	_, err = f.registry.JoinRoom(ctx, room.Code, "user-2")
	require.NoError(t, err)

	ids, err := f.members.ListRoomIDsByUser(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestJoinRoomUnknownCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.JoinRoom(context.Background(), "ZZZZZZ", "user-2")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestLeaveRoomRemovesRecordsAndMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	room, err := f.registry.CreateRoom(ctx, "Trip", "owner-1")
	require.NoError(t, err)
	_, err = f.registry.JoinRoom(ctx, room.Code, "user-2")
	require.NoError(t, err)

	_, err = f.store.ReportPosition(ctx, room.ID, "user-2", "Bea", 40.4, -3.7, now)
	require.NoError(t, err)
	_, err = f.store.AddMarker(ctx, room.ID, "user-2", "Bea", "Café", "", 40.41, -3.69, now)
	require.NoError(t, err)

	require.NoError(t, f.registry.LeaveRoom(ctx, room.ID, "user-2"))

	records, err := f.store.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	ok, err := f.registry.IsMember(ctx, room.ID, "user-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaveRoomKeepsOtherUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	room, err := f.registry.CreateRoom(ctx, "Trip", "owner-1")
	require.NoError(t, err)
	_, err = f.registry.JoinRoom(ctx, room.Code, "user-2")
	require.NoError(t, err)
	_, err = f.registry.JoinRoom(ctx, room.Code, "user-3")
	require.NoError(t, err)

	_, err = f.store.ReportPosition(ctx, room.ID, "user-2", "Bea", 40.4, -3.7, now)
	require.NoError(t, err)
	_, err = f.store.ReportPosition(ctx, room.ID, "user-3", "Carl", 41.0, -3.0, now)
	require.NoError(t, err)

	require.NoError(t, f.registry.LeaveRoom(ctx, room.ID, "user-2"))

	records, err := f.store.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "user-3", records[0].UserID)
}

func TestDeleteRoomOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.registry.CreateRoom(ctx, "Trip", "owner-1")
	require.NoError(t, err)
	_, err = f.registry.JoinRoom(ctx, room.Code, "user-2")
	require.NoError(t, err)

	err = f.registry.DeleteRoom(ctx, room.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrNotRoomOwner)

	_, err = f.registry.GetRoom(ctx, room.ID)
	assert.NoError(t, err)
}

func TestDeleteRoomCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	room, err := f.registry.CreateRoom(ctx, "Trip", "owner-1")
	require.NoError(t, err)
	_, err = f.registry.JoinRoom(ctx, room.Code, "user-2")
	require.NoError(t, err)
	_, err = f.store.ReportPosition(ctx, room.ID, "user-2", "Bea", 40.4, -3.7, now)
	require.NoError(t, err)

	require.NoError(t, f.registry.DeleteRoom(ctx, room.ID, "owner-1"))

	_, err = f.registry.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	records, err := f.store.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	ids, err := f.members.ListRoomIDsByUser(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteRoomNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.registry.DeleteRoom(context.Background(), "missing", "owner-1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestListOwnedRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.CreateRoom(ctx, "First", "owner-1")
	require.NoError(t, err)
	_, err = f.registry.CreateRoom(ctx, "Second", "owner-1")
	require.NoError(t, err)
	_, err = f.registry.CreateRoom(ctx, "Other", "owner-2")
	require.NoError(t, err)

	rooms, err := f.registry.ListOwnedRooms(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	for _, room := range rooms {
		assert.Equal(t, "owner-1", room.CreatedBy)
	}
}

func TestListJoinedRoomsSkipsDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	keep, err := f.registry.CreateRoom(ctx, "Keep", "owner-1")
	require.NoError(t, err)
	gone, err := f.registry.CreateRoom(ctx, "Gone", "owner-1")
	require.NoError(t, err)

	_, err = f.registry.JoinRoom(ctx, keep.Code, "user-2")
	require.NoError(t, err)
	_, err = f.registry.JoinRoom(ctx, gone.Code, "user-2")
	require.NoError(t, err)

	// Delete the room out from under the membership row.
	require.NoError(t, f.rooms.Delete(ctx, gone.ID))

	rooms, err := f.registry.ListJoinedRooms(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, keep.ID, rooms[0].ID)
}

func lower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'Z' {
			out[i] = r + ('a' - 'A')
		}
	}
	return string(out)
}
