package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJoinCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	for i := 0; i < 100; i++ {
		code, err := GenerateJoinCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestNewRoom(t *testing.T) {
	room, err := NewRoom("Trip", "owner-1")
	require.NoError(t, err)

	assert.NotEmpty(t, room.ID)
	assert.Len(t, room.Code, JoinCodeLength)
	assert.True(t, room.IsOwner("owner-1"))
	assert.False(t, room.IsOwner("user-2"))
	assert.False(t, room.CreatedAt.IsZero())
}

func TestNewRoomRejectsBlankName(t *testing.T) {
	_, err := NewRoom("   ", "owner-1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegenerateCodeChangesCode(t *testing.T) {
	room, err := NewRoom("Trip", "owner-1")
	require.NoError(t, err)

	old := room.Code
	require.NoError(t, room.RegenerateCode())

	assert.Len(t, room.Code, JoinCodeLength)
	// A collision between two random 6-char codes is astronomically
	// unlikely; a stable value here means regeneration is broken.
	assert.NotEqual(t, old, room.Code)
}

func TestNormalizeJoinCode(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeJoinCode("  ab12cd "))
	assert.Equal(t, "", NormalizeJoinCode("   "))
}

func TestNewLivePosition(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	loc, err := NewLivePosition("room-1", "user-a", "Ana", 40.4, -3.7, at)
	require.NoError(t, err)

	assert.Equal(t, KindLivePosition, loc.Kind)
	assert.Equal(t, at, loc.Timestamp)
	assert.False(t, loc.IsCustomMarker())

	_, err = NewLivePosition("", "user-a", "Ana", 0, 0, at)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewLivePositionDefaultsTimestamp(t *testing.T) {
	loc, err := NewLivePosition("room-1", "user-a", "Ana", 40.4, -3.7, time.Time{})
	require.NoError(t, err)
	assert.False(t, loc.Timestamp.IsZero())
}

func TestNewCustomMarker(t *testing.T) {
	loc, err := NewCustomMarker("room-1", "user-a", "Ana", "Café", "meet here", 40.4, -3.7, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, KindCustomMarker, loc.Kind)
	assert.True(t, loc.IsCustomMarker())
	assert.Equal(t, "Café", loc.Name)

	_, err = NewCustomMarker("room-1", "user-a", "Ana", "  ", "", 0, 0, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
