package projection_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func live(id, userID string, lat, lng float64, at time.Time) domain.Location {
	return domain.Location{
		ID:        id,
		RoomID:    "room-1",
		UserID:    userID,
		UserName:  "user-" + userID,
		Latitude:  lat,
		Longitude: lng,
		Timestamp: at,
		Kind:      domain.KindLivePosition,
	}
}

func marker(id, userID, name string, at time.Time) domain.Location {
	return domain.Location{
		ID:        id,
		RoomID:    "room-1",
		UserID:    userID,
		Name:      name,
		Timestamp: at,
		Kind:      domain.KindCustomMarker,
	}
}

func TestVisibleMarkers_OneLivePositionPerUser(t *testing.T) {
	records := []domain.Location{
		live("a1", "alice", 40.0, -3.0, t0),
		live("a2", "alice", 40.1, -3.1, t0.Add(time.Minute)),
		live("a3", "alice", 40.2, -3.2, t0.Add(2*time.Minute)),
		live("b1", "bob", 41.0, -4.0, t0),
	}

	visible := projection.VisibleMarkers(records)

	require.Len(t, visible, 2)
	byUser := indexByUser(visible)
	assert.Equal(t, "a3", byUser["alice"].ID)
	assert.Equal(t, 40.2, byUser["alice"].Latitude)
	assert.Equal(t, "b1", byUser["bob"].ID)
}

func TestVisibleMarkers_CustomMarkersNeverDeduped(t *testing.T) {
	records := []domain.Location{
		marker("m1", "alice", "Cafe", t0),
		marker("m2", "alice", "Hotel", t0.Add(time.Minute)),
		marker("m3", "alice", "Museum", t0.Add(2*time.Minute)),
		live("a1", "alice", 40.0, -3.0, t0),
	}

	visible := projection.VisibleMarkers(records)

	require.Len(t, visible, 4)
}

func TestVisibleMarkers_NewerTimestampReplaces(t *testing.T) {
	older := live("a1", "alice", 40.0, -3.0, t0)
	newer := live("a2", "alice", 40.1, -3.1, t0.Add(time.Second))

	// Physical application order must not matter.
	forward := projection.VisibleMarkers([]domain.Location{older, newer})
	reverse := projection.VisibleMarkers([]domain.Location{newer, older})

	require.Len(t, forward, 1)
	assert.Equal(t, "a2", forward[0].ID)
	assert.Equal(t, forward, reverse)
}

func TestVisibleMarkers_EqualTimestampsTieBreakByID(t *testing.T) {
	a := live("id-a", "alice", 40.0, -3.0, t0)
	b := live("id-b", "alice", 41.0, -4.0, t0)

	first := projection.VisibleMarkers([]domain.Location{a, b})
	second := projection.VisibleMarkers([]domain.Location{b, a})

	require.Len(t, first, 1)
	assert.Equal(t, "id-b", first[0].ID)
	assert.Equal(t, first, second)
}

func TestVisibleMarkers_LesserTimestampNeverChangesResult(t *testing.T) {
	current := live("a9", "alice", 40.5, -3.5, t0.Add(time.Hour))
	stale := live("a1", "alice", 40.0, -3.0, t0)

	without := projection.VisibleMarkers([]domain.Location{current})
	with := projection.VisibleMarkers([]domain.Location{current, stale})

	assert.Equal(t, without, with)
}

func TestVisibleMarkers_IdempotentAndOrderIndependent(t *testing.T) {
	records := []domain.Location{
		live("a1", "alice", 40.0, -3.0, t0),
		live("a2", "alice", 40.1, -3.1, t0.Add(time.Minute)),
		live("b1", "bob", 41.0, -4.0, t0.Add(30*time.Second)),
		marker("m1", "carol", "Cafe", t0.Add(45*time.Second)),
		marker("m2", "bob", "Trailhead", t0),
	}

	want := projection.VisibleMarkers(records)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]domain.Location, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		assert.Equal(t, want, projection.VisibleMarkers(shuffled))
	}
}

func TestVisibleMarkers_StablePresentationOrder(t *testing.T) {
	records := []domain.Location{
		marker("m1", "bob", "Cafe", t0.Add(time.Minute)),
		live("a1", "alice", 40.0, -3.0, t0.Add(2*time.Minute)),
		live("b1", "bob", 41.0, -4.0, t0),
	}

	visible := projection.VisibleMarkers(records)

	require.Len(t, visible, 3)
	assert.Equal(t, "a1", visible[0].ID)
	assert.Equal(t, "m1", visible[1].ID)
	assert.Equal(t, "b1", visible[2].ID)
}

func TestVisibleMarkers_EmptyInput(t *testing.T) {
	assert.Empty(t, projection.VisibleMarkers(nil))
	assert.Empty(t, projection.VisibleMarkers([]domain.Location{}))
}

func indexByUser(locs []domain.Location) map[string]domain.Location {
	out := make(map[string]domain.Location, len(locs))
	for _, l := range locs {
		out[l.UserID] = l
	}
	return out
}
