package feed_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/feed"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
)

// stubLister is a feed.Lister over a mutable in-memory record set.
type stubLister struct {
	mu      sync.Mutex
	records map[string][]domain.Location
	err     error
}

func newStubLister() *stubLister {
	return &stubLister{records: make(map[string][]domain.Location)}
}

func (l *stubLister) ListByRoom(_ context.Context, roomID string) ([]domain.Location, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	out := make([]domain.Location, len(l.records[roomID]))
	copy(out, l.records[roomID])
	return out, nil
}

func (l *stubLister) set(roomID string, records ...domain.Location) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[roomID] = records
}

func (l *stubLister) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func live(roomID, userID string, at time.Time) domain.Location {
	return domain.Location{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		UserID:    userID,
		Timestamp: at,
		Kind:      domain.KindLivePosition,
	}
}

func marker(roomID, userID, name string, at time.Time) domain.Location {
	return domain.Location{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		UserID:    userID,
		Timestamp: at,
		Kind:      domain.KindCustomMarker,
		Name:      name,
	}
}

func waitForSize(t *testing.T, sub *feed.Subscription, size int) []domain.Location {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case view, ok := <-sub.Updates():
			require.True(t, ok, "subscription closed while waiting")
			if len(view) == size {
				return view
			}
		case <-deadline:
			t.Fatalf("no projection of size %d arrived", size)
		}
	}
}

func TestSubscribeBootstrapSnapshot(t *testing.T) {
	lister := newStubLister()
	now := time.Now().UTC()
	lister.set("room-1",
		live("room-1", "user-a", now),
		marker("room-1", "user-b", "Café", now),
	)

	mux := feed.NewMultiplexer(lister, logging.NewNopLogger(), 8)

	sub, err := mux.Subscribe(context.Background(), "room-1")
	require.NoError(t, err)
	defer sub.Close()

	view := waitForSize(t, sub, 2)
	assert.Len(t, view, 2)
}

func TestSubscribeEmptyRoom(t *testing.T) {
	mux := feed.NewMultiplexer(newStubLister(), logging.NewNopLogger(), 8)

	sub, err := mux.Subscribe(context.Background(), "room-1")
	require.NoError(t, err)
	defer sub.Close()

	view := waitForSize(t, sub, 0)
	assert.Empty(t, view)
}

func TestSubscribeRequiresRoom(t *testing.T) {
	mux := feed.NewMultiplexer(newStubLister(), logging.NewNopLogger(), 8)

	_, err := mux.Subscribe(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSubscribeSnapshotFailureDetaches(t *testing.T) {
	lister := newStubLister()
	lister.fail(errors.New("backend down"))

	mux := feed.NewMultiplexer(lister, logging.NewNopLogger(), 8)

	_, err := mux.Subscribe(context.Background(), "room-1")
	require.Error(t, err)

	// A later publish must not panic or deliver to the failed subscriber.
	mux.Publish(feed.Event{Kind: feed.EventInserted, Record: live("room-1", "user-a", time.Now())})
}

func TestPublishUpdatesProjection(t *testing.T) {
	lister := newStubLister()
	mux := feed.NewMultiplexer(lister, logging.NewNopLogger(), 8)

	sub, err := mux.Subscribe(context.Background(), "room-1")
	require.NoError(t, err)
	defer sub.Close()
	waitForSize(t, sub, 0)

	now := time.Now().UTC()
	pos := live("room-1", "user-a", now)
	mux.Publish(feed.Event{Kind: feed.EventInserted, Record: pos})
	view := waitForSize(t, sub, 1)
	assert.Equal(t, pos.ID, view[0].ID)

	// A newer position for the same user replaces, never accumulates.
	newer := live("room-1", "user-a", now.Add(time.Second))
	mux.Publish(feed.Event{Kind: feed.EventInserted, Record: newer})
	view = waitForSize(t, sub, 1)
	assert.Equal(t, newer.ID, view[0].ID)

	mux.Publish(feed.Event{Kind: feed.EventDeleted, Record: newer})
	waitForSize(t, sub, 1) // older record resurfaces from the replica
}

func TestPublishIgnoresOtherRooms(t *testing.T) {
	lister := newStubLister()
	mux := feed.NewMultiplexer(lister, logging.NewNopLogger(), 8)

	sub, err := mux.Subscribe(context.Background(), "room-1")
	require.NoError(t, err)
	defer sub.Close()
	waitForSize(t, sub, 0)

	mux.Publish(feed.Event{Kind: feed.EventInserted, Record: live("room-2", "user-a", time.Now())})

	select {
	case view := <-sub.Updates():
		assert.Empty(t, view, "foreign-room event must not change the view")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestIndependentSubscribers(t *testing.T) {
	lister := newStubLister()
	mux := feed.NewMultiplexer(lister, logging.NewNopLogger(), 8)
	ctx := context.Background()

	fast, err := mux.Subscribe(ctx, "room-1")
	require.NoError(t, err)
	defer fast.Close()

	slow, err := mux.Subscribe(ctx, "room-1")
	require.NoError(t, err)
	defer slow.Close()

	waitForSize(t, fast, 0)

	// The slow subscriber never reads; the fast one must still see every
	// projection change.
	now := time.Now().UTC()
	for i := 0; i < 200; i++ {
		mux.Publish(feed.Event{Kind: feed.EventInserted, Record: marker("room-1", "user-a", fmt.Sprintf("m%d", i), now)})
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case view := <-fast.Updates():
			if len(view) == 200 {
				return
			}
		case <-deadline:
			t.Fatal("fast subscriber stalled behind slow one")
		}
	}
}

func TestSlowConsumerResyncs(t *testing.T) {
	lister := newStubLister()
	mux := feed.NewMultiplexer(lister, logging.NewNopLogger(), 2)
	ctx := context.Background()

	sub, err := mux.Subscribe(ctx, "room-1")
	require.NoError(t, err)
	defer sub.Close()
	waitForSize(t, sub, 0)

	// Overwhelm the 2-slot buffer. Dropped events schedule a resync, which
	// rebuilds the replica from the lister, so the view converges on the
	// authoritative record set regardless of what was dropped.
	now := time.Now().UTC()
	records := make([]domain.Location, 0, 50)
	for i := 0; i < 50; i++ {
		rec := marker("room-1", "user-a", fmt.Sprintf("m%d", i), now)
		records = append(records, rec)
	}
	lister.set("room-1", records...)
	for _, rec := range records {
		mux.Publish(feed.Event{Kind: feed.EventInserted, Record: rec})
	}

	view := waitForSize(t, sub, 50)
	assert.Len(t, view, 50)
}

func TestCloseIdempotentAndClosesUpdates(t *testing.T) {
	lister := newStubLister()
	mux := feed.NewMultiplexer(lister, logging.NewNopLogger(), 8)

	sub, err := mux.Subscribe(context.Background(), "room-1")
	require.NoError(t, err)
	waitForSize(t, sub, 0)

	sub.Close()
	sub.Close()
	mux.Unsubscribe(sub)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("updates channel not closed after Close")
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	lister := newStubLister()
	mux := feed.NewMultiplexer(lister, logging.NewNopLogger(), 8)

	sub, err := mux.Subscribe(context.Background(), "room-1")
	require.NoError(t, err)
	waitForSize(t, sub, 0)

	mux.Unsubscribe(sub)

	// Delivery after detach must not panic; the loop is already stopping.
	mux.Publish(feed.Event{Kind: feed.EventInserted, Record: live("room-1", "user-a", time.Now())})
}

func TestMarkersReflectsReplica(t *testing.T) {
	lister := newStubLister()
	now := time.Now().UTC()
	lister.set("room-1", marker("room-1", "user-a", "Café", now))

	mux := feed.NewMultiplexer(lister, logging.NewNopLogger(), 8)

	sub, err := mux.Subscribe(context.Background(), "room-1")
	require.NoError(t, err)
	defer sub.Close()
	waitForSize(t, sub, 1)

	view := sub.Markers()
	require.Len(t, view, 1)
	assert.Equal(t, "Café", view[0].Name)
}
