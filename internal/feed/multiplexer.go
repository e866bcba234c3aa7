package feed

import (
	"context"
	"sync"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
	"github.com/G1okz/Geo-app/internal/infrastructure/metrics"
)

const defaultSubscriberBuffer = 64

// Multiplexer fans change events out to room subscribers. Broadcasters are
// created on first subscribe and removed with the last unsubscribe; there is
// no process-wide registry beyond this object.
type Multiplexer struct {
	lister Lister
	logger logging.Logger
	buffer int

	mu    sync.Mutex
	rooms map[string]*roomBroadcaster
}

func NewMultiplexer(lister Lister, logger logging.Logger, subscriberBuffer int) *Multiplexer {
	if lister == nil {
		panic("feed: lister is required")
	}
	if subscriberBuffer <= 0 {
		subscriberBuffer = defaultSubscriberBuffer
	}

	return &Multiplexer{
		lister: lister,
		logger: logger,
		buffer: subscriberBuffer,
		rooms:  make(map[string]*roomBroadcaster),
	}
}

// Publish delivers ev to every current subscriber of the record's room.
// Rooms without subscribers are skipped entirely.
func (m *Multiplexer) Publish(ev Event) {
	metrics.FeedEventsPublished.WithLabelValues(string(ev.Kind)).Inc()

	m.mu.Lock()
	b := m.rooms[ev.Record.RoomID]
	m.mu.Unlock()

	if b == nil {
		return
	}
	b.publish(ev)
}

// Subscribe attaches a new subscription to roomID and establishes its initial
// snapshot. Attachment happens before the snapshot read, so a mutation
// committed between the two is observed either in the snapshot, in the event
// stream, or both; applying it twice is harmless because records are keyed
// by ID.
func (m *Multiplexer) Subscribe(ctx context.Context, roomID string) (*Subscription, error) {
	if roomID == "" {
		return nil, domain.ErrInvalidInput
	}

	sub := newSubscription(m, roomID, m.buffer)

	m.mu.Lock()
	b, ok := m.rooms[roomID]
	if !ok {
		b = newRoomBroadcaster(roomID)
		m.rooms[roomID] = b
	}
	b.add(sub)
	m.mu.Unlock()

	records, err := m.lister.ListByRoom(ctx, roomID)
	if err != nil {
		m.detach(sub)
		return nil, err
	}

	metrics.FeedActiveSubscriptions.Inc()
	sub.bootstrap(records)

	go sub.run()

	return sub, nil
}

// Unsubscribe stops delivery to sub. Safe to call repeatedly and equivalent
// to sub.Close.
func (m *Multiplexer) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.Close()
}

func (m *Multiplexer) detach(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.rooms[sub.roomID]
	if !ok {
		return
	}

	b.remove(sub)
	if b.empty() {
		delete(m.rooms, sub.roomID)
	}
}

type roomBroadcaster struct {
	roomID string

	mu   sync.RWMutex
	subs map[string]*Subscription
}

func newRoomBroadcaster(roomID string) *roomBroadcaster {
	return &roomBroadcaster{
		roomID: roomID,
		subs:   make(map[string]*Subscription),
	}
}

func (b *roomBroadcaster) add(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub.ID] = sub
}

func (b *roomBroadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub.ID)
}

func (b *roomBroadcaster) empty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs) == 0
}

func (b *roomBroadcaster) publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		sub.offer(ev)
	}
}
