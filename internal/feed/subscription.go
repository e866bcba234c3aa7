package feed

import (
	"context"
	"sync"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
	"github.com/G1okz/Geo-app/internal/infrastructure/metrics"
	"github.com/G1okz/Geo-app/internal/projection"
	"github.com/google/uuid"
)

// Subscription is one subscriber's handle on a room's change feed. It holds
// a private replica of the raw record set and publishes the recomputed
// visible marker set on Updates after every applied event.
type Subscription struct {
	ID     string
	roomID string
	mux    *Multiplexer

	events  chan Event
	resync  chan struct{}
	done    chan struct{}
	updates chan []domain.Location

	closeOnce sync.Once

	mu      sync.Mutex
	replica map[string]domain.Location
}

func newSubscription(m *Multiplexer, roomID string, buffer int) *Subscription {
	return &Subscription{
		ID:      uuid.NewString(),
		roomID:  roomID,
		mux:     m,
		events:  make(chan Event, buffer),
		resync:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		updates: make(chan []domain.Location, 1),
		replica: make(map[string]domain.Location),
	}
}

func (s *Subscription) RoomID() string {
	return s.roomID
}

// Updates yields the visible marker set after the initial snapshot and after
// every applied event. The channel holds only the latest projection:
// intermediate states may be coalesced, the final state never is. It is
// closed when the subscription closes.
func (s *Subscription) Updates() <-chan []domain.Location {
	return s.updates
}

// Markers returns the projection of the current replica.
func (s *Subscription) Markers() []domain.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project()
}

// Close detaches the subscription and stops its delivery loop. Idempotent;
// once Close returns no further update is emitted.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.mux.detach(s)
		close(s.done)
		metrics.FeedActiveSubscriptions.Dec()
	})
}

// offer hands an event to the subscription without ever blocking the
// broadcaster. When the buffer is full the event is dropped and a resync is
// scheduled, so the replica converges on the store state again.
func (s *Subscription) offer(ev Event) {
	select {
	case s.events <- ev:
	default:
		metrics.FeedEventsDropped.Inc()
		select {
		case s.resync <- struct{}{}:
		default:
		}
	}
}

func (s *Subscription) bootstrap(records []domain.Location) {
	s.mu.Lock()
	s.replica = make(map[string]domain.Location, len(records))
	for _, rec := range records {
		s.replica[rec.ID] = rec
	}
	projected := s.project()
	s.mu.Unlock()

	s.emit(projected)
}

func (s *Subscription) run() {
	defer close(s.updates)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.emit(s.apply(ev))
		case <-s.resync:
			projected, err := s.refresh()
			if err != nil {
				if s.mux.logger != nil {
					s.mux.logger.Warn(logging.Feed, logging.Subscription, "replica resync failed", map[logging.ExtraKey]any{
						logging.RoomId:       s.roomID,
						logging.ErrorMessage: err.Error(),
					})
				}
				// Try again on the next event or resync signal.
				continue
			}
			s.emit(projected)
		}
	}
}

func (s *Subscription) apply(ev Event) []domain.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case EventInserted, EventUpdated:
		s.replica[ev.Record.ID] = ev.Record
	case EventDeleted:
		delete(s.replica, ev.Record.ID)
	}

	return s.project()
}

func (s *Subscription) refresh() ([]domain.Location, error) {
	records, err := s.mux.lister.ListByRoom(context.Background(), s.roomID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.replica = make(map[string]domain.Location, len(records))
	for _, rec := range records {
		s.replica[rec.ID] = rec
	}

	return s.project(), nil
}

// project assumes s.mu is held.
func (s *Subscription) project() []domain.Location {
	records := make([]domain.Location, 0, len(s.replica))
	for _, rec := range s.replica {
		records = append(records, rec)
	}
	return projection.VisibleMarkers(records)
}

// emit publishes the latest projection, displacing an unconsumed older one.
func (s *Subscription) emit(projected []domain.Location) {
	for {
		select {
		case s.updates <- projected:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}
