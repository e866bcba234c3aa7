// Package store implements the location store: the authoritative per-room
// record set. Every committed mutation is fanned out to the local change feed
// and, best effort, to the message broker.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/feed"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
	"github.com/G1okz/Geo-app/internal/infrastructure/metrics"
)

// RemotePublisher forwards committed events to out-of-process consumers.
// Failures are a transport concern: they are logged and never fail the
// mutation that produced the event.
type RemotePublisher interface {
	PublishLocationEvent(ctx context.Context, ev feed.Event) error
}

type Store struct {
	locations domain.LocationRepository
	mux       *feed.Multiplexer
	remote    RemotePublisher
	logger    logging.Logger
}

func New(locations domain.LocationRepository, mux *feed.Multiplexer, remote RemotePublisher, logger logging.Logger) *Store {
	if locations == nil {
		panic("store: location repository is required")
	}

	return &Store{
		locations: locations,
		mux:       mux,
		remote:    remote,
		logger:    logger,
	}
}

// ReportPosition applies a live-position sample with last-write-wins
// semantics: the repository replaces the record keyed by (room, user) or
// inserts it as a single primitive.
func (s *Store) ReportPosition(ctx context.Context, roomID, userID, userName string, lat, lng float64, at time.Time) (*domain.Location, error) {
	loc, err := domain.NewLivePosition(roomID, userID, userName, lat, lng, at)
	if err != nil {
		return nil, err
	}

	inserted, err := s.locations.UpsertLive(ctx, loc)
	if err != nil {
		return nil, err
	}

	metrics.LivePositionUpserts.Inc()

	kind := feed.EventUpdated
	if inserted {
		kind = feed.EventInserted
	}
	s.publish(ctx, feed.Event{Kind: kind, Record: *loc})

	return loc, nil
}

// AddMarker inserts a new custom marker record. Markers are never deduped.
func (s *Store) AddMarker(ctx context.Context, roomID, userID, userName, name, description string, lat, lng float64, at time.Time) (*domain.Location, error) {
	loc, err := domain.NewCustomMarker(roomID, userID, userName, name, description, lat, lng, at)
	if err != nil {
		return nil, err
	}

	if err := s.locations.Insert(ctx, loc); err != nil {
		return nil, err
	}

	metrics.CustomMarkerInserts.Inc()
	s.publish(ctx, feed.Event{Kind: feed.EventInserted, Record: *loc})

	return loc, nil
}

// GetLocation returns a single record by ID.
func (s *Store) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	return s.locations.GetByID(ctx, id)
}

// RemoveLocation deletes one record. Removing an absent record succeeds
// silently: deletes are idempotent.
func (s *Store) RemoveLocation(ctx context.Context, id string) error {
	loc, err := s.locations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrLocationNotFound) {
			return nil
		}
		return err
	}

	if err := s.locations.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, feed.Event{Kind: feed.EventDeleted, Record: *loc})
	return nil
}

// RemoveAllForRoom deletes every record of a room, emitting a delete event
// per record so replicas converge without a resync.
func (s *Store) RemoveAllForRoom(ctx context.Context, roomID string) error {
	records, err := s.locations.ListByRoom(ctx, roomID)
	if err != nil {
		return err
	}

	if err := s.locations.DeleteByRoom(ctx, roomID); err != nil {
		return err
	}

	for _, rec := range records {
		s.publish(ctx, feed.Event{Kind: feed.EventDeleted, Record: rec})
	}
	return nil
}

// RemoveAllForUserInRoom deletes a user's live position and custom markers
// in one room; used when the user leaves.
func (s *Store) RemoveAllForUserInRoom(ctx context.Context, roomID, userID string) error {
	records, err := s.locations.ListByRoom(ctx, roomID)
	if err != nil {
		return err
	}

	if err := s.locations.DeleteByRoomAndUser(ctx, roomID, userID); err != nil {
		return err
	}

	for _, rec := range records {
		if rec.UserID != userID {
			continue
		}
		s.publish(ctx, feed.Event{Kind: feed.EventDeleted, Record: rec})
	}
	return nil
}

// ListByRoom returns the raw record set sorted by timestamp descending. The
// store is the feed.Lister used to bootstrap subscriptions.
func (s *Store) ListByRoom(ctx context.Context, roomID string) ([]domain.Location, error) {
	return s.locations.ListByRoom(ctx, roomID)
}

func (s *Store) publish(ctx context.Context, ev feed.Event) {
	if s.mux != nil {
		s.mux.Publish(ev)
	}

	if s.remote == nil {
		return
	}
	if err := s.remote.PublishLocationEvent(ctx, ev); err != nil && s.logger != nil {
		s.logger.Warn(logging.RabbitMQ, logging.Broadcast, "failed to publish location event", map[logging.ExtraKey]any{
			logging.RoomId:       ev.Record.RoomID,
			logging.ErrorMessage: err.Error(),
		})
	}
}
