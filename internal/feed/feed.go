// Package feed delivers room-scoped change events to subscribers. Each
// subscriber owns a private replica of the room's raw record set and re-runs
// the projection after every applied event, so a slow or failed subscriber
// never affects what the others see.
package feed

import (
	"context"

	"github.com/G1okz/Geo-app/internal/domain"
)

type EventKind string

const (
	EventInserted EventKind = "inserted"
	EventUpdated  EventKind = "updated"
	EventDeleted  EventKind = "deleted"
)

// Event describes one committed mutation of a room's record set.
type Event struct {
	Kind   EventKind       `json:"kind"`
	Record domain.Location `json:"record"`
}

// Lister is the read side a subscriber needs to establish (or repair) its
// snapshot. The feed alone is not complete for records that predate the
// subscription.
type Lister interface {
	ListByRoom(ctx context.Context, roomID string) ([]domain.Location, error)
}
