package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrNotMarkerAuthor  = errors.New("requester did not create this marker")
)

// LocationKind tags the two record variants sharing the Location shape.
type LocationKind string

const (
	// KindLivePosition is the continuously-updated "where the user is now"
	// record. At most one is logically current per (room, user); stale
	// duplicates may exist physically and are resolved by projection.
	KindLivePosition LocationKind = "live"

	// KindCustomMarker is a user-authored point of interest. Unlimited per
	// user, deleted individually.
	KindCustomMarker LocationKind = "marker"
)

// Location is a single position record owned by its room and attributed to
// the reporting user. Name and Description are only meaningful for custom
// markers.
type Location struct {
	ID          string       `bson:"_id" json:"id"`
	RoomID      string       `bson:"room_id" json:"room_id"`
	UserID      string       `bson:"user_id" json:"user_id"`
	UserName    string       `bson:"user_name" json:"user_name"`
	Latitude    float64      `bson:"latitude" json:"latitude"`
	Longitude   float64      `bson:"longitude" json:"longitude"`
	Timestamp   time.Time    `bson:"timestamp" json:"timestamp"`
	Kind        LocationKind `bson:"kind" json:"kind"`
	Name        string       `bson:"name,omitempty" json:"name,omitempty"`
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
}

func (l *Location) IsCustomMarker() bool {
	return l.Kind == KindCustomMarker
}

type LocationRepository interface {
	// UpsertLive replaces the live-position record keyed by
	// (room_id, user_id) or inserts one if absent, as a single primitive.
	// It reports whether a new record was inserted.
	UpsertLive(ctx context.Context, loc *Location) (inserted bool, err error)

	Insert(ctx context.Context, loc *Location) error
	GetByID(ctx context.Context, id string) (*Location, error)

	// Deletes are idempotent: removing what is already gone is not an error.
	Delete(ctx context.Context, id string) error
	DeleteByRoom(ctx context.Context, roomID string) error
	DeleteByRoomAndUser(ctx context.Context, roomID, userID string) error

	// ListByRoom returns the full raw record set for a room sorted by
	// timestamp descending.
	ListByRoom(ctx context.Context, roomID string) ([]Location, error)
}

func NewLivePosition(roomID, userID, userName string, lat, lng float64, at time.Time) (*Location, error) {
	if roomID == "" || userID == "" {
		return nil, ErrInvalidInput
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	return &Location{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		UserID:    userID,
		UserName:  userName,
		Latitude:  lat,
		Longitude: lng,
		Timestamp: at,
		Kind:      KindLivePosition,
	}, nil
}

func NewCustomMarker(roomID, userID, userName, name, description string, lat, lng float64, at time.Time) (*Location, error) {
	if roomID == "" || userID == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	return &Location{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		UserID:      userID,
		UserName:    userName,
		Latitude:    lat,
		Longitude:   lng,
		Timestamp:   at,
		Kind:        KindCustomMarker,
		Name:        strings.TrimSpace(name),
		Description: description,
	}, nil
}
