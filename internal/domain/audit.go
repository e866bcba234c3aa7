package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RoomEventType string

const (
	EventRoomCreated     RoomEventType = "room_created"
	EventRoomDeleted     RoomEventType = "room_deleted"
	EventMemberJoined    RoomEventType = "member_joined"
	EventMemberLeft      RoomEventType = "member_left"
	EventLocationChanged RoomEventType = "location_changed"
)

type RoomAuditLog struct {
	ID        string         `bson:"_id" json:"id"`
	RoomID    string         `bson:"room_id" json:"room_id"`
	EventType RoomEventType  `bson:"event_type" json:"event_type"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type RoomAuditRepository interface {
	Log(ctx context.Context, log *RoomAuditLog) error
	GetByRoomID(ctx context.Context, roomID string, limit int) ([]RoomAuditLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	EnsureIndexes(ctx context.Context) error
}

func NewRoomAuditLog(roomID string, eventType RoomEventType, metadata map[string]any) *RoomAuditLog {
	return &RoomAuditLog{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}
