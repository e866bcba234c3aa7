package ws

import (
	"time"

	"github.com/G1okz/Geo-app/internal/domain"
)

type WSMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Data   any    `json:"data"`
}

// Payload structs
type SnapshotPayload struct {
	Markers []domain.Location `json:"markers"`
}

type PositionReportPayload struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

func NewMarkerSnapshot(roomID string, markers []domain.Location) *WSMessage {
	return &WSMessage{
		Type:   MarkerSnapshot,
		RoomID: roomID,
		Data:   SnapshotPayload{Markers: markers},
	}
}

func NewError(roomID, message string) *WSMessage {
	return &WSMessage{
		Type:   ErrorEvent,
		RoomID: roomID,
		Data: ErrorPayload{
			Message: message,
			Retry:   false,
		},
	}
}

func NewRoomDeleted(roomID string) *WSMessage {
	return &WSMessage{
		Type:   RoomDeleted,
		RoomID: roomID,
	}
}
