package messaging

import (
	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/feed"
)

const (
	LocationsQueue  = "locations"
	RoomsQueue      = "rooms"
	DeadLetterQueue = "dead_letter_queue"
)

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	OwnerID string `json:"ownerId"`
	Data    []byte `json:"data"`
}

// Routing keys - using consistent event patterns
const (
	EventLocationInserted = "location.inserted"
	EventLocationUpdated  = "location.updated"
	EventLocationDeleted  = "location.deleted"

	EventRoomCreated  = "room.created"
	EventRoomDeleted  = "room.deleted"
	EventMemberJoined = "member.joined"
	EventMemberLeft   = "member.left"
)

type RoomEventData struct {
	EventType domain.RoomEventType `json:"event_type"`
	Room      domain.Room          `json:"room"`
}

type LocationEventData struct {
	Kind   feed.EventKind  `json:"kind"`
	Record domain.Location `json:"record"`
}
