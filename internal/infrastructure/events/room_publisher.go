package events

import (
	"context"
	"encoding/json"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/infrastructure/messaging"
)

// RoomPublisher forwards room lifecycle events to the broker. It is the
// registry's remote publisher.
type RoomPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewRoomPublisher(rabbitmq *messaging.RabbitMQ) *RoomPublisher {
	return &RoomPublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *RoomPublisher) PublishRoomEvent(ctx context.Context, eventType domain.RoomEventType, room domain.Room) error {
	payload := messaging.RoomEventData{
		EventType: eventType,
		Room:      room,
	}

	roomEventJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, messaging.RoomExchange, routingKeyForRoomEvent(eventType), messaging.AmqpMessage{
		OwnerID: room.CreatedBy,
		Data:    roomEventJSON,
	})
}

func routingKeyForRoomEvent(eventType domain.RoomEventType) string {
	switch eventType {
	case domain.EventRoomDeleted:
		return messaging.EventRoomDeleted
	case domain.EventMemberJoined:
		return messaging.EventMemberJoined
	case domain.EventMemberLeft:
		return messaging.EventMemberLeft
	default:
		return messaging.EventRoomCreated
	}
}
