package events

import (
	"context"
	"encoding/json"

	"github.com/G1okz/Geo-app/internal/feed"
	"github.com/G1okz/Geo-app/internal/infrastructure/messaging"
)

// LocationPublisher forwards committed location events to the broker. It is
// the store's remote publisher.
type LocationPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewLocationPublisher(rabbitmq *messaging.RabbitMQ) *LocationPublisher {
	return &LocationPublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *LocationPublisher) PublishLocationEvent(ctx context.Context, ev feed.Event) error {
	payload := messaging.LocationEventData{
		Kind:   ev.Kind,
		Record: ev.Record,
	}

	locationEventJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, messaging.LocationExchange, routingKeyFor(ev.Kind), messaging.AmqpMessage{
		OwnerID: ev.Record.UserID,
		Data:    locationEventJSON,
	})
}

func routingKeyFor(kind feed.EventKind) string {
	switch kind {
	case feed.EventUpdated:
		return messaging.EventLocationUpdated
	case feed.EventDeleted:
		return messaging.EventLocationDeleted
	default:
		return messaging.EventLocationInserted
	}
}
