package events

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"

	"github.com/G1okz/Geo-app/internal/domain"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
	"github.com/G1okz/Geo-app/internal/infrastructure/messaging"
)

// auditConsumer drains the room and location queues into the audit log.
type auditConsumer struct {
	rabbitmq *messaging.RabbitMQ
	audits   domain.RoomAuditRepository
	logger   logging.Logger
}

func NewAuditConsumer(rabbitmq *messaging.RabbitMQ, audits domain.RoomAuditRepository, logger logging.Logger) *auditConsumer {
	return &auditConsumer{
		rabbitmq: rabbitmq,
		audits:   audits,
		logger:   logger,
	}
}

func (c *auditConsumer) Listen() error {
	if err := c.rabbitmq.ConsumeMessages(messaging.RoomsQueue, c.handleRoomEvent); err != nil {
		return err
	}
	return c.rabbitmq.ConsumeMessages(messaging.LocationsQueue, c.handleLocationEvent)
}

func (c *auditConsumer) handleRoomEvent(ctx context.Context, msg amqp091.Delivery) error {
	var message messaging.AmqpMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		c.logUnmarshalError(err)
		return err
	}

	var payload messaging.RoomEventData
	if err := json.Unmarshal(message.Data, &payload); err != nil {
		c.logUnmarshalError(err)
		return err
	}

	entry := domain.NewRoomAuditLog(payload.Room.ID, payload.EventType, map[string]any{
		"room_name": payload.Room.Name,
		"owner_id":  message.OwnerID,
	})

	return c.audits.Log(ctx, entry)
}

func (c *auditConsumer) handleLocationEvent(ctx context.Context, msg amqp091.Delivery) error {
	var message messaging.AmqpMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		c.logUnmarshalError(err)
		return err
	}

	var payload messaging.LocationEventData
	if err := json.Unmarshal(message.Data, &payload); err != nil {
		c.logUnmarshalError(err)
		return err
	}

	entry := domain.NewRoomAuditLog(payload.Record.RoomID, domain.EventLocationChanged, map[string]any{
		"change":  string(payload.Kind),
		"kind":    string(payload.Record.Kind),
		"user_id": payload.Record.UserID,
	})

	return c.audits.Log(ctx, entry)
}

func (c *auditConsumer) logUnmarshalError(err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(logging.RabbitMQ, logging.ExternalService, "failed to unmarshal message", map[logging.ExtraKey]any{
		logging.ErrorMessage: err.Error(),
	})
}
