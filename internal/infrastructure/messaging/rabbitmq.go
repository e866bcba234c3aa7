package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	LocationExchange   = "location"
	RoomExchange       = "room"
	DeadLetterExchange = "dlx"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

func NewRabbitMQ(uri string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %v", err)
	}

	rmq := &RabbitMQ{
		conn:    conn,
		Channel: ch,
	}

	if err := rmq.setup(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

func (r *RabbitMQ) Close() {
	if r.conn != nil {
		r.conn.Close()
	}
	if r.Channel != nil {
		r.Channel.Close()
	}
}

func (r *RabbitMQ) setup() error {
	for _, exchange := range []string{LocationExchange, RoomExchange} {
		if err := r.Channel.ExchangeDeclare(
			exchange, // name
			"topic",  // type
			true,     // durable
			false,    // auto-deleted
			false,    // internal
			false,    // no-wait
			nil,      // arguments
		); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %v", exchange, err)
		}
	}

	if err := r.Channel.ExchangeDeclare(DeadLetterExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter exchange: %v", err)
	}

	q, err := r.Channel.QueueDeclare(DeadLetterQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare dead letter queue: %v", err)
	}
	if err := r.Channel.QueueBind(q.Name, "", DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead letter queue: %v", err)
	}

	if err := r.declareAndBindQueue(LocationsQueue, []string{
		EventLocationInserted,
		EventLocationUpdated,
		EventLocationDeleted,
	}, LocationExchange); err != nil {
		return err
	}

	return r.declareAndBindQueue(RoomsQueue, []string{
		EventRoomCreated,
		EventRoomDeleted,
		EventMemberJoined,
		EventMemberLeft,
	}, RoomExchange)
}

func (r *RabbitMQ) declareAndBindQueue(queueName string, messageTypes []string, exchange string) error {
	// Add dead letter configuration
	args := amqp.Table{
		"x-dead-letter-exchange": DeadLetterExchange,
	}

	q, err := r.Channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		args,      // arguments with DLX config
	)
	if err != nil {
		log.Fatal(err)
	}

	for _, msg := range messageTypes {
		if err := r.Channel.QueueBind(
			q.Name,   // queue name
			msg,      // routing key
			exchange, // exchange
			false,
			nil,
		); err != nil {
			return fmt.Errorf("failed to bind queue to %s: %v", queueName, err)
		}
	}

	return nil
}

// PublishMessage publishes msg under routingKey on exchange.
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchange, routingKey string, msg AmqpMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %v", err)
	}

	return r.Channel.PublishWithContext(ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}

// ConsumeMessages delivers each message from queueName to handler. A handler
// error rejects the delivery without requeue, so it lands on the dead letter
// exchange.
func (r *RabbitMQ) ConsumeMessages(queueName string, handler func(ctx context.Context, msg amqp.Delivery) error) error {
	deliveries, err := r.Channel.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %v", queueName, err)
	}

	go func() {
		ctx := context.Background()
		for msg := range deliveries {
			if err := handler(ctx, msg); err != nil {
				msg.Nack(false, false)
				continue
			}
			msg.Ack(false)
		}
	}()

	return nil
}
