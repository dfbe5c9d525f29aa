package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"avatar-chat/internal/model"
)

// TurnPublisher announces completed chat turns on a durable queue.
type TurnPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewTurnPublisher(conn *amqp.Connection, queueName string) *TurnPublisher {
	return &TurnPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *TurnPublisher) PublishTurn(ctx context.Context, event model.TurnEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if _, err := declareQueue(ch, p.queueName); err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal turn event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish turn event failed: %w", err)
	}
	return nil
}
