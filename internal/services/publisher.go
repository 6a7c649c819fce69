package services

import (
	"encoding/json"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/notifyng/dispatch/internal/models"
)

// Publisher emits terminal status events to the notifications.status
// exchange, routed by channel.
type Publisher struct {
	conn   *amqp.Connection
	logger *slog.Logger
}

// NewPublisher creates a new Publisher.
func NewPublisher(conn *amqp.Connection, logger *slog.Logger) *Publisher {
	return &Publisher{conn: conn, logger: logger}
}

// Published implements the orchestrator's status-event hook. Publishing is
// best-effort: a broker failure is logged and never touches the record.
func (p *Publisher) Published(event models.StatusEvent) {
	if err := p.publish(event); err != nil {
		p.logger.Warn("failed to publish status event",
			slog.String("idempotency_key", event.IdempotencyKey),
			slog.Any("error", err))
	}
}

func (p *Publisher) publish(event models.StatusEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return ch.Publish(
		"notifications.status", // exchange
		string(event.Channel),  // routing key
		false,                  // mandatory
		false,                  // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
}
