package models

import "time"

// StatusEvent is the message published when a delivery attempt reaches a
// terminal status. Downstream consumers (audit, inbox sync) key on the
// idempotency key.
type StatusEvent struct {
	IdempotencyKey string    `json:"idempotency_key"`
	UserID         string    `json:"user_id"`
	Event          string    `json:"event"`
	Channel        Channel   `json:"channel"`
	Status         Status    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
