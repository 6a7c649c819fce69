package models

import "errors"

// DispatchRequest is the immutable input to the dispatch orchestrator. An
// empty IdempotencyKey makes the orchestrator derive one from the user,
// event, and dispatch timestamp.
type DispatchRequest struct {
	UserID         string                 `json:"user_id" binding:"required"`
	Event          string                 `json:"event" binding:"required"`
	Payload        map[string]interface{} `json:"payload"`
	IdempotencyKey string                 `json:"idempotency_key"`
}

// Normalize validates required fields and fills defaults.
func (r *DispatchRequest) Normalize() error {
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if r.Event == "" {
		return errors.New("event is required")
	}
	if r.Payload == nil {
		r.Payload = map[string]interface{}{}
	}
	return nil
}
