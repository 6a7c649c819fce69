package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/notifyng/dispatch/internal/models"
)

// send runs one channel's delivery policy and records the terminal status. A
// failure here is local to the record: it becomes a failed status and never
// surfaces to the dispatch caller or to sibling channels.
func (o *Orchestrator) send(ctx context.Context, record *models.NotificationRecord, contact *models.Contact) {
	defer func() {
		if r := recover(); r != nil {
			o.finish(ctx, record, models.StatusFailed, fmt.Sprintf("panic: %v", r))
		}
	}()

	status, reason := o.attempt(ctx, record, contact)
	o.finish(ctx, record, status, reason)
}

// attempt applies the per-channel send policy and returns the terminal status
// plus an optional human-readable failure reason.
func (o *Orchestrator) attempt(ctx context.Context, record *models.NotificationRecord, contact *models.Contact) (models.Status, string) {
	switch record.Channel {
	case models.ChannelEmail:
		address := stringOverride(record.Metadata, "email")
		if address == "" {
			address = contact.Email
		}
		if address == "" {
			return models.StatusFailed, "No Email"
		}
		ok, err := o.senders.Email.Send(ctx, address, record.Message, record.Title)
		if err != nil {
			return models.StatusFailed, err.Error()
		}
		if !ok {
			// Rejection attribution belongs to the provider's own error.
			return models.StatusFailed, ""
		}
		return models.StatusSent, ""

	case models.ChannelSMS:
		phone := stringOverride(record.Metadata, "phoneNumber")
		if phone == "" {
			phone = contact.PhoneNumber
		}
		if phone == "" {
			return models.StatusFailed, "No Phone"
		}
		normalized := NormalizePhone(phone)
		if normalized == "" {
			return models.StatusFailed, "Invalid phone number"
		}
		ok, err := o.senders.SMS.Send(ctx, normalized, record.Message)
		if err != nil {
			return models.StatusFailed, err.Error()
		}
		if !ok {
			return models.StatusFailed, ""
		}
		return models.StatusSent, ""

	case models.ChannelInApp:
		// Local feed entry; delivered by construction.
		return models.StatusSent, ""

	case models.ChannelPush:
		token := contact.PushToken
		if token == "" {
			secondary, err := o.tokens.LookupSecondary(ctx, record.UserID)
			if err != nil {
				return models.StatusFailed, err.Error()
			}
			token = secondary
		}
		if token == "" {
			return models.StatusFailed, "No FCM token"
		}
		title := record.Title
		if title == "" {
			title = "Notification"
		}
		ok, err := o.senders.Push.Send(ctx, token, title, record.Message, stringifyValues(record.Metadata))
		if err != nil {
			return models.StatusFailed, err.Error()
		}
		if !ok {
			return models.StatusFailed, ""
		}
		return models.StatusSent, ""
	}

	return models.StatusFailed, fmt.Sprintf("unsupported channel: %s", record.Channel)
}

// finish records the terminal status and emits the status event.
func (o *Orchestrator) finish(ctx context.Context, record *models.NotificationRecord, status models.Status, reason string) {
	if err := o.store.UpdateStatus(ctx, record.IdempotencyKey, status, reason); err != nil {
		o.logger.Error("failed to update attempt status",
			slog.String("idempotency_key", record.IdempotencyKey),
			slog.String("channel", string(record.Channel)),
			slog.Any("error", err))
		return
	}

	if status == models.StatusFailed {
		o.logger.Warn("channel send failed",
			slog.String("idempotency_key", record.IdempotencyKey),
			slog.String("channel", string(record.Channel)),
			slog.String("reason", reason))
	}

	if o.events != nil {
		o.events.Published(models.StatusEvent{
			IdempotencyKey: record.IdempotencyKey,
			UserID:         record.UserID,
			Event:          record.Event,
			Channel:        record.Channel,
			Status:         status,
			Reason:         reason,
			OccurredAt:     o.now(),
		})
	}
}

// stringOverride pulls a string-valued override out of the payload. Payloads
// may embed an explicit email or phoneNumber that takes precedence over the
// resolved contact.
func stringOverride(payload map[string]interface{}, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// stringifyValues coerces payload values to their string representation for
// transports that only accept string-valued data.
func stringifyValues(payload map[string]interface{}) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		out[k] = fmt.Sprint(v)
	}
	return out
}
