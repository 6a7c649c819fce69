package models

import (
	"fmt"
	"time"
)

// Channel is one delivery medium for a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
	ChannelPush  Channel = "push"
)

// AllChannels is the fixed expansion set. Every dispatch produces exactly one
// record per channel listed here, whether or not the user has an address for
// it; missing addresses surface as failed records at send time.
var AllChannels = []Channel{ChannelEmail, ChannelSMS, ChannelInApp, ChannelPush}

// Status is the delivery state of a single attempt record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// CanTransition reports whether a record may move from s to next. Statuses
// only move forward: pending is the sole non-terminal state.
func (s Status) CanTransition(next Status) bool {
	return s == StatusPending && (next == StatusSent || next == StatusFailed)
}

// Contact is the delivery contact data resolved for a user.
type Contact struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	PushToken   string `json:"push_token"`
}

// NotificationRecord is one per-channel delivery attempt. Records are created
// pending before any send is tried and are mutated exactly once, when the
// send attempt reaches its terminal status.
type NotificationRecord struct {
	ID               string                 `gorm:"primaryKey" json:"id"`
	UserID           string                 `gorm:"index" json:"user_id"`
	Event            string                 `json:"event"`
	NotificationType string                 `json:"notification_type"`
	Channel          Channel                `json:"channel"`
	Title            string                 `json:"title"`
	Message          string                 `json:"message"`
	Priority         string                 `json:"priority"`
	Status           Status                 `json:"status"`
	FailureReason    string                 `json:"failure_reason,omitempty"`
	IsRead           bool                   `json:"is_read"`
	IdempotencyKey   string                 `gorm:"uniqueIndex" json:"idempotency_key"`
	Metadata         map[string]interface{} `gorm:"serializer:json" json:"metadata"`
	CreatedAt        time.Time              `json:"created_at"`
}

// ChannelKey derives the per-channel idempotency key from a request's base
// key. The pair (base, channel) is unique across the system.
func ChannelKey(base string, ch Channel) string {
	return base + "_" + string(ch)
}

// DeriveBaseKey builds a base idempotency key for requests that did not
// supply one.
func DeriveBaseKey(userID, event string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", userID, event, at.UnixMilli())
}
