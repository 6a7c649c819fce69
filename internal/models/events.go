package models

// EventConfig carries the static classification for a configured event type.
type EventConfig struct {
	NotificationType string
	Priority         string
}

// eventConfigs is the closed registry of events the service dispatches. A
// request for an event outside this set is a configuration error and fails
// before any record is created.
var eventConfigs = map[string]EventConfig{
	"user_registered":  {NotificationType: "account", Priority: "high"},
	"password_reset":   {NotificationType: "security", Priority: "high"},
	"order_created":    {NotificationType: "transactional", Priority: "normal"},
	"order_shipped":    {NotificationType: "transactional", Priority: "normal"},
	"payment_received": {NotificationType: "billing", Priority: "high"},
	"promo_weekly":     {NotificationType: "marketing", Priority: "low"},
}

// EventConfigFor looks up the configuration for an event type.
func EventConfigFor(event string) (EventConfig, bool) {
	cfg, ok := eventConfigs[event]
	return cfg, ok
}
