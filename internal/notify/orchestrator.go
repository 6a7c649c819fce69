package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/notifyng/dispatch/internal/models"
)

// ErrUnknownEvent reports a dispatch request for an event type that is not in
// the event registry.
var ErrUnknownEvent = errors.New("unknown event type")

// ContactResolver returns a user's delivery contact data. A nil contact with
// a nil error means the user does not exist.
type ContactResolver interface {
	Resolve(ctx context.Context, userID string) (*models.Contact, error)
}

// TemplateResolver supplies per-event template sets and renders template
// strings against a payload. Rendering is best-effort: unresolved
// placeholders stay in the output as literal text.
type TemplateResolver interface {
	Get(ctx context.Context, event string) (*models.TemplateSet, error)
	Render(template string, payload map[string]interface{}) string
}

// AttemptStore is the durable store for delivery attempt records, keyed by
// idempotency key.
type AttemptStore interface {
	// Create persists a record. It is a no-op when a record with the same
	// idempotency key already exists.
	Create(ctx context.Context, record *models.NotificationRecord) error
	// UpdateStatus moves the record identified by key to a terminal status.
	UpdateStatus(ctx context.Context, key string, status models.Status, reason string) error
}

// TokenStore is the secondary push-token lookup, consulted when the contact
// record carries no token of its own.
type TokenStore interface {
	LookupSecondary(ctx context.Context, userID string) (string, error)
}

// EmailSender delivers one email. The bool reports provider acceptance; an
// error means the attempt itself blew up.
type EmailSender interface {
	Send(ctx context.Context, address, body, subject string) (bool, error)
}

// SmsSender delivers one SMS to an already-normalized phone number.
type SmsSender interface {
	Send(ctx context.Context, phone, body string) (bool, error)
}

// PushSender delivers one push message. Data values must be strings; push
// transports reject non-string data payloads.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) (bool, error)
}

// StatusEvents receives terminal status transitions. Implementations must not
// block the send path.
type StatusEvents interface {
	Published(event models.StatusEvent)
}

// Senders bundles the per-channel transports.
type Senders struct {
	Email EmailSender
	SMS   SmsSender
	Push  PushSender
}

// Orchestrator expands one dispatch request into per-channel attempt records,
// persists them, and drives each record to a terminal status independently.
type Orchestrator struct {
	contacts  ContactResolver
	templates TemplateResolver
	store     AttemptStore
	tokens    TokenStore
	senders   Senders
	events    StatusEvents
	logger    *slog.Logger

	now      func() time.Time
	inFlight sync.WaitGroup
}

// NewOrchestrator wires the orchestrator's collaborators. events may be nil.
func NewOrchestrator(
	contacts ContactResolver,
	templates TemplateResolver,
	store AttemptStore,
	tokens TokenStore,
	senders Senders,
	events StatusEvents,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		contacts:  contacts,
		templates: templates,
		store:     store,
		tokens:    tokens,
		senders:   senders,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// Dispatch expands req into one attempt record per channel, persists all of
// them, and starts the channel sends. It returns once every record is
// durable; sends finish in the background and their outcomes are observable
// only through the attempt store. The returned base key identifies the
// request's records: each record's key is base + "_" + channel. An empty base
// key with a nil error means the user was not found and the dispatch was
// dropped without records.
func (o *Orchestrator) Dispatch(ctx context.Context, req models.DispatchRequest) (string, error) {
	cfg, ok := models.EventConfigFor(req.Event)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEvent, req.Event)
	}

	contact, err := o.contacts.Resolve(ctx, req.UserID)
	if err != nil {
		return "", fmt.Errorf("resolve contact: %w", err)
	}
	if contact == nil {
		// Unknown users are dropped without records; the caller sees a no-op.
		o.logger.Error("user not found, dropping dispatch",
			slog.String("user_id", req.UserID),
			slog.String("event", req.Event))
		return "", nil
	}

	set, err := o.templates.Get(ctx, req.Event)
	if err != nil {
		return "", fmt.Errorf("resolve templates: %w", err)
	}

	// A channel that resolves no template, not even the in_app fallback, is a
	// configuration error: every record needs a message, so the whole request
	// fails before anything is created.
	templates := make(map[models.Channel]models.Template, len(models.AllChannels))
	for _, ch := range models.AllChannels {
		tpl, ok := set.ForChannel(ch)
		if !ok {
			return "", fmt.Errorf("template set for event %q resolves no template for channel %s", req.Event, ch)
		}
		templates[ch] = tpl
	}

	base := req.IdempotencyKey
	if base == "" {
		base = models.DeriveBaseKey(req.UserID, req.Event, o.now())
	}

	records := o.expand(req, cfg, templates, base)

	// Persistence gate: every record must be durable before any send starts.
	g, gctx := errgroup.WithContext(ctx)
	for _, record := range records {
		record := record
		g.Go(func() error {
			return o.store.Create(gctx, record)
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("persist attempt records: %w", err)
	}

	for _, record := range records {
		record := record
		o.inFlight.Add(1)
		go func() {
			defer o.inFlight.Done()
			// Detached from the request context: a caller going away must
			// not cancel deliveries that already have durable records.
			o.send(context.Background(), record, contact)
		}()
	}

	return base, nil
}

// Wait blocks until all in-flight channel sends have finished. Dispatch never
// waits on sends; this exists for shutdown and tests.
func (o *Orchestrator) Wait() {
	o.inFlight.Wait()
}

// expand builds the fixed four-channel record set for one request, from
// templates already resolved per channel.
func (o *Orchestrator) expand(req models.DispatchRequest, cfg models.EventConfig, templates map[models.Channel]models.Template, base string) []*models.NotificationRecord {
	records := make([]*models.NotificationRecord, 0, len(models.AllChannels))
	for _, ch := range models.AllChannels {
		tpl := templates[ch]

		title := ""
		if tpl.Subject != "" {
			title = o.templates.Render(tpl.Subject, req.Payload)
		}

		records = append(records, &models.NotificationRecord{
			ID:               uuid.NewString(),
			UserID:           req.UserID,
			Event:            req.Event,
			NotificationType: cfg.NotificationType,
			Channel:          ch,
			Title:            title,
			Message:          o.templates.Render(tpl.Body, req.Payload),
			Priority:         cfg.Priority,
			Status:           models.StatusPending,
			IsRead:           false,
			IdempotencyKey:   models.ChannelKey(base, ch),
			Metadata:         req.Payload,
			CreatedAt:        o.now(),
		})
	}
	return records
}
