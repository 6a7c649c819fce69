package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notifyng/dispatch/internal/models"
	"github.com/notifyng/dispatch/internal/notify"
	"github.com/notifyng/dispatch/pkg/metrics"
)

// Dispatcher is the orchestrator surface the handler depends on.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.DispatchRequest) (string, error)
}

// DuplicateChecker is the idempotency pre-check applied to caller-supplied
// base keys. Release undoes a claim when the dispatch behind it failed.
type DuplicateChecker interface {
	IsDuplicate(ctx context.Context, baseKey string) (bool, error)
	Release(ctx context.Context, baseKey string) error
}

// AttemptReader is the subset of attempt store behavior the handlers need.
type AttemptReader interface {
	ListByBase(ctx context.Context, baseKey string) ([]models.NotificationRecord, error)
}

// NotificationHandler handles dispatch requests.
type NotificationHandler struct {
	dispatcher  Dispatcher
	idempotency DuplicateChecker
	attempts    AttemptReader
	metrics     *metrics.Collector
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(
	dispatcher Dispatcher,
	idempotency DuplicateChecker,
	attempts AttemptReader,
	collector *metrics.Collector,
) *NotificationHandler {
	return &NotificationHandler{
		dispatcher:  dispatcher,
		idempotency: idempotency,
		attempts:    attempts,
		metrics:     collector,
	}
}

// DispatchNotification accepts a dispatch request, runs the duplicate
// pre-check, and hands the request to the orchestrator. A 202 means all four
// attempt records are durable; delivery itself finishes asynchronously and is
// observable through the status endpoint.
func (h *NotificationHandler) DispatchNotification(c *gin.Context) {
	var req models.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if err := req.Normalize(); err != nil {
		respondValidationError(c, err)
		return
	}

	// Derived keys are unique per dispatch, so the pre-check only applies to
	// caller-supplied keys.
	if req.IdempotencyKey != "" {
		isDuplicate, err := h.idempotency.IsDuplicate(c.Request.Context(), req.IdempotencyKey)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to check idempotency", err)
			return
		}
		if isDuplicate {
			records, err := h.attempts.ListByBase(c.Request.Context(), req.IdempotencyKey)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "failed to load statuses for duplicate request", err)
				return
			}
			respondSuccess(c, http.StatusOK, "duplicate request", gin.H{
				"idempotency_key": req.IdempotencyKey,
				"attempts":        attemptStatuses(records),
			})
			return
		}
	}

	baseKey, err := h.dispatcher.Dispatch(c.Request.Context(), req)
	if err != nil {
		h.metrics.DispatchRejected()
		// Free the claim so an identical retry re-runs the dispatch instead
		// of hitting the duplicate short-circuit with zero attempts.
		if req.IdempotencyKey != "" {
			_ = h.idempotency.Release(c.Request.Context(), req.IdempotencyKey)
		}
		if errors.Is(err, notify.ErrUnknownEvent) {
			respondError(c, http.StatusBadRequest, "unknown event type", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to dispatch notification", err)
		return
	}

	if baseKey == "" {
		// Unknown user: dropped without records, by contract not an error.
		h.metrics.DispatchDropped()
		respondSuccess(c, http.StatusAccepted, "dispatch dropped, user not found", gin.H{})
		return
	}

	h.metrics.DispatchAccepted()
	respondSuccess(c, http.StatusAccepted, "notification dispatch accepted", gin.H{
		"idempotency_key": baseKey,
		"status":          models.StatusPending,
	})
}

func attemptStatuses(records []models.NotificationRecord) []gin.H {
	out := make([]gin.H, 0, len(records))
	for _, r := range records {
		entry := gin.H{
			"idempotency_key": r.IdempotencyKey,
			"channel":         r.Channel,
			"status":          r.Status,
		}
		if r.FailureReason != "" {
			entry["reason"] = r.FailureReason
		}
		out = append(out, entry)
	}
	return out
}
