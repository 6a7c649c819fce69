package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusHandler serves per-channel attempt statuses.
type StatusHandler struct {
	attempts AttemptReader
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(attempts AttemptReader) *StatusHandler {
	return &StatusHandler{attempts: attempts}
}

// GetStatus returns the per-channel statuses for one dispatch, identified by
// its base idempotency key.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	baseKey := c.Param("base_key")
	if baseKey == "" {
		respondError(c, http.StatusBadRequest, "base_key is required", nil)
		return
	}

	records, err := h.attempts.ListByBase(c.Request.Context(), baseKey)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load attempt statuses", err)
		return
	}
	if len(records) == 0 {
		respondError(c, http.StatusNotFound, "no attempts found for key", nil)
		return
	}

	respondSuccess(c, http.StatusOK, "attempt statuses retrieved", gin.H{
		"idempotency_key": baseKey,
		"attempts":        attemptStatuses(records),
	})
}
