package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Collector tracks request and dispatch metrics without external deps.
type Collector struct {
	totalRequests      atomic.Int64
	failedRequests     atomic.Int64
	totalLatencyMic    atomic.Int64
	dispatchesAccepted atomic.Int64
	dispatchesRejected atomic.Int64
	dispatchesDropped  atomic.Int64
	startedAt          time.Time
}

func New() *Collector {
	return &Collector{
		startedAt: time.Now(),
	}
}

// DispatchAccepted counts one dispatch whose records were persisted.
func (c *Collector) DispatchAccepted() {
	c.dispatchesAccepted.Add(1)
}

// DispatchRejected counts one dispatch that failed before persistence.
func (c *Collector) DispatchRejected() {
	c.dispatchesRejected.Add(1)
}

// DispatchDropped counts one dispatch discarded because the user was not
// found. Accepted, rejected, and dropped together cover every dispatch
// request that passed validation.
func (c *Collector) DispatchDropped() {
	c.dispatchesDropped.Add(1)
}

// GinMiddleware records request count, failures, and aggregate latency.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		c.totalRequests.Add(1)
		if ctx.Writer.Status() >= http.StatusInternalServerError {
			c.failedRequests.Add(1)
		}
		c.totalLatencyMic.Add(time.Since(start).Microseconds())
	}
}

// Handler exposes the metrics in a simple JSON form.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs := c.totalRequests.Load()
		latency := c.totalLatencyMic.Load()
		var avgMicros int64
		if reqs > 0 {
			avgMicros = latency / reqs
		}

		payload := map[string]interface{}{
			"requests_total":      reqs,
			"requests_failed":     c.failedRequests.Load(),
			"avg_latency_micros":  avgMicros,
			"dispatches_accepted": c.dispatchesAccepted.Load(),
			"dispatches_rejected": c.dispatchesRejected.Load(),
			"dispatches_dropped":  c.dispatchesDropped.Load(),
			"uptime_seconds":      int64(time.Since(c.startedAt).Seconds()),
			"timestamp":           time.Now().UTC(),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})
}
