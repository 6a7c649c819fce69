package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorDispatchCounters(t *testing.T) {
	c := New()
	c.DispatchAccepted()
	c.DispatchAccepted()
	c.DispatchRejected()
	c.DispatchDropped()

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.EqualValues(t, 2, payload["dispatches_accepted"])
	assert.EqualValues(t, 1, payload["dispatches_rejected"])
	assert.EqualValues(t, 1, payload["dispatches_dropped"])
}
