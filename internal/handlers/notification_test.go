package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notifyng/dispatch/internal/models"
	"github.com/notifyng/dispatch/internal/notify"
	"github.com/notifyng/dispatch/pkg/metrics"
)

type fakeDispatcher struct {
	baseKey string
	err     error
	gotReq  models.DispatchRequest
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, req models.DispatchRequest) (string, error) {
	f.gotReq = req
	return f.baseKey, f.err
}

type fakeChecker struct {
	duplicate bool
	err       error
}

func (f *fakeChecker) IsDuplicate(ctx context.Context, baseKey string) (bool, error) {
	return f.duplicate, f.err
}

func (f *fakeChecker) Release(ctx context.Context, baseKey string) error {
	return nil
}

// setNXChecker mirrors the redis SetNX claim/release semantics in memory.
type setNXChecker struct {
	claimed map[string]bool
}

func newSetNXChecker() *setNXChecker {
	return &setNXChecker{claimed: map[string]bool{}}
}

func (f *setNXChecker) IsDuplicate(ctx context.Context, baseKey string) (bool, error) {
	if f.claimed[baseKey] {
		return true, nil
	}
	f.claimed[baseKey] = true
	return false, nil
}

func (f *setNXChecker) Release(ctx context.Context, baseKey string) error {
	delete(f.claimed, baseKey)
	return nil
}

// flakyDispatcher fails the first n calls, then succeeds.
type flakyDispatcher struct {
	failures int
	calls    int
}

func (f *flakyDispatcher) Dispatch(ctx context.Context, req models.DispatchRequest) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", fmt.Errorf("persist attempt records: connection refused")
	}
	return req.IdempotencyKey, nil
}

type fakeAttempts struct {
	records []models.NotificationRecord
	err     error
}

func (f *fakeAttempts) ListByBase(ctx context.Context, baseKey string) ([]models.NotificationRecord, error) {
	return f.records, f.err
}

func setupRouter(h *NotificationHandler, s *StatusHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/v1/notifications/dispatch", h.DispatchNotification)
	if s != nil {
		router.GET("/v1/notifications/:base_key/status", s.GetStatus)
	}
	return router
}

func postDispatch(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/dispatch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDispatchNotificationAccepted(t *testing.T) {
	dispatcher := &fakeDispatcher{baseKey: "req-1"}
	h := NewNotificationHandler(dispatcher, &fakeChecker{}, &fakeAttempts{}, metrics.New())
	router := setupRouter(h, nil)

	w := postDispatch(t, router, `{"user_id":"user-1","event":"order_created","payload":{"name":"Ada"},"idempotency_key":"req-1"}`)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "order_created", dispatcher.gotReq.Event)
}

func TestDispatchNotificationValidation(t *testing.T) {
	h := NewNotificationHandler(&fakeDispatcher{}, &fakeChecker{}, &fakeAttempts{}, metrics.New())
	router := setupRouter(h, nil)

	w := postDispatch(t, router, `{"event":"order_created"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatchNotificationUnknownEvent(t *testing.T) {
	dispatcher := &fakeDispatcher{err: fmt.Errorf("%w: bogus", notify.ErrUnknownEvent)}
	h := NewNotificationHandler(dispatcher, &fakeChecker{}, &fakeAttempts{}, metrics.New())
	router := setupRouter(h, nil)

	w := postDispatch(t, router, `{"user_id":"user-1","event":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatchNotificationUserNotFound(t *testing.T) {
	// empty base key with no error is the silent-drop contract
	dispatcher := &fakeDispatcher{baseKey: ""}
	collector := metrics.New()
	h := NewNotificationHandler(dispatcher, &fakeChecker{}, &fakeAttempts{}, collector)
	router := setupRouter(h, nil)

	w := postDispatch(t, router, `{"user_id":"ghost","event":"order_created"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "user not found")

	// dropped dispatches show up in the metrics snapshot
	mw := httptest.NewRecorder()
	collector.Handler().ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var snapshot map[string]interface{}
	require.NoError(t, json.Unmarshal(mw.Body.Bytes(), &snapshot))
	assert.EqualValues(t, 1, snapshot["dispatches_dropped"])
}

func TestDispatchRetryAfterFailureIsNotDuplicate(t *testing.T) {
	dispatcher := &flakyDispatcher{failures: 1}
	h := NewNotificationHandler(dispatcher, newSetNXChecker(), &fakeAttempts{}, metrics.New())
	router := setupRouter(h, nil)
	body := `{"user_id":"user-1","event":"order_created","idempotency_key":"req-1"}`

	// transient failure: the claim on req-1 must be released with the 500
	w := postDispatch(t, router, body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// identical retry reaches the orchestrator again instead of the
	// duplicate short-circuit
	w = postDispatch(t, router, body)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 2, dispatcher.calls)

	// after a success the key is claimed for real
	w = postDispatch(t, router, body)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate request", resp.Message)
	assert.Equal(t, 2, dispatcher.calls)
}

func TestDispatchNotificationDuplicate(t *testing.T) {
	attempts := &fakeAttempts{records: []models.NotificationRecord{
		{IdempotencyKey: "req-1_email", Channel: models.ChannelEmail, Status: models.StatusSent},
		{IdempotencyKey: "req-1_sms", Channel: models.ChannelSMS, Status: models.StatusFailed, FailureReason: "No Phone"},
	}}
	h := NewNotificationHandler(&fakeDispatcher{}, &fakeChecker{duplicate: true}, attempts, metrics.New())
	router := setupRouter(h, nil)

	w := postDispatch(t, router, `{"user_id":"user-1","event":"order_created","idempotency_key":"req-1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate request", resp.Message)
}

func TestGetStatus(t *testing.T) {
	attempts := &fakeAttempts{records: []models.NotificationRecord{
		{IdempotencyKey: "req-1_email", Channel: models.ChannelEmail, Status: models.StatusSent},
		{IdempotencyKey: "req-1_sms", Channel: models.ChannelSMS, Status: models.StatusSent},
		{IdempotencyKey: "req-1_in_app", Channel: models.ChannelInApp, Status: models.StatusSent},
		{IdempotencyKey: "req-1_push", Channel: models.ChannelPush, Status: models.StatusFailed, FailureReason: "No FCM token"},
	}}
	h := NewNotificationHandler(&fakeDispatcher{}, &fakeChecker{}, attempts, metrics.New())
	s := NewStatusHandler(attempts)
	router := setupRouter(h, s)

	req := httptest.NewRequest(http.MethodGet, "/v1/notifications/req-1/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	list, ok := data["attempts"].([]interface{})
	require.True(t, ok)
	assert.Len(t, list, 4)
}

func TestGetStatusNotFound(t *testing.T) {
	s := NewStatusHandler(&fakeAttempts{})
	h := NewNotificationHandler(&fakeDispatcher{}, &fakeChecker{}, &fakeAttempts{}, metrics.New())
	router := setupRouter(h, s)

	req := httptest.NewRequest(http.MethodGet, "/v1/notifications/unknown/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
