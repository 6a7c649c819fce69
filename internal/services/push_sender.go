package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// FCMSender delivers push notifications through the FCM HTTP API.
type FCMSender struct {
	serverKey string
	baseURL   string
	client    *http.Client
}

// NewFCMSender creates a new FCMSender. An empty baseURL selects the
// production API endpoint.
func NewFCMSender(serverKey, baseURL string) *FCMSender {
	if baseURL == "" {
		baseURL = "https://fcm.googleapis.com"
	}
	return &FCMSender{
		serverKey: serverKey,
		baseURL:   baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send pushes one message to a device token. Data values must already be
// strings; FCM rejects non-string data payloads.
func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) (bool, error) {
	if s.serverKey == "" {
		return false, errors.New("fcm server key not configured")
	}

	payload := map[string]interface{}{
		"to": token,
		"notification": map[string]string{
			"title": title,
			"body":  body,
		},
		"data": data,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/fcm/send", bytes.NewReader(raw))
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "key="+s.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var result struct {
		Success int `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}

	return result.Success > 0, nil
}
