package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// TermiiSender delivers SMS through the Termii messaging API.
type TermiiSender struct {
	apiKey   string
	senderID string
	baseURL  string
	client   *http.Client
}

// NewTermiiSender creates a new TermiiSender. An empty baseURL selects the
// production API endpoint.
func NewTermiiSender(apiKey, senderID, baseURL string) *TermiiSender {
	if senderID == "" {
		senderID = "N-Alert"
	}
	if baseURL == "" {
		baseURL = "https://api.ng.termii.com"
	}
	return &TermiiSender{
		apiKey:   apiKey,
		senderID: senderID,
		baseURL:  baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send submits one SMS to an already-normalized number. Termii acknowledges
// accepted messages with a message_id in the response body.
func (s *TermiiSender) Send(ctx context.Context, phone, body string) (bool, error) {
	if s.apiKey == "" {
		return false, errors.New("termii api key not configured")
	}

	payload := map[string]interface{}{
		"to":      phone,
		"from":    s.senderID,
		"sms":     body,
		"type":    "plain",
		"channel": "generic",
		"api_key": s.apiKey,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/sms/send", bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var result struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}

	return result.MessageID != "", nil
}
