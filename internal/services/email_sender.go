package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// SendGridSender delivers email through the SendGrid v3 mail send API.
type SendGridSender struct {
	apiKey    string
	fromEmail string
	baseURL   string
	client    *http.Client
}

// NewSendGridSender creates a new SendGridSender. An empty baseURL selects
// the production API endpoint.
func NewSendGridSender(apiKey, fromEmail, baseURL string) *SendGridSender {
	if fromEmail == "" {
		fromEmail = "noreply@yourdomain.com"
	}
	if baseURL == "" {
		baseURL = "https://api.sendgrid.com"
	}
	return &SendGridSender{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		baseURL:   baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send submits one message. SendGrid signals acceptance with HTTP 202;
// anything else counts as a rejection.
func (s *SendGridSender) Send(ctx context.Context, address, body, subject string) (bool, error) {
	if s.apiKey == "" {
		return false, errors.New("sendgrid api key not configured")
	}

	payload := map[string]interface{}{
		"personalizations": []map[string]interface{}{
			{
				"to":      []map[string]string{{"email": address}},
				"subject": subject,
			},
		},
		"from": map[string]string{"email": s.fromEmail},
		"content": []map[string]string{
			{"type": "text/html", "value": body},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusAccepted, nil
}
