package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/notifyng/dispatch/internal/models"
)

// TemplateClient fetches per-event template sets from the template service
// and renders template strings locally.
type TemplateClient struct {
	baseURL string
	client  *http.Client
}

// NewTemplateClient creates a new TemplateClient.
func NewTemplateClient(baseURL string, timeout time.Duration) *TemplateClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TemplateClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get retrieves the template set configured for an event. Every dispatchable
// event must have one; an error here fails the whole dispatch.
func (c *TemplateClient) Get(ctx context.Context, event string) (*models.TemplateSet, error) {
	endpoint := fmt.Sprintf("%s/v1/templates/%s", c.baseURL, url.PathEscape(event))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("template service returned %d for event %q", resp.StatusCode, event)
	}

	var set models.TemplateSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, err
	}
	return &set, nil
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

// Render substitutes {{key}} placeholders with payload values. Rendering is
// best-effort: a placeholder with no matching payload key stays in the output
// as literal text, since a partially-rendered notification beats no
// notification.
func (c *TemplateClient) Render(template string, payload map[string]interface{}) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := payload[key]; ok {
			return fmt.Sprint(v)
		}
		return match
	})
}
