package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/notifyng/dispatch/internal/models"
	"github.com/notifyng/dispatch/internal/repository"
)

// UserClient resolves user contact data from the user service, with
// Redis-backed caching in front of it.
type UserClient struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	cache    *repository.RedisRepository
	cacheTTL time.Duration
}

// NewUserClient creates a new UserClient.
func NewUserClient(baseURL, apiKey string, cache *repository.RedisRepository, cacheTTL time.Duration) *UserClient {
	return &UserClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Resolve fetches the user's contact record. A nil contact with a nil error
// means the user does not exist.
func (c *UserClient) Resolve(ctx context.Context, userID string) (*models.Contact, error) {
	cacheKey := fmt.Sprintf("user:contact:%s", userID)

	if c.cache != nil && c.cacheTTL > 0 {
		var cached models.Contact
		if ok, err := c.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	endpoint := fmt.Sprintf("%s/v1/users/%s/contact", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-Internal-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user service returned non-200 status code: %d", resp.StatusCode)
	}

	var contact models.Contact
	if err := json.NewDecoder(resp.Body).Decode(&contact); err != nil {
		return nil, err
	}

	if c.cache != nil && c.cacheTTL > 0 {
		_ = c.cache.SetJSON(ctx, cacheKey, &contact, c.cacheTTL)
	}

	return &contact, nil
}
