package repository

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// TokenStore is the secondary push-token lookup, consulted when a user's
// contact record carries no token of its own.
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// LookupSecondary returns the registered token for a user, or empty when none
// exists. A missing token is not an error; the push channel reports it as a
// failed attempt at send time.
func (s *TokenStore) LookupSecondary(ctx context.Context, userID string) (string, error) {
	token, err := s.client.Get(ctx, "user_tokens:"+userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}
