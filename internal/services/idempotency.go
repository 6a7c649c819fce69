package services

import (
	"context"
	"time"

	"github.com/notifyng/dispatch/internal/repository"
)

const duplicateWindowTTL = 24 * time.Hour

// IdempotencyService short-circuits whole-request duplicates before the
// orchestrator runs. The attempt store's create-if-absent remains the
// authoritative guard; this is a fast pre-check on caller-supplied base keys.
type IdempotencyService struct {
	redisRepo *repository.RedisRepository
}

// NewIdempotencyService creates a new IdempotencyService.
func NewIdempotencyService(redisRepo *repository.RedisRepository) *IdempotencyService {
	return &IdempotencyService{redisRepo: redisRepo}
}

// IsDuplicate checks whether a base idempotency key has been seen before.
// SetNX atomically claims the key; a claimed key marks a duplicate.
func (s *IdempotencyService) IsDuplicate(ctx context.Context, baseKey string) (bool, error) {
	key := "idempotency:" + baseKey
	wasSet, err := s.redisRepo.Client.SetNX(ctx, key, "processed", duplicateWindowTTL).Result()
	if err != nil {
		return false, err
	}
	return !wasSet, nil
}

// Release frees a claimed base key. Called when a dispatch fails after the
// claim, so a retry of the same key reaches the orchestrator instead of the
// duplicate short-circuit; the store's create-if-absent keeps that retry safe.
func (s *IdempotencyService) Release(ctx context.Context, baseKey string) error {
	return s.redisRepo.Client.Del(ctx, "idempotency:"+baseKey).Err()
}
