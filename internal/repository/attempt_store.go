package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/notifyng/dispatch/internal/models"
)

// AttemptStore persists delivery attempt records in Postgres, keyed by
// idempotency key.
type AttemptStore struct {
	db *gorm.DB
}

// NewAttemptStore creates the store and migrates the schema.
func NewAttemptStore(db *gorm.DB) (*AttemptStore, error) {
	if err := db.AutoMigrate(&models.NotificationRecord{}); err != nil {
		return nil, fmt.Errorf("migrate notification records: %w", err)
	}
	return &AttemptStore{db: db}, nil
}

// Create inserts a record, leaving any existing record with the same
// idempotency key untouched. Re-running a dispatch with the same base key
// therefore never produces duplicates.
func (s *AttemptStore) Create(ctx context.Context, record *models.NotificationRecord) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(record).Error
}

// UpdateStatus moves a pending record to a terminal status. Records already
// terminal are left alone; statuses never move backwards.
func (s *AttemptStore) UpdateStatus(ctx context.Context, key string, status models.Status, reason string) error {
	return s.db.WithContext(ctx).
		Model(&models.NotificationRecord{}).
		Where("idempotency_key = ? AND status = ?", key, models.StatusPending).
		Updates(map[string]interface{}{
			"status":         status,
			"failure_reason": reason,
		}).Error
}

// ListByBase returns the per-channel records belonging to one dispatch.
func (s *AttemptStore) ListByBase(ctx context.Context, baseKey string) ([]models.NotificationRecord, error) {
	keys := make([]string, 0, len(models.AllChannels))
	for _, ch := range models.AllChannels {
		keys = append(keys, models.ChannelKey(baseKey, ch))
	}

	var records []models.NotificationRecord
	if err := s.db.WithContext(ctx).Where("idempotency_key IN ?", keys).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
