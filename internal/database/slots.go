package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"postfarm/internal/kv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Slot is one persisted key/value row.
type Slot struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName pins the table name.
func (Slot) TableName() string { return "kv_slots" }

// SlotStore implements kv.Store on top of the kv_slots table.
type SlotStore struct {
	db *gorm.DB
}

// NewSlotStore wraps an open, migrated database.
func NewSlotStore(db *gorm.DB) *SlotStore {
	return &SlotStore{db: db}
}

var _ kv.Store = (*SlotStore)(nil)

func (s *SlotStore) Get(ctx context.Context, key string) (string, error) {
	var slot Slot
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select slot %s: %w", key, err)
	}
	return slot.Value, nil
}

func (s *SlotStore) Set(ctx context.Context, key, value string) error {
	slot := Slot{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("upsert slot %s: %w", key, err)
	}
	return nil
}

func (s *SlotStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&Slot{}).Error; err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *SlotStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
