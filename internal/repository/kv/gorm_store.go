// File: internal/repository/kv/gorm_store.go
package kv

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
)

// Entry is one row of the kv_entries table.
type Entry struct {
	Key       string `gorm:"primarykey;size:255"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (Entry) TableName() string {
	return "kv_entries"
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by the kv_entries table. The caller is
// responsible for migrating the Entry model.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	var entry Entry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		log.Printf("[KVStore] Database error reading key %q: %v", key, err)
		return "", errors.New("database error reading key")
	}
	return entry.Value, nil
}

func (s *gormStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Save(&entry).Error; err != nil {
		log.Printf("[KVStore] Database error writing key %q: %v", key, err)
		return errors.New("database error writing key")
	}
	return nil
}

func (s *gormStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&Entry{}, "key = ?", key).Error; err != nil {
		log.Printf("[KVStore] Database error deleting key %q: %v", key, err)
		return errors.New("database error deleting key")
	}
	return nil
}
