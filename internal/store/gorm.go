package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/carcino/internal/models"
)

// GormBackend keeps session keys in the session_entries table.
type GormBackend struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewGormBackend wraps db. The session_entries table must already be migrated.
func NewGormBackend(db *gorm.DB, ttl time.Duration) *GormBackend {
	return &GormBackend{db: db, ttl: ttl, now: time.Now}
}

func (g *GormBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.SessionEntry
	if err := g.db.WithContext(ctx).First(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session entry: %w", err)
	}

	if !entry.ExpiresAt.IsZero() && entry.ExpiresAt.Before(g.now()) {
		return nil, ErrNotFound
	}
	return entry.Value, nil
}

func (g *GormBackend) Set(ctx context.Context, key string, value []byte) error {
	now := g.now()
	entry := models.SessionEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: now,
	}
	if g.ttl > 0 {
		entry.ExpiresAt = now.Add(g.ttl)
	}

	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("upsert session entry: %w", err)
	}
	return nil
}

func (g *GormBackend) Delete(ctx context.Context, key string) error {
	if err := g.db.WithContext(ctx).Delete(&models.SessionEntry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("delete session entry: %w", err)
	}
	return nil
}

// PurgeExpired removes entries whose TTL has passed.
func (g *GormBackend) PurgeExpired(ctx context.Context) (int64, error) {
	res := g.db.WithContext(ctx).
		Where("expires_at > ? AND expires_at < ?", time.Time{}, g.now()).
		Delete(&models.SessionEntry{})
	return res.RowsAffected, res.Error
}
