package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/attendkit/presence/internal/attendance/domain"
	"github.com/attendkit/presence/internal/cache"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	historyKey        = "history"
	locationKeyPrefix = "location:"

	// LocationMetaTTL bounds how long checkpoint metadata is served
	// without a remote refresh. History carries no TTL: it is an
	// append-only log and only explicit refresh replaces it.
	LocationMetaTTL = 24 * time.Hour
)

// Entry is a persisted cache row. Data holds the serialized value; a nil
// ExpiresAt means the entry never expires.
type Entry struct {
	Key       string         `gorm:"primaryKey"`
	Data      datatypes.JSON `gorm:"not null"`
	FetchedAt time.Time      `gorm:"not null"`
	ExpiresAt *time.Time     `gorm:"index"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "cache_entries" }

// Store is the device-local cache: sqlite for offline durability with an
// in-memory TTL layer in front for hot reads. Caching is an availability
// optimization, never a correctness dependency; every write failure is
// logged and swallowed.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
	hot *cache.TTLCache[string, []byte]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New migrates the cache table and constructs the store.
func New(db *gorm.DB, log *zap.Logger) (*Store, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &Store{
		db:  db,
		log: log.Named("cachestore"),
		hot: cache.NewTTLCache[string, []byte](),
	}, nil
}

// LocationMeta returns cached checkpoint metadata. Expired or absent rows
// are misses.
func (s *Store) LocationMeta(ctx context.Context, id string) (*domain.LocationMeta, bool) {
	raw, _, ok := s.get(ctx, locationKeyPrefix+id)
	if !ok {
		return nil, false
	}
	var meta domain.LocationMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		s.log.Warn("corrupt location meta entry", zap.String("id", id), zap.Error(err))
		return nil, false
	}
	return &meta, true
}

// PutLocationMeta stores checkpoint metadata with the fixed 24h TTL.
func (s *Store) PutLocationMeta(ctx context.Context, meta domain.LocationMeta) {
	s.put(ctx, locationKeyPrefix+meta.ID, meta, LocationMetaTTL)
}

// History returns the cached attendance list and when it was fetched.
func (s *Store) History(ctx context.Context) ([]domain.HistoryRecord, time.Time, bool) {
	raw, fetchedAt, ok := s.get(ctx, historyKey)
	if !ok {
		return nil, time.Time{}, false
	}
	var records []domain.HistoryRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		s.log.Warn("corrupt history entry", zap.Error(err))
		return nil, time.Time{}, false
	}
	return records, fetchedAt, true
}

// PutHistory replaces the cached attendance list. History never expires;
// freshness comes from explicit refresh only.
func (s *Store) PutHistory(ctx context.Context, records []domain.HistoryRecord) {
	s.put(ctx, historyKey, records, 0)
}

// InvalidateAll drops every cached entry. Used on sign-out, so a failure is
// surfaced rather than swallowed.
func (s *Store) InvalidateAll(ctx context.Context) error {
	s.hot.Flush()
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&Entry{}).Error
}

// PruneExpired removes TTL-bearing entries past expiry. It never touches
// history, which has no expiry row.
func (s *Store) PruneExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now().UTC()).
		Delete(&Entry{})
	return res.RowsAffected, res.Error
}

// Stats describes the cache population and hit ratio counters.
type Stats struct {
	Entries        int64  `json:"entries"`
	HistoryRecords int    `json:"history_records"`
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
}

// Stats reports current cache statistics.
func (s *Store) Stats(ctx context.Context) Stats {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Entry{}).Count(&count).Error; err != nil {
		s.log.Warn("cache stats count failed", zap.Error(err))
	}
	stats := Stats{
		Entries: count,
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}
	if records, _, ok := s.History(ctx); ok {
		stats.HistoryRecords = len(records)
	}
	return stats
}

func (s *Store) get(ctx context.Context, key string) ([]byte, time.Time, bool) {
	if raw, ok := s.hot.Get(key); ok {
		s.hits.Add(1)
		return raw, time.Time{}, true
	}

	var row Entry
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.misses.Add(1)
		return nil, time.Time{}, false
	}
	if row.ExpiresAt != nil && !row.ExpiresAt.After(time.Now().UTC()) {
		s.misses.Add(1)
		return nil, time.Time{}, false
	}

	s.hits.Add(1)
	if row.ExpiresAt != nil {
		s.hot.Set(key, row.Data, time.Until(*row.ExpiresAt))
	} else {
		s.hot.Set(key, row.Data, 0)
	}
	return row.Data, row.FetchedAt, true
}

func (s *Store) put(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("cache write skipped, value not serializable", zap.String("key", key), zap.Error(err))
		return
	}

	now := time.Now().UTC()
	row := Entry{Key: key, Data: raw, FetchedAt: now}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		row.ExpiresAt = &expiresAt
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		// A failed cache write must not fail the surrounding operation.
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.hot.Set(key, raw, ttl)
}
