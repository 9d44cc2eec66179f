package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/teelab/storefront/pkg/db"
	"github.com/teelab/storefront/pkg/logger"
	"github.com/teelab/storefront/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrQuotaExceeded signals that a write would push the store past its
// configured byte budget. Callers decide how to degrade; the store never
// retries or prunes on its own.
var ErrQuotaExceeded = errors.New("kvstore: storage quota exceeded")

// Entry is one persisted collection, JSON-serialized under its key.
type Entry struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the sqlite table backing the store.
func (Entry) TableName() string {
	return "kv_entries"
}

// Store is the persistence wrapper every collection goes through. Reads
// degrade corruption to absence; writes enforce the shared quota.
type Store struct {
	client *db.Client
	quota  int64
	logg   *logger.Logger
	mets   *metrics.StoreMetrics
}

// New builds a Store over the shared sqlite client. A quota of zero disables
// the byte budget.
func New(client *db.Client, quotaBytes int64, logg *logger.Logger, mets *metrics.StoreMetrics) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Store{
		client: client,
		quota:  quotaBytes,
		logg:   logg,
		mets:   mets,
	}, nil
}

// AutoMigrate creates the backing table when missing.
func (s *Store) AutoMigrate() error {
	return s.client.DB().AutoMigrate(&Entry{})
}

// Read unmarshals the value stored at key into dest. A missing key or an
// unparsable payload both report absence; only infrastructure failures
// return an error.
func (s *Store) Read(ctx context.Context, key string, dest any) (bool, error) {
	entry, found, err := s.load(ctx, s.client.DB(), key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(entry.Value), dest); err != nil {
		if s.logg != nil {
			lctx := s.logg.WithCollection(ctx, key)
			s.logg.Warn(lctx, "corrupt entry treated as absent")
		}
		return false, nil
	}
	return true, nil
}

// Exists reports whether the key is present, regardless of payload health.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := s.load(ctx, s.client.DB(), key)
	return found, err
}

// Write serializes value under key, enforcing the quota across all entries.
func (s *Store) Write(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		s.mets.IncWriteFailure(key)
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ensureQuota(ctx, tx, key, int64(len(payload))); err != nil {
			return err
		}
		return s.upsert(ctx, tx, key, string(payload))
	})
	if err != nil {
		s.mets.IncWriteFailure(key)
		return err
	}
	s.mets.IncWrite(key)
	return nil
}

// Delete removes the given keys. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.DB().WithContext(ctx).Where("key IN ?", keys).Delete(&Entry{}).Error
}

// UsedBytes returns the total payload size currently persisted.
func (s *Store) UsedBytes(ctx context.Context) (int64, error) {
	var used int64
	err := s.client.DB().WithContext(ctx).
		Model(&Entry{}).
		Select("COALESCE(SUM(LENGTH(value)), 0)").
		Scan(&used).Error
	if err != nil {
		return 0, fmt.Errorf("summing entry sizes: %w", err)
	}
	return used, nil
}

func (s *Store) load(ctx context.Context, tx *gorm.DB, key string) (Entry, bool, error) {
	var entry Entry
	err := tx.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("loading %s: %w", key, err)
	}
	return entry, true, nil
}

func (s *Store) ensureQuota(ctx context.Context, tx *gorm.DB, key string, incoming int64) error {
	if s.quota <= 0 {
		return nil
	}
	var used int64
	err := tx.WithContext(ctx).
		Model(&Entry{}).
		Where("key <> ?", key).
		Select("COALESCE(SUM(LENGTH(value)), 0)").
		Scan(&used).Error
	if err != nil {
		return fmt.Errorf("summing entry sizes: %w", err)
	}
	if used+incoming > s.quota {
		return fmt.Errorf("writing %s (%d bytes, %d in use, %d budget): %w",
			key, incoming, used, s.quota, ErrQuotaExceeded)
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, tx *gorm.DB, key, payload string) error {
	entry := Entry{Key: key, Value: payload, UpdatedAt: time.Now().UTC()}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}
