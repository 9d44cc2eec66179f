package kvstore

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Family names a versioned key plus the legacy keys it superseded, in
// migration priority order.
type Family struct {
	Current string
	Legacy  []string
}

// ReadFamily reads the family's current key, migrating a legacy value
// forward first when the current key has never been written. Migration runs
// at most once: it copies the first non-empty legacy payload to the current
// key and deletes every legacy key in the same transaction. Once the current
// key exists, even holding an empty collection, legacy data can no longer
// resurrect.
func (s *Store) ReadFamily(ctx context.Context, fam Family, dest any) (bool, error) {
	exists, err := s.Exists(ctx, fam.Current)
	if err != nil {
		return false, err
	}
	if !exists && len(fam.Legacy) > 0 {
		if err := s.migrateFamily(ctx, fam); err != nil {
			return false, err
		}
	}
	return s.Read(ctx, fam.Current, dest)
}

func (s *Store) migrateFamily(ctx context.Context, fam Family) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var carried string
		for _, legacy := range fam.Legacy {
			entry, found, err := s.load(ctx, tx, legacy)
			if err != nil {
				return err
			}
			if found && carried == "" && !isEmptyPayload(entry.Value) {
				carried = entry.Value
			}
		}
		if carried != "" {
			if err := s.upsert(ctx, tx, fam.Current, carried); err != nil {
				return err
			}
		}
		if len(fam.Legacy) > 0 {
			if err := tx.WithContext(ctx).Where("key IN ?", fam.Legacy).Delete(&Entry{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func isEmptyPayload(payload string) bool {
	switch strings.TrimSpace(payload) {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}
