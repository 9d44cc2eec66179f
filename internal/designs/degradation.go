package designs

import (
	"context"
	"errors"

	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/kvstore"
	"go.uber.org/multierr"
)

// persistWithDegradation writes the collection, shedding records in a fixed
// order when the quota is hit: oldest draft first, one at a time, then every
// remaining draft, and only as a last resort the published designs too. A published design is never dropped while any draft remains. Every
// evicted record has its artwork asset released; release failures are
// aggregated and logged, never propagated.
func (s *service) persistWithDegradation(ctx context.Context, collection []Design) ([]Design, error) {
	working := make([]Design, len(collection))
	copy(working, collection)

	err := s.kv.Write(ctx, Collection.Current, working)
	if err == nil {
		return working, nil
	}
	if !errors.Is(err, kvstore.ErrQuotaExceeded) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist designs")
	}

	var releaseErrs error
	pruned := 0

	for {
		idx := oldestDraftIndex(working)
		if idx < 0 {
			break
		}
		evicted := working[idx]
		working = append(working[:idx], working[idx+1:]...)
		releaseErrs = multierr.Append(releaseErrs, s.tryRelease(ctx, evicted))
		s.mets.IncPrunedDraft()
		pruned++

		err = s.kv.Write(ctx, Collection.Current, working)
		if err == nil {
			s.logPrune(ctx, pruned, len(working), releaseErrs)
			return working, nil
		}
		if !errors.Is(err, kvstore.ErrQuotaExceeded) {
			s.logPrune(ctx, pruned, len(working), releaseErrs)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist designs")
		}
	}

	// Out of drafts. Clearing the collection is all that is left; release
	// whatever the wipe orphans.
	for _, design := range working {
		releaseErrs = multierr.Append(releaseErrs, s.tryRelease(ctx, design))
	}
	working = []Design{}

	err = s.kv.Write(ctx, Collection.Current, working)
	s.logPrune(ctx, pruned, 0, releaseErrs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageExhausted, err, "persist designs after full prune")
	}
	return working, nil
}

// oldestDraftIndex picks the next eviction candidate: the draft with the
// oldest updatedAt. Published designs are never candidates here.
func oldestDraftIndex(collection []Design) int {
	idx := -1
	for i := range collection {
		if collection[i].Status != enums.DesignStatusDraft {
			continue
		}
		if idx < 0 || collection[i].UpdatedAt.Before(collection[idx].UpdatedAt) {
			idx = i
		}
	}
	return idx
}

func (s *service) tryRelease(ctx context.Context, design Design) error {
	if design.ArtworkAssetKey == "" {
		return nil
	}
	return s.assets.Release(ctx, design.ArtworkAssetKey)
}

func (s *service) releaseAsset(ctx context.Context, design Design) {
	if err := s.tryRelease(ctx, design); err != nil && s.logg != nil {
		lctx := s.logg.WithDesignID(ctx, design.ID)
		s.logg.Warn(lctx, "asset release failed")
	}
}

func (s *service) logPrune(ctx context.Context, pruned, remaining int, releaseErrs error) {
	if s.logg == nil || pruned == 0 {
		return
	}
	lctx := s.logg.WithFields(ctx, map[string]any{
		"pruned":    pruned,
		"remaining": remaining,
	})
	if releaseErrs != nil {
		s.logg.Error(lctx, "designs pruned under storage pressure", releaseErrs)
		return
	}
	s.logg.Warn(lctx, "designs pruned under storage pressure")
}
