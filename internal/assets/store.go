package assets

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/kvstore"
	"github.com/teelab/storefront/pkg/logger"
)

const keyPrefix = "asset:"

// Releaser is the cleanup surface the design store depends on. Implementors
// must tolerate unknown keys.
type Releaser interface {
	Release(ctx context.Context, key string) error
}

// Store persists large artwork blobs under their own keys, outside the
// design collection, so pruning a design can free the bytes it pinned.
type Store interface {
	Releaser
	Put(ctx context.Context, key, data string) error
	Get(ctx context.Context, key string) (string, bool, error)
}

type store struct {
	kv   *kvstore.Store
	logg *logger.Logger
}

// NewStore builds the asset store over the shared key/value layer.
func NewStore(kv *kvstore.Store, logg *logger.Logger) (Store, error) {
	if kv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key/value store required")
	}
	return &store{kv: kv, logg: logg}, nil
}

// NewKey mints a fresh artwork asset key.
func NewKey() string {
	return fmt.Sprintf("artwork/%s", uuid.NewString())
}

// Put stores the blob. Quota pressure surfaces to the caller.
func (s *store) Put(ctx context.Context, key, data string) error {
	if strings.TrimSpace(key) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset key required")
	}
	return s.kv.Write(ctx, keyPrefix+key, data)
}

// Get loads the blob, reporting absence for unknown keys.
func (s *store) Get(ctx context.Context, key string) (string, bool, error) {
	var data string
	found, err := s.kv.Read(ctx, keyPrefix+key, &data)
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
	}
	return data, found, nil
}

// Release drops the blob. Unknown keys are a no-op, so release stays
// idempotent for callers cleaning up best-effort.
func (s *store) Release(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	return s.kv.Delete(ctx, keyPrefix+key)
}
