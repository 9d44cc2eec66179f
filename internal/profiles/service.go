package profiles

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/teelab/storefront/pkg/auth"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/events"
	"github.com/teelab/storefront/pkg/kvstore"
	"github.com/teelab/storefront/pkg/logger"
)

// Collection is the versioned key family holding creator profiles.
var Collection = kvstore.Family{
	Current: "creator-profiles-v1",
	Legacy:  []string{"creator-profiles"},
}

// Profile is the public display card for a creator, keyed by creator id.
type Profile struct {
	CreatorID   string    `json:"creatorId"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UpdateInput carries the editable profile fields.
type UpdateInput struct {
	DisplayName string
	Bio         string
}

// Service exposes creator profile access.
type Service interface {
	Ensure(ctx context.Context, sess auth.Session) (*Profile, error)
	GetByID(ctx context.Context, creatorID string) (*Profile, error)
	Update(ctx context.Context, sess auth.Session, input UpdateInput) (*Profile, error)
}

// ServiceParams groups dependencies for the profile service.
type ServiceParams struct {
	KV     *kvstore.Store
	Bus    *events.Bus
	Logger *logger.Logger
}

type service struct {
	mu   sync.Mutex
	kv   *kvstore.Store
	bus  *events.Bus
	logg *logger.Logger
}

// NewService builds a profile service backed by the key/value store.
func NewService(params ServiceParams) (Service, error) {
	if params.KV == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key/value store required")
	}
	if params.Bus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event bus required")
	}
	return &service{
		kv:   params.KV,
		bus:  params.Bus,
		logg: params.Logger,
	}, nil
}

// Ensure returns the caller's profile, creating it on first access with a
// display name derived from the email local part.
func (s *service) Ensure(ctx context.Context, sess auth.Session) (*Profile, error) {
	if sess.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to manage your profile")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexByCreator(collection, sess.UserID); idx >= 0 {
		profile := collection[idx]
		return &profile, nil
	}

	profile := Profile{
		CreatorID:   sess.UserID,
		DisplayName: fallbackName(sess.Email),
		UpdatedAt:   time.Now().UTC(),
	}
	collection = append(collection, profile)
	if err := s.persist(ctx, collection); err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, events.TopicProfilesUpdated)
	return &profile, nil
}

// GetByID looks up any creator's public profile.
func (s *service) GetByID(ctx context.Context, creatorID string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexByCreator(collection, creatorID); idx >= 0 {
		profile := collection[idx]
		return &profile, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
}

// Update edits the caller's own profile, creating it first when missing.
func (s *service) Update(ctx context.Context, sess auth.Session, input UpdateInput) (*Profile, error) {
	if sess.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to manage your profile")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexByCreator(collection, sess.UserID)
	if idx < 0 {
		collection = append(collection, Profile{CreatorID: sess.UserID})
		idx = len(collection) - 1
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = fallbackName(sess.Email)
	}
	collection[idx].DisplayName = displayName
	collection[idx].Bio = strings.TrimSpace(input.Bio)
	collection[idx].UpdatedAt = time.Now().UTC()

	if err := s.persist(ctx, collection); err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, events.TopicProfilesUpdated)
	profile := collection[idx]
	return &profile, nil
}

func (s *service) read(ctx context.Context) ([]Profile, error) {
	var collection []Profile
	found, err := s.kv.ReadFamily(ctx, Collection, &collection)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profiles")
	}
	if !found || collection == nil {
		return []Profile{}, nil
	}
	return collection, nil
}

func (s *service) persist(ctx context.Context, collection []Profile) error {
	if err := s.kv.Write(ctx, Collection.Current, collection); err != nil {
		if errors.Is(err, kvstore.ErrQuotaExceeded) {
			return pkgerrors.Wrap(pkgerrors.CodeStorageExhausted, err, "persist profiles")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist profiles")
	}
	return nil
}

func indexByCreator(collection []Profile, creatorID string) int {
	for i := range collection {
		if collection[i].CreatorID == creatorID {
			return i
		}
	}
	return -1
}

// fallbackName derives a usable display name from an email address.
func fallbackName(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	local = strings.TrimSpace(local)
	if local == "" {
		return "Creator"
	}
	return local
}
