package designs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teelab/storefront/internal/assets"
	"github.com/teelab/storefront/pkg/auth"
	"github.com/teelab/storefront/pkg/config"
	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/events"
	"github.com/teelab/storefront/pkg/kvstore"
	"github.com/teelab/storefront/pkg/logger"
	"github.com/teelab/storefront/pkg/metrics"
)

// Collection is the versioned key family holding authored designs.
var Collection = kvstore.Family{
	Current: "designs-v2",
	Legacy:  []string{"designs-v1", "my-designs"},
}

// Service exposes design CRUD plus the publish gate. Authorization lives
// here, not in callers: a session that fails the gate cannot publish no
// matter which surface it comes through.
type Service interface {
	CreateDraft(ctx context.Context, sess auth.Session, input CreateDraftInput) (*Design, error)
	Patch(ctx context.Context, sess auth.Session, id string, patch Patch) (*Design, error)
	TogglePublish(ctx context.Context, sess auth.Session, id string, publish bool) (*Design, error)
	Delete(ctx context.Context, sess auth.Session, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*Design, error)
	ListForOwner(ctx context.Context, ownerID string) ([]Design, error)
	ListPublished(ctx context.Context) ([]Design, error)
	CanPublish(sess auth.Session, design Design) bool
	CanUnpublish(sess auth.Session, design Design) bool
}

// ServiceParams groups dependencies for the design service.
type ServiceParams struct {
	KV      *kvstore.Store
	Bus     *events.Bus
	Assets  assets.Releaser
	Storage config.StorageConfig
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
}

type service struct {
	mu         sync.Mutex
	kv         *kvstore.Store
	bus        *events.Bus
	assets     assets.Releaser
	previewMax int
	logg       *logger.Logger
	mets       *metrics.StoreMetrics
}

// NewService builds a design service backed by the key/value store.
func NewService(params ServiceParams) (Service, error) {
	if params.KV == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key/value store required")
	}
	if params.Bus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event bus required")
	}
	if params.Assets == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "asset releaser required")
	}
	return &service{
		kv:         params.KV,
		bus:        params.Bus,
		assets:     params.Assets,
		previewMax: params.Storage.PreviewMaxBytes,
		logg:       params.Logger,
		mets:       params.Metrics,
	}, nil
}

// CanPublish requires ownership and the creator role.
func (s *service) CanPublish(sess auth.Session, design Design) bool {
	return !sess.IsZero() && sess.UserID == design.OwnerID && sess.IsCreator()
}

// CanUnpublish requires ownership only.
func (s *service) CanUnpublish(sess auth.Session, design Design) bool {
	return !sess.IsZero() && sess.UserID == design.OwnerID
}

// CreateDraft stores a new design owned by the session user. Drafts are the
// only possible starting state.
func (s *service) CreateDraft(ctx context.Context, sess auth.Session, input CreateDraftInput) (*Design, error) {
	if sess.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to save designs")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	design := Design{
		ID:                  uuid.NewString(),
		OwnerID:             sess.UserID,
		Title:               input.Title,
		Prompt:              input.Prompt,
		ProductType:         input.ProductType,
		PrintArea:           input.PrintArea,
		BasePrice:           input.BasePrice,
		SelectedColor:       input.SelectedColor,
		AllowedColors:       input.AllowedColors,
		ArtworkAssetKey:     input.ArtworkAssetKey,
		PreviewFrontDataURL: input.PreviewFrontDataURL,
		PreviewBackDataURL:  input.PreviewBackDataURL,
		ImageX:              input.ImageX,
		ImageY:              input.ImageY,
		ImageScale:          input.ImageScale,
		Status:              enums.DesignStatusDraft,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.compactPreviews(ctx, &design)

	collection, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	collection = append(collection, design)

	saved, err := s.persistWithDegradation(ctx, collection)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, events.TopicDesignsUpdated)

	// The fresh draft itself may have been evicted under extreme pressure.
	for i := range saved {
		if saved[i].ID == design.ID {
			return &saved[i], nil
		}
	}
	return &design, nil
}

// Patch applies a partial update. Ownership never changes, and a status
// flip that fails its gate rejects the whole patch by returning the design
// unchanged; callers check the returned status rather than an error.
func (s *service) Patch(ctx context.Context, sess auth.Session, id string, patch Patch) (*Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexByID(collection, id)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
	}
	current := collection[idx]

	if patch.Status != nil && *patch.Status != current.Status {
		switch *patch.Status {
		case enums.DesignStatusPublished:
			if !s.CanPublish(sess, current) {
				unchanged := current
				return &unchanged, nil
			}
		case enums.DesignStatusDraft:
			if !s.CanUnpublish(sess, current) {
				unchanged := current
				return &unchanged, nil
			}
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown design status")
		}
	}

	applyPatch(&current, patch)
	current.UpdatedAt = time.Now().UTC()
	s.compactPreviews(ctx, &current)
	collection[idx] = current

	saved, err := s.persistWithDegradation(ctx, collection)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, events.TopicDesignsUpdated)

	if i := indexByID(saved, id); i >= 0 {
		return &saved[i], nil
	}
	return &current, nil
}

// TogglePublish is the publish switch. It enforces the same gate as Patch
// before delegating to it.
func (s *service) TogglePublish(ctx context.Context, sess auth.Session, id string, publish bool) (*Design, error) {
	status := enums.DesignStatusDraft
	if publish {
		status = enums.DesignStatusPublished
	}
	return s.Patch(ctx, sess, id, Patch{Status: &status})
}

// Delete removes an owned design, releasing its artwork asset first.
// Release failures are logged, never propagated. Unknown ids and foreign
// designs both report false.
func (s *service) Delete(ctx context.Context, sess auth.Session, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.read(ctx)
	if err != nil {
		return false, err
	}

	idx := indexByID(collection, id)
	if idx < 0 || collection[idx].OwnerID != sess.UserID {
		return false, nil
	}

	s.releaseAsset(ctx, collection[idx])
	collection = append(collection[:idx], collection[idx+1:]...)

	if _, err := s.persistWithDegradation(ctx, collection); err != nil {
		return false, err
	}
	s.bus.Publish(ctx, events.TopicDesignsUpdated)
	return true, nil
}

// GetByID looks up a single design.
func (s *service) GetByID(ctx context.Context, id string) (*Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexByID(collection, id); idx >= 0 {
		design := collection[idx]
		return &design, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
}

// ListForOwner returns the owner's designs, most recently touched first.
func (s *service) ListForOwner(ctx context.Context, ownerID string) ([]Design, error) {
	return s.list(ctx, func(d Design) bool { return d.OwnerID == ownerID })
}

// ListPublished returns the public marketplace listing, most recently
// touched first.
func (s *service) ListPublished(ctx context.Context) ([]Design, error) {
	return s.list(ctx, func(d Design) bool { return d.Status == enums.DesignStatusPublished })
}

func (s *service) list(ctx context.Context, keep func(Design) bool) ([]Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]Design, 0, len(collection))
	for _, design := range collection {
		if keep(design) {
			matched = append(matched, design)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	return matched, nil
}

func (s *service) read(ctx context.Context) ([]Design, error) {
	var collection []Design
	found, err := s.kv.ReadFamily(ctx, Collection, &collection)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load designs")
	}
	if !found || collection == nil {
		return []Design{}, nil
	}
	return collection, nil
}

// compactPreviews drops oversized preview strings instead of persisting
// them. Dropping whole fields keeps records parseable; truncating would
// corrupt the data URL.
func (s *service) compactPreviews(ctx context.Context, design *Design) {
	if s.previewMax <= 0 {
		return
	}
	dropped := false
	if len(design.PreviewFrontDataURL) > s.previewMax {
		design.PreviewFrontDataURL = ""
		dropped = true
	}
	if len(design.PreviewBackDataURL) > s.previewMax {
		design.PreviewBackDataURL = ""
		dropped = true
	}
	if dropped && s.logg != nil {
		lctx := s.logg.WithDesignID(ctx, design.ID)
		s.logg.Warn(lctx, "oversized preview dropped")
	}
}

func indexByID(collection []Design, id string) int {
	for i := range collection {
		if collection[i].ID == id {
			return i
		}
	}
	return -1
}

func applyPatch(design *Design, patch Patch) {
	// OwnerID is deliberately never read from the patch.
	if patch.Title != nil {
		design.Title = *patch.Title
	}
	if patch.Prompt != nil {
		design.Prompt = *patch.Prompt
	}
	if patch.ProductType != nil {
		design.ProductType = *patch.ProductType
	}
	if patch.PrintArea != nil {
		design.PrintArea = *patch.PrintArea
	}
	if patch.BasePrice != nil {
		design.BasePrice = *patch.BasePrice
	}
	if patch.SelectedColor != nil {
		design.SelectedColor = *patch.SelectedColor
	}
	if patch.AllowedColors != nil {
		design.AllowedColors = *patch.AllowedColors
	}
	if patch.ArtworkAssetKey != nil {
		design.ArtworkAssetKey = *patch.ArtworkAssetKey
	}
	if patch.PreviewFrontDataURL != nil {
		design.PreviewFrontDataURL = *patch.PreviewFrontDataURL
	}
	if patch.PreviewBackDataURL != nil {
		design.PreviewBackDataURL = *patch.PreviewBackDataURL
	}
	if patch.ImageX != nil {
		design.ImageX = *patch.ImageX
	}
	if patch.ImageY != nil {
		design.ImageY = *patch.ImageY
	}
	if patch.ImageScale != nil {
		design.ImageScale = *patch.ImageScale
	}
	if patch.Status != nil {
		design.Status = *patch.Status
	}
}
