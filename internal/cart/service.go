package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/teelab/storefront/pkg/config"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/events"
	"github.com/teelab/storefront/pkg/kvstore"
	"github.com/teelab/storefront/pkg/logger"
	"github.com/teelab/storefront/pkg/money"
)

// Collection is the versioned key family holding the active cart.
var Collection = kvstore.Family{
	Current: "cart-v2",
	Legacy:  []string{"cart-v1", "cart"},
}

// Service exposes the active-cart operations.
type Service interface {
	Add(ctx context.Context, item Item) (Item, error)
	Remove(ctx context.Context, id string) error
	SetQuantity(ctx context.Context, id string, quantity int) error
	Clear(ctx context.Context) error
	Items(ctx context.Context) ([]Item, error)
	Totals(items []Item) Totals
	RequestOpen(ctx context.Context)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	KV      *kvstore.Store
	Bus     *events.Bus
	Pricing config.PricingConfig
	Logger  *logger.Logger
}

type service struct {
	mu          sync.Mutex
	kv          *kvstore.Store
	bus         *events.Bus
	shippingFee decimal.Decimal
	logg        *logger.Logger
}

// NewService builds a cart service backed by the key/value store.
func NewService(params ServiceParams) (Service, error) {
	if params.KV == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key/value store required")
	}
	if params.Bus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event bus required")
	}
	return &service{
		kv:          params.KV,
		bus:         params.Bus,
		shippingFee: params.Pricing.ShippingFeeAmount(),
		logg:        params.Logger,
	}, nil
}

// Add coerces the item, merges it into an existing matching variant or
// prepends a new line, persists, and announces the change. Malformed input
// never errors.
func (s *service) Add(ctx context.Context, item Item) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item = Normalize(item)

	items, err := s.read(ctx)
	if err != nil {
		return Item{}, err
	}

	merged := false
	key := item.variantKey()
	for i := range items {
		if items[i].variantKey() == key {
			items[i].Quantity += item.Quantity
			item = items[i]
			merged = true
			break
		}
	}
	if !merged {
		items = append([]Item{item}, items...)
	}

	s.persist(ctx, items)
	return item, nil
}

// Remove drops the line with the given id. Unknown ids are a no-op.
func (s *service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read(ctx)
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return nil
	}

	s.persist(ctx, kept)
	return nil
}

// SetQuantity updates a line's quantity, floored at one. Unknown ids are a
// no-op.
func (s *service) SetQuantity(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		quantity = 1
	}

	items, err := s.read(ctx)
	if err != nil {
		return err
	}

	for i := range items {
		if items[i].ID == id {
			if items[i].Quantity == quantity {
				return nil
			}
			items[i].Quantity = quantity
			s.persist(ctx, items)
			return nil
		}
	}
	return nil
}

// Clear empties the cart. The collection key stays initialized so legacy
// keys cannot resurrect old contents.
func (s *service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persist(ctx, []Item{})
	return nil
}

// Items returns a fresh copy of the persisted cart.
func (s *service) Items(ctx context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Totals computes the price summary: subtotal clamped at zero, a flat
// shipping fee once anything is in the cart, and their sum.
func (s *service) Totals(items []Item) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		line := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}
	subtotal = money.NonNegative(money.Round2(subtotal))

	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = s.shippingFee
	}

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}

// RequestOpen asks any listening UI surface to open the cart panel.
func (s *service) RequestOpen(ctx context.Context) {
	s.bus.Publish(ctx, events.TopicCartOpenRequest)
}

func (s *service) read(ctx context.Context) ([]Item, error) {
	var items []Item
	found, err := s.kv.ReadFamily(ctx, Collection, &items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !found || items == nil {
		return []Item{}, nil
	}
	return items, nil
}

// persist writes the collection and publishes cart.updated. A failed write
// loses the change silently: the cart favors availability, and surfacing
// storage pressure is the design store's job.
func (s *service) persist(ctx context.Context, items []Item) {
	if err := s.kv.Write(ctx, Collection.Current, items); err != nil {
		if s.logg != nil {
			lctx := s.logg.WithCollection(ctx, Collection.Current)
			s.logg.Warn(lctx, "cart write dropped")
		}
		return
	}
	s.bus.Publish(ctx, events.TopicCartUpdated)
}
