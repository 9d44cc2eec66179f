package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teelab/storefront/internal/cart"
	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/events"
	"github.com/teelab/storefront/pkg/kvstore"
	"github.com/teelab/storefront/pkg/logger"
	"github.com/teelab/storefront/pkg/money"
)

// Collection is the versioned key family holding order history.
var Collection = kvstore.Family{
	Current: "orders-v1",
	Legacy:  []string{"orders"},
}

type cartStore interface {
	Items(ctx context.Context) ([]cart.Item, error)
	Totals(items []cart.Item) cart.Totals
	Clear(ctx context.Context) error
}

// Service exposes the order lifecycle.
type Service interface {
	CreateOrder(ctx context.Context, addr *Address) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status enums.OrderStatus, patch StatusPatch) (*Order, error)
	ComputeTotals(order Order) cart.Totals
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	KV     *kvstore.Store
	Bus    *events.Bus
	Cart   cartStore
	Logger *logger.Logger
}

type service struct {
	mu   sync.Mutex
	kv   *kvstore.Store
	bus  *events.Bus
	cart cartStore
	logg *logger.Logger
}

// NewService builds an order service backed by the key/value store.
func NewService(params ServiceParams) (Service, error) {
	if params.KV == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key/value store required")
	}
	if params.Bus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event bus required")
	}
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart store required")
	}
	return &service{
		kv:   params.KV,
		bus:  params.Bus,
		cart: params.Cart,
		logg: params.Logger,
	}, nil
}

// CreateOrder freezes the current cart into a pending order and clears the
// cart. This is the commit point: an empty cart creates nothing and clears
// nothing. Write failures surface to the caller; order history is never
// silently dropped.
func (s *service) CreateOrder(ctx context.Context, addr *Address) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.cart.Items(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	totals := s.cart.Totals(items)
	order := Order{
		ID:              uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		Status:          enums.OrderStatusPending,
		Items:           snapshotItems(items),
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Total:           totals.Total,
		ShippingAddress: normalizeAddress(addr),
	}

	history, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	history = append([]Order{order}, history...)

	if err := s.persist(ctx, history); err != nil {
		return nil, err
	}

	if err := s.cart.Clear(ctx); err != nil && s.logg != nil {
		s.logg.Error(ctx, "clearing cart after checkout", err)
	}

	s.bus.Publish(ctx, events.TopicOrdersUpdated)
	return &order, nil
}

// GetByID looks up a single order.
func (s *service) GetByID(ctx context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range history {
		if history[i].ID == id {
			order := history[i]
			return &order, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

// List returns order history, newest first.
func (s *service) List(ctx context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})
	return history, nil
}

// UpdateStatus applies a guarded state-machine transition together with the
// payment fields, atomically in one collection write.
func (s *service) UpdateStatus(ctx context.Context, id string, status enums.OrderStatus, patch StatusPatch) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	history, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	for i := range history {
		if history[i].ID != id {
			continue
		}
		if !history[i].Status.CanTransitionTo(status) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition disallowed").
				WithDetails(map[string]any{"from": history[i].Status, "to": status})
		}

		history[i].Status = status
		if patch.PaidAt != nil {
			history[i].PaidAt = patch.PaidAt
		}
		if patch.PaymentProvider != "" {
			history[i].PaymentProvider = patch.PaymentProvider
		}
		if patch.PaymentStatus != "" {
			history[i].PaymentStatus = patch.PaymentStatus
		}
		if patch.PaymentIntentID != "" {
			history[i].PaymentIntentID = patch.PaymentIntentID
		}

		if err := s.persist(ctx, history); err != nil {
			return nil, err
		}
		s.bus.Publish(ctx, events.TopicOrdersUpdated)
		order := history[i]
		return &order, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

// ComputeTotals re-derives totals from the order's own items when the
// persisted numbers cannot be trusted.
func (s *service) ComputeTotals(order Order) cart.Totals {
	persisted := cart.Totals{
		Subtotal: order.Subtotal,
		Shipping: order.Shipping,
		Total:    order.Total,
	}
	trustworthy := money.IsValidTotal(order.Subtotal) &&
		money.IsValidTotal(order.Shipping) &&
		money.IsValidTotal(order.Total)
	if trustworthy && (len(order.Items) == 0 || order.Total.IsPositive()) {
		return persisted
	}
	return s.cart.Totals(order.Items)
}

func (s *service) read(ctx context.Context) ([]Order, error) {
	var history []Order
	found, err := s.kv.ReadFamily(ctx, Collection, &history)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}
	if !found || history == nil {
		return []Order{}, nil
	}
	return history, nil
}

func (s *service) persist(ctx context.Context, history []Order) error {
	if err := s.kv.Write(ctx, Collection.Current, history); err != nil {
		if errors.Is(err, kvstore.ErrQuotaExceeded) {
			return pkgerrors.Wrap(pkgerrors.CodeStorageExhausted, err, "persist orders")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist orders")
	}
	return nil
}
