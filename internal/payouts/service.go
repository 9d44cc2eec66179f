package payouts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teelab/storefront/internal/designs"
	"github.com/teelab/storefront/internal/orders"
	"github.com/teelab/storefront/pkg/config"
	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/events"
	"github.com/teelab/storefront/pkg/kvstore"
	"github.com/teelab/storefront/pkg/logger"
	"github.com/teelab/storefront/pkg/metrics"
)

// Collection is the versioned key family holding derived creator payouts.
var Collection = kvstore.Family{
	Current: "payouts-v1",
	Legacy:  []string{"payouts"},
}

// Payout is a derived creator earning: one per (order, design-linked line
// item) pair, never authored directly.
type Payout struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	OrderID   string             `json:"orderId"`
	CreatorID string             `json:"creatorId"`
	DesignID  string             `json:"designId"`
	Amount    decimal.Decimal    `json:"amount"`
	Status    enums.PayoutStatus `json:"status"`
}

type orderLoader interface {
	GetByID(ctx context.Context, id string) (*orders.Order, error)
}

type designLoader interface {
	GetByID(ctx context.Context, id string) (*designs.Design, error)
}

// Engine derives and queries creator payouts.
type Engine interface {
	DeriveForOrder(ctx context.Context, orderID string) ([]Payout, error)
	ListForCreator(ctx context.Context, creatorID string) ([]Payout, error)
	ListForOrder(ctx context.Context, orderID string) ([]Payout, error)
	ListByStatus(ctx context.Context, status enums.PayoutStatus) ([]Payout, error)
	TotalEligible(ctx context.Context, creatorID string) (decimal.Decimal, error)
}

// EngineParams groups dependencies for the payout engine.
type EngineParams struct {
	KV      *kvstore.Store
	Bus     *events.Bus
	Orders  orderLoader
	Designs designLoader
	Pricing config.PricingConfig
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
}

type engine struct {
	mu          sync.Mutex
	kv          *kvstore.Store
	bus         *events.Bus
	orders      orderLoader
	designs     designLoader
	unitEarning decimal.Decimal
	logg        *logger.Logger
	mets        *metrics.StoreMetrics
}

// NewEngine builds a payout engine backed by the key/value store.
func NewEngine(params EngineParams) (Engine, error) {
	if params.KV == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key/value store required")
	}
	if params.Bus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event bus required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order store required")
	}
	if params.Designs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "design store required")
	}
	return &engine{
		kv:          params.KV,
		bus:         params.Bus,
		orders:      params.Orders,
		designs:     params.Designs,
		unitEarning: params.Pricing.CreatorUnitEarningAmount(),
		logg:        params.Logger,
		mets:        params.Metrics,
	}, nil
}

// DeriveForOrder creates one eligible payout per design-linked line item of
// a settled order. Re-running for the same order returns the existing set,
// and unsettled orders are a no-op.
func (e *engine) DeriveForOrder(ctx context.Context, orderID string) ([]Payout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	collection, err := e.read(ctx)
	if err != nil {
		return nil, err
	}
	existing := filter(collection, func(p Payout) bool { return p.OrderID == orderID })
	if len(existing) > 0 {
		return existing, nil
	}
	if !order.Status.IsSettled() {
		return []Payout{}, nil
	}

	now := time.Now().UTC()
	derived := make([]Payout, 0, len(order.Items))
	for _, item := range order.Items {
		if item.DesignID == "" {
			continue
		}
		design, err := e.designs.GetByID(ctx, item.DesignID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				// The design was deleted or pruned after the sale; there is
				// no creator left to credit.
				continue
			}
			return nil, err
		}
		amount := e.unitEarning.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !amount.IsPositive() {
			continue
		}
		derived = append(derived, Payout{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
			OrderID:   orderID,
			CreatorID: design.OwnerID,
			DesignID:  design.ID,
			Amount:    amount,
			Status:    enums.PayoutStatusEligible,
		})
	}

	if len(derived) == 0 {
		return []Payout{}, nil
	}

	collection = append(collection, derived...)
	if err := e.persist(ctx, collection); err != nil {
		return nil, err
	}
	for range derived {
		e.mets.IncPayoutDerived()
	}
	e.bus.Publish(ctx, events.TopicPayoutsUpdated)
	return derived, nil
}

// ListForCreator returns every payout credited to the creator.
func (e *engine) ListForCreator(ctx context.Context, creatorID string) ([]Payout, error) {
	return e.query(ctx, func(p Payout) bool { return p.CreatorID == creatorID })
}

// ListForOrder returns the payouts derived from one order.
func (e *engine) ListForOrder(ctx context.Context, orderID string) ([]Payout, error) {
	return e.query(ctx, func(p Payout) bool { return p.OrderID == orderID })
}

// ListByStatus returns every payout in the given disbursement state.
func (e *engine) ListByStatus(ctx context.Context, status enums.PayoutStatus) ([]Payout, error) {
	return e.query(ctx, func(p Payout) bool { return p.Status == status })
}

// TotalEligible sums the creator's eligible amounts.
func (e *engine) TotalEligible(ctx context.Context, creatorID string) (decimal.Decimal, error) {
	matched, err := e.query(ctx, func(p Payout) bool {
		return p.CreatorID == creatorID && p.Status == enums.PayoutStatusEligible
	})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, payout := range matched {
		total = total.Add(payout.Amount)
	}
	return total, nil
}

func (e *engine) query(ctx context.Context, keep func(Payout) bool) ([]Payout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	collection, err := e.read(ctx)
	if err != nil {
		return nil, err
	}
	return filter(collection, keep), nil
}

func (e *engine) read(ctx context.Context) ([]Payout, error) {
	var collection []Payout
	found, err := e.kv.ReadFamily(ctx, Collection, &collection)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payouts")
	}
	if !found || collection == nil {
		return []Payout{}, nil
	}
	return collection, nil
}

func (e *engine) persist(ctx context.Context, collection []Payout) error {
	if err := e.kv.Write(ctx, Collection.Current, collection); err != nil {
		if errors.Is(err, kvstore.ErrQuotaExceeded) {
			return pkgerrors.Wrap(pkgerrors.CodeStorageExhausted, err, "persist payouts")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payouts")
	}
	return nil
}

func filter(collection []Payout, keep func(Payout) bool) []Payout {
	matched := make([]Payout, 0, len(collection))
	for _, payout := range collection {
		if keep(payout) {
			matched = append(matched, payout)
		}
	}
	return matched
}
