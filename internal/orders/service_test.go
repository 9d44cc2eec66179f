package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/teelab/storefront/internal/cart"
	"github.com/teelab/storefront/pkg/config"
	"github.com/teelab/storefront/pkg/db"
	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/events"
	"github.com/teelab/storefront/pkg/kvstore"
)

func newTestService(t *testing.T) (Service, cart.Service, *events.Bus) {
	t.Helper()
	client, err := db.NewInMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	kv, err := kvstore.New(client, 0, nil, nil)
	if err != nil {
		t.Fatalf("new kv: %v", err)
	}
	if err := kv.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	bus := events.NewBus(nil, nil)
	cartService, err := cart.NewService(cart.ServiceParams{
		KV:  kv,
		Bus: bus,
		Pricing: config.PricingConfig{
			ShippingFee:        "6.95",
			CreatorUnitEarning: "4.00",
			CreatorShare:       "0.30",
		},
	})
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}

	svc, err := NewService(ServiceParams{KV: kv, Bus: bus, Cart: cartService})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return svc, cartService, bus
}

func fillCart(t *testing.T, cartService cart.Service) {
	t.Helper()
	_, err := cartService.Add(context.Background(), cart.Item{
		Name:     "Classic Tee",
		Price:    decimal.RequireFromString("34.99"),
		Quantity: 1,
		Size:     "M",
		DesignID: "d1",
	})
	if err != nil {
		t.Fatalf("fill cart: %v", err)
	}
}

func TestCreateOrderFreezesCart(t *testing.T) {
	svc, cartService, _ := newTestService(t)
	ctx := context.Background()
	fillCart(t, cartService)

	order, err := svc.CreateOrder(ctx, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("new orders start pending, got %s", order.Status)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected snapshot of 1 item, got %d", len(order.Items))
	}
	if !order.Subtotal.Equal(decimal.RequireFromString("34.99")) ||
		!order.Shipping.Equal(decimal.RequireFromString("6.95")) ||
		!order.Total.Equal(decimal.RequireFromString("41.94")) {
		t.Fatalf("unexpected totals: %s %s %s", order.Subtotal, order.Shipping, order.Total)
	}

	items, err := cartService.Items(ctx)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 0 {
		t.Fatal("checkout must clear the cart")
	}
}

func TestCreateOrderRejectsEmptyCart(t *testing.T) {
	svc, _, _ := newTestService(t)

	order, err := svc.CreateOrder(context.Background(), nil)
	if order != nil {
		t.Fatal("no order expected")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrderSnapshotIsImmutable(t *testing.T) {
	svc, cartService, _ := newTestService(t)
	ctx := context.Background()
	fillCart(t, cartService)

	order, err := svc.CreateOrder(ctx, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Refill and mutate the cart; the stored order must not move.
	fillCart(t, cartService)

	got, err := svc.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 1 {
		t.Fatalf("order snapshot changed: %+v", got.Items)
	}
}

func TestAddressAllOrNothing(t *testing.T) {
	svc, cartService, _ := newTestService(t)
	ctx := context.Background()

	fillCart(t, cartService)
	full, err := svc.CreateOrder(ctx, &Address{
		Name:     "  Ada Lovelace  ",
		Address1: "Rue de la Loi 1",
		Zip:      "1000",
		City:     "Brussels",
		Country:  "BE",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if full.ShippingAddress == nil {
		t.Fatal("complete address should persist")
	}
	if full.ShippingAddress.Name != "Ada Lovelace" {
		t.Fatalf("address not trimmed: %q", full.ShippingAddress.Name)
	}

	fillCart(t, cartService)
	partial, err := svc.CreateOrder(ctx, &Address{Name: "Ada", City: "Brussels"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if partial.ShippingAddress != nil {
		t.Fatal("partial address must be dropped entirely")
	}
}

func TestListNewestFirst(t *testing.T) {
	svc, cartService, _ := newTestService(t)
	ctx := context.Background()

	fillCart(t, cartService)
	first, err := svc.CreateOrder(ctx, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	fillCart(t, cartService)
	second, err := svc.CreateOrder(ctx, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	history, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(history))
	}
	if history[0].ID != second.ID || history[1].ID != first.ID {
		t.Fatal("expected newest-first ordering")
	}
}

func TestUpdateStatusAppliesPatchAtomically(t *testing.T) {
	svc, cartService, _ := newTestService(t)
	ctx := context.Background()
	fillCart(t, cartService)

	order, err := svc.CreateOrder(ctx, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	paidAt := time.Now().UTC()
	updated, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPaidMock, StatusPatch{
		PaidAt:          &paidAt,
		PaymentProvider: enums.PaymentProviderMock,
		PaymentStatus:   enums.PaymentStatusPaid,
		PaymentIntentID: "mock_123",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != enums.OrderStatusPaidMock {
		t.Fatalf("status %s", updated.Status)
	}
	if updated.PaidAt == nil || updated.PaymentProvider != enums.PaymentProviderMock || updated.PaymentIntentID != "mock_123" {
		t.Fatalf("payment fields not applied: %+v", updated)
	}
}

func TestUpdateStatusGuardsTransitions(t *testing.T) {
	svc, cartService, _ := newTestService(t)
	ctx := context.Background()
	fillCart(t, cartService)

	order, err := svc.CreateOrder(ctx, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid, StatusPatch{}); err != nil {
		t.Fatalf("pending->paid: %v", err)
	}

	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled, StatusPatch{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatus("weird"), StatusPatch{})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.UpdateStatus(ctx, "missing", enums.OrderStatusPaid, StatusPatch{})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestComputeTotalsRecomputesWhenUntrusted(t *testing.T) {
	svc, _, _ := newTestService(t)

	order := Order{
		Items: []cart.Item{{
			Price:    decimal.RequireFromString("34.99"),
			Quantity: 1,
		}},
		Subtotal: decimal.RequireFromString("-1"),
		Shipping: decimal.RequireFromString("6.95"),
		Total:    decimal.RequireFromString("5.95"),
	}

	totals := svc.ComputeTotals(order)
	if !totals.Total.Equal(decimal.RequireFromString("41.94")) {
		t.Fatalf("expected recomputed total 41.94, got %s", totals.Total)
	}
}

func TestComputeTotalsTrustsValidNumbers(t *testing.T) {
	svc, _, _ := newTestService(t)

	order := Order{
		Items: []cart.Item{{
			Price:    decimal.RequireFromString("34.99"),
			Quantity: 1,
		}},
		Subtotal: decimal.RequireFromString("30.00"),
		Shipping: decimal.RequireFromString("5.00"),
		Total:    decimal.RequireFromString("35.00"),
	}

	totals := svc.ComputeTotals(order)
	if !totals.Total.Equal(decimal.RequireFromString("35.00")) {
		t.Fatalf("persisted totals should be trusted, got %s", totals.Total)
	}
}
