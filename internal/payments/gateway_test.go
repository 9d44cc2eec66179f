package payments

import (
	"context"
	"testing"

	"github.com/teelab/storefront/internal/cart"
	"github.com/teelab/storefront/internal/orders"
	"github.com/teelab/storefront/internal/payouts"
	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
)

type stubOrderService struct {
	order       *orders.Order
	lastStatus  enums.OrderStatus
	lastPatch   orders.StatusPatch
	updateError error
}

func (s *stubOrderService) CreateOrder(context.Context, *orders.Address) (*orders.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubOrderService) GetByID(context.Context, string) (*orders.Order, error) {
	return s.order, nil
}

func (s *stubOrderService) List(context.Context) ([]orders.Order, error) {
	return nil, nil
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _ string, status enums.OrderStatus, patch orders.StatusPatch) (*orders.Order, error) {
	if s.updateError != nil {
		return nil, s.updateError
	}
	s.lastStatus = status
	s.lastPatch = patch
	updated := *s.order
	updated.Status = status
	return &updated, nil
}

func (s *stubOrderService) ComputeTotals(order orders.Order) cart.Totals {
	return cart.Totals{}
}

type stubDeriver struct {
	calls []string
	err   error
}

func (s *stubDeriver) DeriveForOrder(_ context.Context, orderID string) ([]payouts.Payout, error) {
	s.calls = append(s.calls, orderID)
	return nil, s.err
}

func newTestGateway(t *testing.T, orderStub *stubOrderService, deriver *stubDeriver) Gateway {
	t.Helper()
	gw, err := NewGateway(GatewayParams{Orders: orderStub, Payouts: deriver})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return gw
}

func TestProcessPaymentMockProvider(t *testing.T) {
	orderStub := &stubOrderService{order: &orders.Order{ID: "o1", Status: enums.OrderStatusPending}}
	deriver := &stubDeriver{}
	gw := newTestGateway(t, orderStub, deriver)

	order, err := gw.ProcessPayment(context.Background(), "o1", enums.PaymentProviderMock)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if order.Status != enums.OrderStatusPaidMock {
		t.Fatalf("mock provider should land on paid_mock, got %s", order.Status)
	}
	if orderStub.lastPatch.PaidAt == nil {
		t.Fatal("paidAt not set")
	}
	if orderStub.lastPatch.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("payment status %s", orderStub.lastPatch.PaymentStatus)
	}
	if orderStub.lastPatch.PaymentIntentID == "" {
		t.Fatal("intent id not minted")
	}
	if len(deriver.calls) != 1 || deriver.calls[0] != "o1" {
		t.Fatalf("payout derivation not triggered: %v", deriver.calls)
	}
}

func TestProcessPaymentStripeProvider(t *testing.T) {
	orderStub := &stubOrderService{order: &orders.Order{ID: "o1", Status: enums.OrderStatusPending}}
	gw := newTestGateway(t, orderStub, &stubDeriver{})

	order, err := gw.ProcessPayment(context.Background(), "o1", enums.PaymentProviderStripe)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if order.Status != enums.OrderStatusPaid {
		t.Fatalf("stripe should land on paid, got %s", order.Status)
	}
	if orderStub.lastPatch.PaymentProvider != enums.PaymentProviderStripe {
		t.Fatalf("provider %s", orderStub.lastPatch.PaymentProvider)
	}
}

func TestProcessPaymentRejectsUnknownProvider(t *testing.T) {
	gw := newTestGateway(t, &stubOrderService{order: &orders.Order{ID: "o1"}}, &stubDeriver{})

	_, err := gw.ProcessPayment(context.Background(), "o1", enums.PaymentProvider("paypal"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessPaymentSurfacesTransitionErrors(t *testing.T) {
	orderStub := &stubOrderService{
		order:       &orders.Order{ID: "o1", Status: enums.OrderStatusPaid},
		updateError: pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition disallowed"),
	}
	deriver := &stubDeriver{}
	gw := newTestGateway(t, orderStub, deriver)

	_, err := gw.ProcessPayment(context.Background(), "o1", enums.PaymentProviderMock)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(deriver.calls) != 0 {
		t.Fatal("failed settlement must not derive payouts")
	}
}

func TestProcessPaymentToleratesDeriveFailure(t *testing.T) {
	orderStub := &stubOrderService{order: &orders.Order{ID: "o1", Status: enums.OrderStatusPending}}
	deriver := &stubDeriver{err: pkgerrors.New(pkgerrors.CodeDependency, "store down")}
	gw := newTestGateway(t, orderStub, deriver)

	order, err := gw.ProcessPayment(context.Background(), "o1", enums.PaymentProviderMock)
	if err != nil {
		t.Fatalf("settled payment must not fail on payout errors: %v", err)
	}
	if order == nil || order.Status != enums.OrderStatusPaidMock {
		t.Fatalf("unexpected order: %+v", order)
	}
}
