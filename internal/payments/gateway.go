package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teelab/storefront/internal/orders"
	"github.com/teelab/storefront/internal/payouts"
	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/logger"
)

type payoutDeriver interface {
	DeriveForOrder(ctx context.Context, orderID string) ([]payouts.Payout, error)
}

// Gateway simulates the payment collaborator. It only drives the order
// status machine and payout derivation; no payment network is contacted.
type Gateway interface {
	ProcessPayment(ctx context.Context, orderID string, provider enums.PaymentProvider) (*orders.Order, error)
}

// GatewayParams groups dependencies for the gateway.
type GatewayParams struct {
	Orders  orders.Service
	Payouts payoutDeriver
	Logger  *logger.Logger
}

type gateway struct {
	orders  orders.Service
	payouts payoutDeriver
	logg    *logger.Logger
}

// NewGateway wires the simulated gateway.
func NewGateway(params GatewayParams) (Gateway, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order store required")
	}
	if params.Payouts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payout engine required")
	}
	return &gateway{
		orders:  params.Orders,
		payouts: params.Payouts,
		logg:    params.Logger,
	}, nil
}

// ProcessPayment settles a pending order: the mock provider lands on
// paid_mock, the stripe placeholder on paid. On success it derives the
// creator payouts for the order.
func (g *gateway) ProcessPayment(ctx context.Context, orderID string, provider enums.PaymentProvider) (*orders.Order, error) {
	if !provider.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}

	status := enums.OrderStatusPaid
	intentPrefix := "pi"
	if provider == enums.PaymentProviderMock {
		status = enums.OrderStatusPaidMock
		intentPrefix = "mock"
	}

	paidAt := time.Now().UTC()
	order, err := g.orders.UpdateStatus(ctx, orderID, status, orders.StatusPatch{
		PaidAt:          &paidAt,
		PaymentProvider: provider,
		PaymentStatus:   enums.PaymentStatusPaid,
		PaymentIntentID: fmt.Sprintf("%s_%s", intentPrefix, uuid.NewString()),
	})
	if err != nil {
		return nil, err
	}

	if _, err := g.payouts.DeriveForOrder(ctx, order.ID); err != nil && g.logg != nil {
		// The payment settled; payout derivation can be retried on the next
		// settled-order event.
		lctx := g.logg.WithOrderID(ctx, order.ID)
		g.logg.Error(lctx, "payout derivation failed", err)
	}
	return order, nil
}
