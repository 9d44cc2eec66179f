package analytics

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/teelab/storefront/internal/orders"
	"github.com/teelab/storefront/pkg/config"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
)

type orderLister interface {
	List(ctx context.Context) ([]orders.Order, error)
}

// Service feeds the seller dashboard from order history.
type Service interface {
	PerDesign(ctx context.Context) (map[string]DesignStats, error)
	Overall(ctx context.Context) (Overall, error)
}

type service struct {
	orders orderLister
	share  decimal.Decimal
}

// NewService wires the aggregator to the order store.
func NewService(lister orderLister, pricing config.PricingConfig) (Service, error) {
	if lister == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order store required")
	}
	return &service{
		orders: lister,
		share:  pricing.CreatorShareFraction(),
	}, nil
}

func (s *service) PerDesign(ctx context.Context) (map[string]DesignStats, error) {
	history, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	return PerDesignStats(history, s.share), nil
}

func (s *service) Overall(ctx context.Context) (Overall, error) {
	history, err := s.orders.List(ctx)
	if err != nil {
		return Overall{}, err
	}
	return OverallStats(history, s.share), nil
}
