package analytics

import (
	"github.com/shopspring/decimal"
	"github.com/teelab/storefront/internal/orders"
)

// DesignStats aggregates sales for one design.
type DesignStats struct {
	UnitsSold       int             `json:"unitsSold"`
	Revenue         decimal.Decimal `json:"revenue"`
	CreatorEarnings decimal.Decimal `json:"creatorEarnings"`
}

// Overall aggregates sales across the whole shop.
type Overall struct {
	TotalRevenue         decimal.Decimal `json:"totalRevenue"`
	TotalCreatorEarnings decimal.Decimal `json:"totalCreatorEarnings"`
	TotalOrders          int             `json:"totalOrders"`
	TotalUnits           int             `json:"totalUnits"`
}

// PerDesignStats folds order history into per-design sales figures. Only
// settled orders count; items without a design link carry no creator
// earnings and are skipped here. Pure: safe to recompute on every render.
func PerDesignStats(history []orders.Order, creatorShare decimal.Decimal) map[string]DesignStats {
	stats := map[string]DesignStats{}
	for _, order := range history {
		if !order.Status.IsSettled() {
			continue
		}
		for _, item := range order.Items {
			if item.DesignID == "" {
				continue
			}
			revenue := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			entry := stats[item.DesignID]
			entry.UnitsSold += item.Quantity
			entry.Revenue = entry.Revenue.Add(revenue)
			entry.CreatorEarnings = entry.CreatorEarnings.Add(revenue.Mul(creatorShare)).Round(2)
			stats[item.DesignID] = entry
		}
	}
	return stats
}

// OverallStats folds order history into shop-wide totals. Creator earnings
// accrue only on design-linked items; revenue and units count every line of
// a settled order.
func OverallStats(history []orders.Order, creatorShare decimal.Decimal) Overall {
	overall := Overall{
		TotalRevenue:         decimal.Zero,
		TotalCreatorEarnings: decimal.Zero,
	}
	for _, order := range history {
		if !order.Status.IsSettled() {
			continue
		}
		overall.TotalOrders++
		for _, item := range order.Items {
			revenue := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			overall.TotalUnits += item.Quantity
			overall.TotalRevenue = overall.TotalRevenue.Add(revenue)
			if item.DesignID != "" {
				overall.TotalCreatorEarnings = overall.TotalCreatorEarnings.Add(revenue.Mul(creatorShare)).Round(2)
			}
		}
	}
	return overall
}
