package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/teelab/storefront/internal/cart"
	"github.com/teelab/storefront/internal/orders"
	"github.com/teelab/storefront/pkg/enums"
)

var share = decimal.RequireFromString("0.30")

func testHistory() []orders.Order {
	return []orders.Order{
		{
			ID:     "o1",
			Status: enums.OrderStatusPaid,
			Items: []cart.Item{
				{DesignID: "d1", Quantity: 2, Price: decimal.RequireFromString("34.99")},
				{Quantity: 1, Price: decimal.RequireFromString("19.99")}, // plain merch, no design
			},
		},
		{
			ID:     "o2",
			Status: enums.OrderStatusPaidMock,
			Items: []cart.Item{
				{DesignID: "d1", Quantity: 1, Price: decimal.RequireFromString("34.99")},
				{DesignID: "d2", Quantity: 1, Price: decimal.RequireFromString("29.99")},
			},
		},
		{
			ID:     "o3",
			Status: enums.OrderStatusPending, // never counted
			Items: []cart.Item{
				{DesignID: "d1", Quantity: 5, Price: decimal.RequireFromString("34.99")},
			},
		},
	}
}

func TestPerDesignStats(t *testing.T) {
	stats := PerDesignStats(testHistory(), share)

	d1, ok := stats["d1"]
	if !ok {
		t.Fatal("missing d1")
	}
	if d1.UnitsSold != 3 {
		t.Fatalf("d1 units %d, want 3", d1.UnitsSold)
	}
	if !d1.Revenue.Equal(decimal.RequireFromString("104.97")) {
		t.Fatalf("d1 revenue %s", d1.Revenue)
	}

	d2, ok := stats["d2"]
	if !ok {
		t.Fatal("missing d2")
	}
	if d2.UnitsSold != 1 || !d2.Revenue.Equal(decimal.RequireFromString("29.99")) {
		t.Fatalf("d2 stats %+v", d2)
	}
	if !d2.CreatorEarnings.Equal(decimal.RequireFromString("9.00")) {
		t.Fatalf("d2 earnings %s, want 9.00", d2.CreatorEarnings)
	}

	if _, ok := stats[""]; ok {
		t.Fatal("unlinked items must not create an entry")
	}
}

func TestOverallStats(t *testing.T) {
	overall := OverallStats(testHistory(), share)

	if overall.TotalOrders != 2 {
		t.Fatalf("orders %d, want 2", overall.TotalOrders)
	}
	if overall.TotalUnits != 5 {
		t.Fatalf("units %d, want 5", overall.TotalUnits)
	}
	// 34.99*3 + 19.99 + 29.99
	if !overall.TotalRevenue.Equal(decimal.RequireFromString("154.95")) {
		t.Fatalf("revenue %s", overall.TotalRevenue)
	}
	if overall.TotalCreatorEarnings.IsZero() {
		t.Fatal("expected creator earnings")
	}
	if overall.TotalCreatorEarnings.GreaterThanOrEqual(overall.TotalRevenue) {
		t.Fatal("earnings must stay below revenue")
	}
}

func TestStatsWithEmptyHistory(t *testing.T) {
	if got := PerDesignStats(nil, share); len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
	overall := OverallStats(nil, share)
	if overall.TotalOrders != 0 || !overall.TotalRevenue.IsZero() {
		t.Fatalf("expected zero overall, got %+v", overall)
	}
}
