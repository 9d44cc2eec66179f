package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/teelab/storefront/internal/cart"
	"github.com/teelab/storefront/pkg/enums"
)

// Address is the shipping destination captured at checkout.
type Address struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Zip      string `json:"zip"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

// normalizeAddress applies the all-or-nothing rule: either every field is
// present after trimming, or the address is dropped entirely. Partial
// addresses never reach storage.
func normalizeAddress(addr *Address) *Address {
	if addr == nil {
		return nil
	}
	clean := Address{
		Name:     strings.TrimSpace(addr.Name),
		Address1: strings.TrimSpace(addr.Address1),
		Zip:      strings.TrimSpace(addr.Zip),
		City:     strings.TrimSpace(addr.City),
		Country:  strings.TrimSpace(addr.Country),
	}
	if clean.Name == "" || clean.Address1 == "" || clean.Zip == "" || clean.City == "" || clean.Country == "" {
		return nil
	}
	return &clean
}

// Order is an immutable record of a placed cart. Items are a snapshot taken
// at creation time; later cart mutations never touch them.
type Order struct {
	ID              string                `json:"id"`
	CreatedAt       time.Time             `json:"createdAt"`
	Status          enums.OrderStatus     `json:"status"`
	Items           []cart.Item           `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	Shipping        decimal.Decimal       `json:"shipping"`
	Total           decimal.Decimal       `json:"total"`
	ShippingAddress *Address              `json:"shippingAddress,omitempty"`
	PaidAt          *time.Time            `json:"paidAt,omitempty"`
	PaymentProvider enums.PaymentProvider `json:"paymentProvider,omitempty"`
	PaymentStatus   enums.PaymentStatus   `json:"paymentStatus,omitempty"`
	PaymentIntentID string                `json:"paymentIntentId,omitempty"`
}

// snapshotItems deep-copies cart lines into the order.
func snapshotItems(items []cart.Item) []cart.Item {
	snapshot := make([]cart.Item, len(items))
	copy(snapshot, items)
	return snapshot
}

// StatusPatch carries the payment fields applied atomically with a status
// transition.
type StatusPatch struct {
	PaidAt          *time.Time
	PaymentProvider enums.PaymentProvider
	PaymentStatus   enums.PaymentStatus
	PaymentIntentID string
}
