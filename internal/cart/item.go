package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teelab/storefront/pkg/enums"
	"github.com/teelab/storefront/pkg/money"
)

// Item is one purchasable line in the active cart. The JSON shape matches
// the persisted collection exactly.
type Item struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	ProductType    enums.ProductType `json:"productType,omitempty"`
	Price          decimal.Decimal   `json:"price"`
	Quantity       int               `json:"quantity"`
	Color          string            `json:"color"`
	ColorHex       string            `json:"colorHex,omitempty"`
	Size           string            `json:"size"`
	PrintArea      enums.PrintArea   `json:"printArea"`
	DesignID       string            `json:"designId,omitempty"`
	PreviewDataURL string            `json:"previewDataUrl,omitempty"`
}

// variantKey identifies "the same variant" for merge-on-add. Two lines with
// the same key are collapsed by summing quantity.
func (i Item) variantKey() string {
	return strings.Join([]string{
		i.DesignID,
		i.Name,
		string(i.ProductType),
		i.Size,
		i.Color,
		string(i.PrintArea),
	}, "|")
}

// Normalize is the single coercion policy for cart input. Malformed fields
// never error; they collapse to safe defaults.
func Normalize(item Item) Item {
	if strings.TrimSpace(item.ID) == "" {
		item.ID = uuid.NewString()
	}
	item.Name = strings.TrimSpace(item.Name)
	item.Price = money.Round2(item.Price)
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	return item
}

// Totals is the computed price summary for a set of items.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}
