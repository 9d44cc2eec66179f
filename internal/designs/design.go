package designs

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/teelab/storefront/pkg/enums"
)

// Design is a user-authored print design. OwnerID is immutable after
// creation; Status flips only through the authorization gate.
type Design struct {
	ID                  string             `json:"id"`
	OwnerID             string             `json:"ownerId"`
	Title               string             `json:"title"`
	Prompt              string             `json:"prompt"`
	ProductType         enums.ProductType  `json:"productType"`
	PrintArea           enums.PrintArea    `json:"printArea"`
	BasePrice           decimal.Decimal    `json:"basePrice"`
	SelectedColor       string             `json:"selectedColor"`
	AllowedColors       []string           `json:"allowedColors"`
	ArtworkAssetKey     string             `json:"artworkAssetKey,omitempty"`
	PreviewFrontDataURL string             `json:"previewFrontDataUrl,omitempty"`
	PreviewBackDataURL  string             `json:"previewBackDataUrl,omitempty"`
	ImageX              float64            `json:"imageX"`
	ImageY              float64            `json:"imageY"`
	ImageScale          float64            `json:"imageScale"`
	Status              enums.DesignStatus `json:"status"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// CreateDraftInput carries the authorable fields for a new draft.
type CreateDraftInput struct {
	Title               string
	Prompt              string
	ProductType         enums.ProductType
	PrintArea           enums.PrintArea
	BasePrice           decimal.Decimal
	SelectedColor       string
	AllowedColors       []string
	ArtworkAssetKey     string
	PreviewFrontDataURL string
	PreviewBackDataURL  string
	ImageX              float64
	ImageY              float64
	ImageScale          float64
}

// Patch is a partial update. Nil fields stay untouched. OwnerID is accepted
// so scripted callers can try to change it, and ignored so they never
// succeed.
type Patch struct {
	OwnerID             *string             `json:"ownerId,omitempty"`
	Title               *string             `json:"title,omitempty"`
	Prompt              *string             `json:"prompt,omitempty"`
	ProductType         *enums.ProductType  `json:"productType,omitempty"`
	PrintArea           *enums.PrintArea    `json:"printArea,omitempty"`
	BasePrice           *decimal.Decimal    `json:"basePrice,omitempty"`
	SelectedColor       *string             `json:"selectedColor,omitempty"`
	AllowedColors       *[]string           `json:"allowedColors,omitempty"`
	ArtworkAssetKey     *string             `json:"artworkAssetKey,omitempty"`
	PreviewFrontDataURL *string             `json:"previewFrontDataUrl,omitempty"`
	PreviewBackDataURL  *string             `json:"previewBackDataUrl,omitempty"`
	ImageX              *float64            `json:"imageX,omitempty"`
	ImageY              *float64            `json:"imageY,omitempty"`
	ImageScale          *float64            `json:"imageScale,omitempty"`
	Status              *enums.DesignStatus `json:"status,omitempty"`
}
