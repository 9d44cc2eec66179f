package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/teelab/storefront/api/middleware"
	"github.com/teelab/storefront/api/responses"
	"github.com/teelab/storefront/api/validators"
	designsvc "github.com/teelab/storefront/internal/designs"
	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/logger"
)

type createDesignRequest struct {
	Title               string            `json:"title" validate:"required"`
	Prompt              string            `json:"prompt"`
	ProductType         enums.ProductType `json:"productType"`
	PrintArea           enums.PrintArea   `json:"printArea"`
	BasePrice           decimal.Decimal   `json:"basePrice"`
	SelectedColor       string            `json:"selectedColor"`
	AllowedColors       []string          `json:"allowedColors"`
	ArtworkAssetKey     string            `json:"artworkAssetKey"`
	PreviewFrontDataURL string            `json:"previewFrontDataUrl"`
	PreviewBackDataURL  string            `json:"previewBackDataUrl"`
	ImageX              float64           `json:"imageX"`
	ImageY              float64           `json:"imageY"`
	ImageScale          float64           `json:"imageScale"`
}

type publishRequest struct {
	Publish bool `json:"publish"`
}

// DesignCreate stores a new draft owned by the session user.
func DesignCreate(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createDesignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		design, err := svc.CreateDraft(r.Context(), middleware.SessionFromContext(r.Context()), designsvc.CreateDraftInput{
			Title:               payload.Title,
			Prompt:              payload.Prompt,
			ProductType:         payload.ProductType,
			PrintArea:           payload.PrintArea,
			BasePrice:           payload.BasePrice,
			SelectedColor:       payload.SelectedColor,
			AllowedColors:       payload.AllowedColors,
			ArtworkAssetKey:     payload.ArtworkAssetKey,
			PreviewFrontDataURL: payload.PreviewFrontDataURL,
			PreviewBackDataURL:  payload.PreviewBackDataURL,
			ImageX:              payload.ImageX,
			ImageY:              payload.ImageY,
			ImageScale:          payload.ImageScale,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, design)
	}
}

// DesignListMine returns the session user's designs.
func DesignListMine(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromContext(r.Context())
		designs, err := svc.ListForOwner(r.Context(), sess.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, designs)
	}
}

// DesignListPublished returns the public marketplace listing.
func DesignListPublished(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		designs, err := svc.ListPublished(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, designs)
	}
}

// DesignDetail returns one design.
func DesignDetail(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		design, err := svc.GetByID(r.Context(), chi.URLParam(r, "designId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, design)
	}
}

// DesignPatch applies a partial update. An ungated status flip comes back as
// the unchanged design, not an error; clients compare the returned status.
func DesignPatch(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch designsvc.Patch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		design, err := svc.Patch(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "designId"), patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, design)
	}
}

// DesignPublish toggles the publish state through the authorization gate.
func DesignPublish(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload publishRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		design, err := svc.TogglePublish(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "designId"), payload.Publish)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, design)
	}
}

// DesignDelete removes an owned design.
func DesignDelete(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := svc.Delete(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "designId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !removed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "design not found"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
