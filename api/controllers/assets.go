package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teelab/storefront/api/responses"
	"github.com/teelab/storefront/api/validators"
	assetstore "github.com/teelab/storefront/internal/assets"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/logger"
)

type uploadAssetRequest struct {
	Data string `json:"data" validate:"required"`
}

// AssetUpload stores an artwork blob under a fresh key and returns the key
// for the design record to reference.
func AssetUpload(store assetstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload uploadAssetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		key := assetstore.NewKey()
		if err := store.Put(r.Context(), key, payload.Data); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"key": key})
	}
}

// AssetFetch loads an artwork blob by key. The key contains a slash, so the
// route captures it as a wildcard.
func AssetFetch(store assetstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		data, found, err := store.Get(r.Context(), key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !found {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"key": key, "data": data})
	}
}
