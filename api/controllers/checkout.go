package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teelab/storefront/api/responses"
	"github.com/teelab/storefront/api/validators"
	"github.com/teelab/storefront/internal/payments"
	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/logger"
)

type checkoutRequest struct {
	Provider string `json:"provider" validate:"required"`
}

// Checkout settles a pending order through the simulated gateway.
func Checkout(gw payments.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		provider, err := enums.ParsePaymentProvider(payload.Provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid provider"))
			return
		}

		order, err := gw.ProcessPayment(r.Context(), chi.URLParam(r, "orderId"), provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
