package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teelab/storefront/api/middleware"
	"github.com/teelab/storefront/api/responses"
	payoutsvc "github.com/teelab/storefront/internal/payouts"
	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/logger"
)

// PayoutListMine returns the session creator's payouts, optionally filtered
// by status, together with the eligible total.
func PayoutListMine(eng payoutsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromContext(r.Context())

		payouts, err := eng.ListForCreator(r.Context(), sess.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParsePayoutStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filtered := payouts[:0]
			for _, p := range payouts {
				if p.Status == status {
					filtered = append(filtered, p)
				}
			}
			payouts = filtered
		}

		total, err := eng.TotalEligible(r.Context(), sess.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"payouts":       payouts,
			"eligibleTotal": total,
		})
	}
}

// PayoutListForOrder returns the payouts derived from one order.
func PayoutListForOrder(eng payoutsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payouts, err := eng.ListForOrder(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts)
	}
}

// PayoutDerive re-runs derivation for an order. Safe to call repeatedly.
func PayoutDerive(eng payoutsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payouts, err := eng.DeriveForOrder(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts)
	}
}
