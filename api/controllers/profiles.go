package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teelab/storefront/api/middleware"
	"github.com/teelab/storefront/api/responses"
	"github.com/teelab/storefront/api/validators"
	profilesvc "github.com/teelab/storefront/internal/profiles"
	"github.com/teelab/storefront/pkg/logger"
)

type updateProfileRequest struct {
	DisplayName string `json:"displayName" validate:"max=80"`
	Bio         string `json:"bio" validate:"max=1000"`
}

// ProfileMe returns the caller's profile, creating it on first access.
func ProfileMe(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.Ensure(r.Context(), middleware.SessionFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// ProfileUpdate edits the caller's profile.
func ProfileUpdate(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Update(r.Context(), middleware.SessionFromContext(r.Context()), profilesvc.UpdateInput{
			DisplayName: payload.DisplayName,
			Bio:         payload.Bio,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// ProfileDetail returns any creator's public profile.
func ProfileDetail(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.GetByID(r.Context(), chi.URLParam(r, "creatorId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
