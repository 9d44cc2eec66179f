package controllers

import (
	"net/http"
	"time"

	"github.com/teelab/storefront/api/responses"
	"github.com/teelab/storefront/api/validators"
	pkgauth "github.com/teelab/storefront/pkg/auth"
	"github.com/teelab/storefront/pkg/config"
	"github.com/teelab/storefront/pkg/enums"
	pkgerrors "github.com/teelab/storefront/pkg/errors"
	"github.com/teelab/storefront/pkg/logger"
)

type sessionRequest struct {
	UserID string `json:"userId" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
	Role   string `json:"role" validate:"required"`
}

type sessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
}

// AuthSession mints a session token for the presented identity. There is no
// credential check: whoever claims an identity gets it, which is exactly the
// trust level the rest of the store is built for.
func AuthSession(cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload sessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		token, err := pkgauth.MintSessionToken(cfg, time.Now().UTC(), pkgauth.SessionTokenPayload{
			UserID: payload.UserID,
			Email:  payload.Email,
			Role:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			Token:  token,
			UserID: payload.UserID,
			Email:  payload.Email,
			Role:   string(role),
		})
	}
}
