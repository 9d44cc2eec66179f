package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/teelab/storefront/pkg/enums"
)

// SessionTokenPayload captures the data available when minting a JWT.
type SessionTokenPayload struct {
	UserID string
	Email  string
	Role   enums.UserRole
}

// SessionTokenClaims represents the typed JWT issued to clients.
type SessionTokenClaims struct {
	UserID string         `json:"user_id"`
	Email  string         `json:"email,omitempty"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Session converts the claims into the store-facing session value.
func (c *SessionTokenClaims) Session() Session {
	if c == nil {
		return Session{}
	}
	return Session{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   c.Role,
	}
}
