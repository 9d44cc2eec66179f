package auth

import "github.com/teelab/storefront/pkg/enums"

// Session is the explicit acting-user context injected into every
// authorization-sensitive store call. It is a trust-the-client placeholder:
// whoever presents the identity gets it.
type Session struct {
	UserID string
	Email  string
	Role   enums.UserRole
}

// IsZero reports whether no identity is attached.
func (s Session) IsZero() bool {
	return s.UserID == ""
}

// IsCreator reports whether the session carries the creator role.
func (s Session) IsCreator() bool {
	return s.Role == enums.UserRoleCreator
}
