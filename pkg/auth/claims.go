package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Email string
	Name  string
	JTI   string
}

// AccessTokenClaims represents the typed JWT issued to shoppers. The jti
// doubles as the session id that keys the server-side cart.
type AccessTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SessionID returns the token id used to key per-session state.
func (c *AccessTokenClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}
