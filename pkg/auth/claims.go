package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      string
	DisplayName string
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients. DisplayName
// is carried so mutating calls can denormalize the actor name without a user
// lookup.
type AccessTokenClaims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	jwt.RegisteredClaims
}
