package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims carried by a session token.
// The subject (RegisteredClaims.Subject) is the admin username.
type TokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}
