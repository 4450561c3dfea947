package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload of a bearer token: the identity it was issued
// for and the variant it was found in at login time.
type TokenClaims struct {
	IdentityID string `json:"identity_id"`
	Role       Role   `json:"role"`
	jwt.RegisteredClaims
}
