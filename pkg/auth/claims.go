package auth

import "github.com/golang-jwt/jwt/v5"

// SessionClaims represents the typed session JWT carried by browser clients.
// SessionID is the storage scope the cart is persisted under.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
