package models

import "github.com/golang-jwt/jwt/v4"

// Claims is the identity carried by a bearer token.
type Claims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the authenticated caller of a role-gated operation.
type Actor struct {
	UserID string
	Email  string
	Role   UserRole
}
