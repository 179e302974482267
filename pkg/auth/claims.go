package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role the storefront issues tokens for.
const RoleAdmin = "admin"

// AdminClaims represents the typed JWT issued to the admin panel.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
