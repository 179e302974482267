package admin

import (
	"time"

	"github.com/angelmondragon/staffstore-backend/pkg/types"
)

// LoginRequest captures the shared admin secret sent to the login endpoint.
type LoginRequest struct {
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse carries the minted admin token.
type LoginResponse struct {
	types.Envelope
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Principal describes an authorized admin request.
type Principal struct {
	Subject string
	Method  string
}

const (
	MethodToken  = "token"
	MethodSecret = "secret"
)
