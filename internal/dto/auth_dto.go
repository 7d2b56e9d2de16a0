package dto

import (
	"time"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// Identity is the authenticated principal attached to a request.
type Identity struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// IsAdmin reports whether the identity holds the administrator role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// LoginRequest captures the login form.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// LoginResult is returned after successful authentication.
type LoginResult struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	Identity   Identity  `json:"identity"`
	RedirectTo string    `json:"redirect_to"`
}
