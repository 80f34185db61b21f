package models

import (
	"time"

	"aegis/internal/rbac"
)

// User is an account in the identity source. The role is assigned at
// creation and immutable afterwards; everything downstream keys off it.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         rbac.Role
	CreatedAt    time.Time
}

// Public is the externally visible shape of a user; the password hash never
// leaves the identity module.
type Public struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Public converts the user to its external representation.
func (u *User) Public() Public {
	return Public{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
