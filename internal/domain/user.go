package domain

import (
	"context"
	"time"
)

// PresenceStatus is a user's visible availability.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusOffline PresenceStatus = "offline"
)

// User represents the core user model in the application domain.
// Status and LastSeen are the durable shadow of the in-memory presence
// state: they are written on presence transitions so a user's availability
// survives in chat lists even when they are not connected.
type User struct {
	ID          string         `json:"id,omitempty"`
	Email       string         `json:"email" validate:"required,email"`
	DisplayName string         `json:"displayName" validate:"required,min=1,max=100"`
	PhotoURL    string         `json:"photoURL,omitempty"`
	Status      PresenceStatus `json:"status"`
	LastSeen    time.Time      `json:"lastSeen"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Validate runs validation checks on the User struct using the defined tags.
func (u *User) Validate() error {
	return validatorInstance.Struct(u)
}

// UserRepository defines the contract for user data storage operations.
// It lives in the domain because it's a requirement OF the domain, not
// of the database implementation.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// List returns every user with their durable presence shadow, for
	// chat-list rendering.
	List(ctx context.Context) ([]*User, error)
	// Search finds users whose display name or email contains the query,
	// case-insensitively, returning at most limit results.
	Search(ctx context.Context, query string, limit int) ([]*User, error)
	// UpdateStatus records a presence transition durably.
	UpdateStatus(ctx context.Context, id string, status PresenceStatus, lastSeen time.Time) error
}
