package handlers

import (
	"time"

	"github.com/ripplechat/ripple/internal/domain"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UserResponse is the public shape of a user, presence included.
type UserResponse struct {
	ID          string                `json:"id"`
	Email       string                `json:"email"`
	DisplayName string                `json:"displayName"`
	PhotoURL    string                `json:"photoURL,omitempty"`
	Status      domain.PresenceStatus `json:"status"`
	LastSeen    time.Time             `json:"lastSeen"`
}

// NewUserResponse builds the DTO from a domain user.
func NewUserResponse(user *domain.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		Status:      user.Status,
		LastSeen:    user.LastSeen,
	}
}

// UploadResponse describes a stored attachment, ready to be referenced
// from a file message.
type UploadResponse struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}
