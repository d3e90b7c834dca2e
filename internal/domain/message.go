package domain

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
)

// validatorInstance is a package-level validator instance.
// Using a single instance is more efficient as it caches struct information.
var validatorInstance = validator.New()

// MessageType distinguishes plain text from file-backed messages.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeFile  MessageType = "file"
	MessageTypeImage MessageType = "image"
)

// Message is a durable chat message. The real-time core never stores these;
// it only carries them transiently during fan-out.
type Message struct {
	ID             string      `json:"id,omitempty"`
	ConversationID string      `json:"conversationId" validate:"required"`
	SenderID       string      `json:"senderId" validate:"required"`
	Content        string      `json:"content" validate:"required,max=4000"`
	Type           MessageType `json:"type" validate:"required,oneof=text file image"`
	FileURL        string      `json:"fileUrl,omitempty"`
	FileName       string      `json:"fileName,omitempty"`
	FileSize       int64       `json:"fileSize,omitempty" validate:"gte=0"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	IsEdited       bool        `json:"isEdited"`
	Reactions      []Reaction  `json:"reactions,omitempty"`
}

// Reaction is a single emoji reaction attached to a message.
type Reaction struct {
	Emoji     string    `json:"emoji" validate:"required,max=16"`
	UserID    string    `json:"userId" validate:"required"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate runs validation checks on the Message struct using the defined tags.
func (m *Message) Validate() error {
	return validatorInstance.Struct(m)
}

// MessageRepository defines the contract for durable message storage.
// This is the "external persistence" collaborator of the real-time core:
// the core calls into it to persist and backfill, never to broadcast.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) (*Message, error)
	FindByID(ctx context.Context, id string) (*Message, error)

	// ListRecent returns up to limit messages for a conversation in
	// chronological order. A non-zero before bound excludes newer messages,
	// supporting cursor pagination.
	ListRecent(ctx context.Context, conversationID string, before time.Time, limit int) ([]*Message, error)

	UpdateContent(ctx context.Context, id, content string) (*Message, error)
	Delete(ctx context.Context, id string) error

	AddReaction(ctx context.Context, id string, reaction Reaction) (*Message, error)
	RemoveReaction(ctx context.Context, id, userID, emoji string) (*Message, error)
}
