package domain

import (
	"context"
	"time"
)

// ConversationType distinguishes the three conversation shapes.
type ConversationType string

const (
	ConversationDM     ConversationType = "dm"
	ConversationGroup  ConversationType = "group"
	ConversationPublic ConversationType = "public"
)

// Conversation is a durable chat channel: a DM pair, a private group, or a
// public room. Membership here is the authority that room joins in the
// real-time layer are validated against.
type Conversation struct {
	ID            string           `json:"id,omitempty"`
	Type          ConversationType `json:"type" validate:"required,oneof=dm group public"`
	Name          string           `json:"name,omitempty" validate:"max=100"`
	Description   string           `json:"description,omitempty" validate:"max=500"`
	CreatorID     string           `json:"creatorId" validate:"required"`
	MemberIDs     []string         `json:"memberIds" validate:"required,min=1"`
	CreatedAt     time.Time        `json:"createdAt"`
	LastMessageAt time.Time        `json:"lastMessageAt,omitempty"`
}

// Validate runs validation checks on the Conversation struct.
func (c *Conversation) Validate() error {
	return validatorInstance.Struct(c)
}

// ConversationRepository defines the contract for conversation storage.
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) (*Conversation, error)
	FindByID(ctx context.Context, id string) (*Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]*Conversation, error)
	IsMember(ctx context.Context, conversationID, userID string) (bool, error)
	TouchLastMessage(ctx context.Context, id string, at time.Time) error
}

// RoomAuthorizer answers whether a user may subscribe to a conversation's
// real-time room. Room membership in the socket layer is distinct from
// conversation membership; this is the bridge between the two.
type RoomAuthorizer interface {
	AuthorizeRoomJoin(ctx context.Context, userID, conversationID string) (bool, error)
}
