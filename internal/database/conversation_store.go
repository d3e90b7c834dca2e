package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/ripplechat/ripple/internal/domain"
)

const conversationFields = "record::id(id) AS id, type, name, description, creatorId, " +
	"memberIds, createdAt, lastMessageAt"

// ConversationStore persists conversations and answers room-join
// authorization from their membership.
type ConversationStore struct {
	db *surrealdb.DB
}

var (
	_ domain.ConversationRepository = (*ConversationStore)(nil)
	_ domain.RoomAuthorizer         = (*ConversationStore)(nil)
)

// NewConversationStore creates a conversation store on an established
// connection.
func NewConversationStore(db *surrealdb.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Create persists a new conversation. The creator is always a member.
func (s *ConversationStore) Create(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	conv.CreatedAt = time.Now().UTC()

	if !contains(conv.MemberIDs, conv.CreatorID) {
		conv.MemberIDs = append(conv.MemberIDs, conv.CreatorID)
	}

	query := `CREATE type::thing('conversation', $id) CONTENT {
		type: $type,
		name: $name,
		description: $description,
		creatorId: $creatorId,
		memberIds: $memberIds,
		createdAt: <datetime> $createdAt,
		lastMessageAt: <datetime> $createdAt
	}`
	params := map[string]any{
		"id":          conv.ID,
		"type":        string(conv.Type),
		"name":        conv.Name,
		"description": conv.Description,
		"creatorId":   conv.CreatorID,
		"memberIds":   conv.MemberIDs,
		"createdAt":   conv.CreatedAt.Format(time.RFC3339Nano),
	}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	conv.LastMessageAt = conv.CreatedAt
	return conv, nil
}

// FindByID fetches a single conversation.
func (s *ConversationStore) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	query := fmt.Sprintf("SELECT %s FROM conversation WHERE record::id(id) = $id", conversationFields)

	conv, err := QueryOne[domain.Conversation](ctx, s.db, query, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	if conv == nil {
		return nil, domain.ErrNotFound
	}
	return conv, nil
}

// ListForUser returns the conversations visible to a user: those they are
// a member of plus all public ones, most recently active first.
func (s *ConversationStore) ListForUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM conversation WHERE memberIds CONTAINS $userId OR type = 'public' ORDER BY lastMessageAt DESC",
		conversationFields)

	result, err := Query[domain.Conversation](ctx, s.db, query, map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	conversations := make([]*domain.Conversation, len(result))
	for i := range result {
		conversations[i] = &result[i]
	}
	return conversations, nil
}

// IsMember reports whether a user may participate in a conversation.
// Public conversations admit everyone.
func (s *ConversationStore) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	conv, err := s.FindByID(ctx, conversationID)
	if err != nil {
		return false, err
	}

	if conv.Type == domain.ConversationPublic {
		return true, nil
	}
	return contains(conv.MemberIDs, userID), nil
}

// TouchLastMessage bumps the conversation's activity timestamp.
func (s *ConversationStore) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	query := "UPDATE type::thing('conversation', $id) SET lastMessageAt = <datetime> $at"
	params := map[string]any{"id": id, "at": at.UTC().Format(time.RFC3339Nano)}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// AuthorizeRoomJoin implements domain.RoomAuthorizer: socket room joins
// follow conversation membership. An unknown conversation denies rather
// than errors.
func (s *ConversationStore) AuthorizeRoomJoin(ctx context.Context, userID, conversationID string) (bool, error) {
	member, err := s.IsMember(ctx, conversationID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return member, nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
