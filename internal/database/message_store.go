package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/ripplechat/ripple/internal/domain"
)

// messageFields selects a message with its record key flattened to a
// plain string id.
const messageFields = "record::id(id) AS id, conversationId, senderId, content, type, " +
	"fileUrl, fileName, fileSize, createdAt, updatedAt, isEdited, reactions"

// MessageStore persists chat messages in SurrealDB.
type MessageStore struct {
	db *surrealdb.DB
}

var _ domain.MessageRepository = (*MessageStore)(nil)

// NewMessageStore creates a message store on an established connection.
func NewMessageStore(db *surrealdb.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Create persists a new message. The id and timestamps are assigned here;
// the stored record is the source of truth for reads.
func (s *MessageStore) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	query := `CREATE type::thing('message', $id) CONTENT {
		conversationId: $conversationId,
		senderId: $senderId,
		content: $content,
		type: $type,
		fileUrl: $fileUrl,
		fileName: $fileName,
		fileSize: $fileSize,
		createdAt: <datetime> $createdAt,
		updatedAt: <datetime> $updatedAt,
		isEdited: false,
		reactions: []
	}`
	params := map[string]any{
		"id":             msg.ID,
		"conversationId": msg.ConversationID,
		"senderId":       msg.SenderID,
		"content":        msg.Content,
		"type":           string(msg.Type),
		"fileUrl":        msg.FileURL,
		"fileName":       msg.FileName,
		"fileSize":       msg.FileSize,
		"createdAt":      msg.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":      msg.UpdatedAt.Format(time.RFC3339Nano),
	}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// FindByID fetches a single message.
func (s *MessageStore) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	query := fmt.Sprintf("SELECT %s FROM message WHERE record::id(id) = $id", messageFields)

	msg, err := QueryOne[domain.Message](ctx, s.db, query, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("find message: %w", err)
	}
	if msg == nil {
		return nil, domain.ErrNotFound
	}
	return msg, nil
}

// ListRecent returns up to limit messages for a conversation in
// chronological order. A non-zero before bound fetches the page older
// than that instant.
func (s *MessageStore) ListRecent(ctx context.Context, conversationID string, before time.Time, limit int) ([]*domain.Message, error) {
	query := fmt.Sprintf("SELECT %s FROM message WHERE conversationId = $conversationId", messageFields)
	params := map[string]any{
		"conversationId": conversationID,
		"limit":          limit,
	}
	if !before.IsZero() {
		query += " AND createdAt < <datetime> $before"
		params["before"] = before.UTC().Format(time.RFC3339Nano)
	}
	query += " ORDER BY createdAt DESC LIMIT $limit"

	result, err := Query[domain.Message](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	// Newest-first from the query; oldest-first for consumers.
	messages := make([]*domain.Message, len(result))
	for i := range result {
		messages[len(result)-1-i] = &result[i]
	}
	return messages, nil
}

// UpdateContent edits a message's text and marks it edited.
func (s *MessageStore) UpdateContent(ctx context.Context, id, content string) (*domain.Message, error) {
	query := `UPDATE type::thing('message', $id) SET
		content = $content,
		isEdited = true,
		updatedAt = time::now()`
	params := map[string]any{"id": id, "content": content}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Delete removes a message.
func (s *MessageStore) Delete(ctx context.Context, id string) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	if err := Execute(ctx, s.db, "DELETE type::thing('message', $id)", map[string]any{"id": id}); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// AddReaction attaches a reaction; a user re-reacting with the same emoji
// is a no-op.
func (s *MessageStore) AddReaction(ctx context.Context, id string, reaction domain.Reaction) (*domain.Message, error) {
	msg, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, existing := range msg.Reactions {
		if existing.UserID == reaction.UserID && existing.Emoji == reaction.Emoji {
			return msg, nil
		}
	}

	reaction.Timestamp = time.Now().UTC()
	msg.Reactions = append(msg.Reactions, reaction)
	return msg, s.saveReactions(ctx, id, msg.Reactions)
}

// RemoveReaction detaches a user's reaction by emoji.
func (s *MessageStore) RemoveReaction(ctx context.Context, id, userID, emoji string) (*domain.Message, error) {
	msg, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	kept := msg.Reactions[:0]
	for _, reaction := range msg.Reactions {
		if reaction.UserID == userID && reaction.Emoji == emoji {
			continue
		}
		kept = append(kept, reaction)
	}
	msg.Reactions = kept
	return msg, s.saveReactions(ctx, id, msg.Reactions)
}

func (s *MessageStore) saveReactions(ctx context.Context, id string, reactions []domain.Reaction) error {
	payload := make([]map[string]any, len(reactions))
	for i, reaction := range reactions {
		payload[i] = map[string]any{
			"emoji":     reaction.Emoji,
			"userId":    reaction.UserID,
			"timestamp": reaction.Timestamp.Format(time.RFC3339Nano),
		}
	}

	query := "UPDATE type::thing('message', $id) SET reactions = $reactions"
	if err := Execute(ctx, s.db, query, map[string]any{"id": id, "reactions": payload}); err != nil {
		return fmt.Errorf("save reactions: %w", err)
	}
	return nil
}
