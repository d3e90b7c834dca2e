// Package testutils provides in-memory repository implementations and small
// fixtures shared by tests across packages. The in-memory stores honor the
// same contracts as the SurrealDB-backed ones, so handler and integration
// tests run without a database.
package testutils

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ripplechat/ripple/internal/domain"
)

// MemUserRepo is an in-memory domain.UserRepository.
type MemUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

// NewMemUserRepo creates an empty in-memory user repository.
func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{users: make(map[string]*domain.User)}
}

var _ domain.UserRepository = (*MemUserRepo)(nil)

func (r *MemUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, domain.ErrUserAlreadyExists
		}
	}
	stored := *user
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.Status = domain.StatusOffline
	stored.CreatedAt = time.Now().UTC()
	r.users[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (r *MemUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *MemUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]*domain.User, 0, len(r.users))
	for _, user := range r.users {
		copied := *user
		users = append(users, &copied)
	}
	slices.SortFunc(users, func(a, b *domain.User) int {
		return strings.Compare(a.DisplayName, b.DisplayName)
	})
	return users, nil
}

func (r *MemUserRepo) Search(_ context.Context, query string, limit int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	needle := strings.ToLower(query)
	var users []*domain.User
	for _, user := range r.users {
		if strings.Contains(strings.ToLower(user.DisplayName), needle) ||
			strings.Contains(strings.ToLower(user.Email), needle) {
			copied := *user
			users = append(users, &copied)
		}
	}
	slices.SortFunc(users, func(a, b *domain.User) int {
		return strings.Compare(a.DisplayName, b.DisplayName)
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *MemUserRepo) UpdateStatus(_ context.Context, id string, status domain.PresenceStatus, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	user.Status = status
	user.LastSeen = lastSeen
	return nil
}

// MemConversationRepo is an in-memory domain.ConversationRepository that
// also implements domain.RoomAuthorizer.
type MemConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*domain.Conversation
	touched       map[string]time.Time
}

// NewMemConversationRepo creates an empty in-memory conversation repository.
func NewMemConversationRepo() *MemConversationRepo {
	return &MemConversationRepo{
		conversations: make(map[string]*domain.Conversation),
		touched:       make(map[string]time.Time),
	}
}

var (
	_ domain.ConversationRepository = (*MemConversationRepo)(nil)
	_ domain.RoomAuthorizer         = (*MemConversationRepo)(nil)
)

func (r *MemConversationRepo) Create(_ context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *conv
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC()
	if !slices.Contains(stored.MemberIDs, stored.CreatorID) {
		stored.MemberIDs = append([]string{stored.CreatorID}, stored.MemberIDs...)
	}
	r.conversations[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (r *MemConversationRepo) FindByID(_ context.Context, id string) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *conv
	return &copied, nil
}

func (r *MemConversationRepo) ListForUser(_ context.Context, userID string) ([]*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Conversation
	for _, conv := range r.conversations {
		if conv.Type == domain.ConversationPublic || slices.Contains(conv.MemberIDs, userID) {
			copied := *conv
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *MemConversationRepo) IsMember(_ context.Context, conversationID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[conversationID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if conv.Type == domain.ConversationPublic {
		return true, nil
	}
	return slices.Contains(conv.MemberIDs, userID), nil
}

func (r *MemConversationRepo) TouchLastMessage(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched[id] = at
	if conv, ok := r.conversations[id]; ok {
		conv.LastMessageAt = at
	}
	return nil
}

// LastTouched reports when TouchLastMessage was last called for id.
func (r *MemConversationRepo) LastTouched(id string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touched[id]
}

func (r *MemConversationRepo) AuthorizeRoomJoin(ctx context.Context, userID, conversationID string) (bool, error) {
	ok, err := r.IsMember(ctx, conversationID, userID)
	if err != nil {
		return false, nil
	}
	return ok, nil
}

// MemMessageRepo is an in-memory domain.MessageRepository.
type MemMessageRepo struct {
	mu       sync.Mutex
	messages map[string]*domain.Message
}

// NewMemMessageRepo creates an empty in-memory message repository.
func NewMemMessageRepo() *MemMessageRepo {
	return &MemMessageRepo{messages: make(map[string]*domain.Message)}
}

var _ domain.MessageRepository = (*MemMessageRepo)(nil)

func (r *MemMessageRepo) Create(_ context.Context, msg *domain.Message) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *msg
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.messages[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (r *MemMessageRepo) FindByID(_ context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *msg
	return &copied, nil
}

func (r *MemMessageRepo) ListRecent(_ context.Context, conversationID string, before time.Time, limit int) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for _, msg := range r.messages {
		if msg.ConversationID != conversationID {
			continue
		}
		if !before.IsZero() && !msg.CreatedAt.Before(before) {
			continue
		}
		copied := *msg
		out = append(out, &copied)
	}
	slices.SortFunc(out, func(a, b *domain.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *MemMessageRepo) UpdateContent(_ context.Context, id, content string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	msg.Content = content
	msg.IsEdited = true
	msg.UpdatedAt = time.Now().UTC()
	copied := *msg
	return &copied, nil
}

func (r *MemMessageRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *MemMessageRepo) AddReaction(_ context.Context, id string, reaction domain.Reaction) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for _, existing := range msg.Reactions {
		if existing.UserID == reaction.UserID && existing.Emoji == reaction.Emoji {
			copied := *msg
			return &copied, nil
		}
	}
	reaction.Timestamp = time.Now().UTC()
	msg.Reactions = append(msg.Reactions, reaction)
	copied := *msg
	return &copied, nil
}

func (r *MemMessageRepo) RemoveReaction(_ context.Context, id, userID, emoji string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	kept := msg.Reactions[:0]
	for _, reaction := range msg.Reactions {
		if reaction.UserID == userID && reaction.Emoji == emoji {
			continue
		}
		kept = append(kept, reaction)
	}
	msg.Reactions = kept
	copied := *msg
	return &copied, nil
}
