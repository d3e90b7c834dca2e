package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripplechat/ripple/internal/domain"
)

func TestUserStore_CreateAndFind(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewUserStore(db)

	created, err := store.Create(ctx, &domain.User{
		Email:       "alice@example.com",
		DisplayName: "Alice",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, domain.StatusOffline, created.Status)

	byID, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	byEmail, err := store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = store.Create(ctx, &domain.User{Email: "alice@example.com", DisplayName: "Imposter"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = store.FindByID(ctx, "no-such-user")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserStore_UpdateStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewUserStore(db)
	user, err := store.Create(ctx, &domain.User{Email: "bob@example.com", DisplayName: "Bob"})
	require.NoError(t, err)

	seen := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.UpdateStatus(ctx, user.ID, domain.StatusOnline, seen))

	reloaded, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnline, reloaded.Status)
	assert.WithinDuration(t, seen, reloaded.LastSeen, time.Second)
}

func TestUserStore_ListAndSearch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewUserStore(db)
	for _, u := range []domain.User{
		{Email: "alice@example.com", DisplayName: "Alice"},
		{Email: "alicia@other.io", DisplayName: "Alicia"},
		{Email: "bob@example.com", DisplayName: "Bob"},
	} {
		_, err := store.Create(ctx, &u)
		require.NoError(t, err)
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alice", all[0].DisplayName, "ordered by display name")

	byName, err := store.Search(ctx, "ALIC", 10)
	require.NoError(t, err)
	assert.Len(t, byName, 2, "matching is case-insensitive")

	byEmail, err := store.Search(ctx, "bob@", 10)
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "Bob", byEmail[0].DisplayName)

	capped, err := store.Search(ctx, "example.com", 1)
	require.NoError(t, err)
	assert.Len(t, capped, 1)
}

func TestConversationStore_MembershipAndAuthorization(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewConversationStore(db)

	group, err := store.Create(ctx, &domain.Conversation{
		Type:      domain.ConversationGroup,
		Name:      "backend",
		CreatorID: "u-alice",
		MemberIDs: []string{"u-alice", "u-bob"},
	})
	require.NoError(t, err)

	public, err := store.Create(ctx, &domain.Conversation{
		Type:      domain.ConversationPublic,
		Name:      "general",
		CreatorID: "u-alice",
		MemberIDs: []string{"u-alice"},
	})
	require.NoError(t, err)

	ok, err := store.AuthorizeRoomJoin(ctx, "u-bob", group.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.AuthorizeRoomJoin(ctx, "u-mallory", group.ID)
	require.NoError(t, err)
	assert.False(t, ok, "non-member denied on a group conversation")

	ok, err = store.AuthorizeRoomJoin(ctx, "u-mallory", public.ID)
	require.NoError(t, err)
	assert.True(t, ok, "public conversations admit everyone")

	ok, err = store.AuthorizeRoomJoin(ctx, "u-bob", "no-such-conversation")
	require.NoError(t, err)
	assert.False(t, ok, "unknown conversation denies rather than errors")
}

func TestConversationStore_ListForUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewConversationStore(db)

	_, err := store.Create(ctx, &domain.Conversation{
		Type: domain.ConversationDM, CreatorID: "u-alice", MemberIDs: []string{"u-alice", "u-bob"},
	})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Conversation{
		Type: domain.ConversationGroup, Name: "private", CreatorID: "u-carol", MemberIDs: []string{"u-carol"},
	})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Conversation{
		Type: domain.ConversationPublic, Name: "general", CreatorID: "u-carol", MemberIDs: []string{"u-carol"},
	})
	require.NoError(t, err)

	visible, err := store.ListForUser(ctx, "u-bob")
	require.NoError(t, err)
	require.Len(t, visible, 2, "bob sees his DM and the public room, not carol's group")
}

func TestMessageStore_Lifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewMessageStore(db)

	msg, err := store.Create(ctx, &domain.Message{
		ConversationID: "conv-1",
		SenderID:       "u-alice",
		Content:        "hello world",
		Type:           domain.MessageTypeText,
	})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)

	edited, err := store.UpdateContent(ctx, msg.ID, "hello, world")
	require.NoError(t, err)
	assert.Equal(t, "hello, world", edited.Content)
	assert.True(t, edited.IsEdited)

	withReaction, err := store.AddReaction(ctx, msg.ID, domain.Reaction{Emoji: "👍", UserID: "u-bob"})
	require.NoError(t, err)
	require.Len(t, withReaction.Reactions, 1)

	// Re-reacting with the same emoji is a no-op.
	again, err := store.AddReaction(ctx, msg.ID, domain.Reaction{Emoji: "👍", UserID: "u-bob"})
	require.NoError(t, err)
	assert.Len(t, again.Reactions, 1)

	removed, err := store.RemoveReaction(ctx, msg.ID, "u-bob", "👍")
	require.NoError(t, err)
	assert.Empty(t, removed.Reactions)

	require.NoError(t, store.Delete(ctx, msg.ID))
	_, err = store.FindByID(ctx, msg.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMessageStore_ListRecentPagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewMessageStore(db)

	for i := 0; i < 5; i++ {
		_, err := store.Create(ctx, &domain.Message{
			ConversationID: "conv-page",
			SenderID:       "u-alice",
			Content:        "message",
			Type:           domain.MessageTypeText,
		})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond) // distinct createdAt ordering
	}

	page, err := store.ListRecent(ctx, "conv-page", time.Time{}, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.True(t, page[0].CreatedAt.Before(page[2].CreatedAt), "chronological order within the page")

	older, err := store.ListRecent(ctx, "conv-page", page[0].CreatedAt, 10)
	require.NoError(t, err)
	assert.Len(t, older, 2, "cursor bound excludes the newer page")
}
