package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/ripplechat/ripple/internal/domain"
)

const userFields = "record::id(id) AS id, email, displayName, photoURL, status, lastSeen, createdAt"

// UserStore persists users and their durable presence shadow.
type UserStore struct {
	db *surrealdb.DB
}

var _ domain.UserRepository = (*UserStore)(nil)

// NewUserStore creates a user store on an established connection.
func NewUserStore(db *surrealdb.DB) *UserStore {
	return &UserStore{db: db}
}

// Create persists a new user. Emails are unique.
func (s *UserStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	existing, err := s.FindByEmail(ctx, user.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrUserAlreadyExists
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()
	if user.Status == "" {
		user.Status = domain.StatusOffline
	}

	query := `CREATE type::thing('user', $id) CONTENT {
		email: $email,
		displayName: $displayName,
		photoURL: $photoURL,
		status: $status,
		lastSeen: <datetime> $createdAt,
		createdAt: <datetime> $createdAt
	}`
	params := map[string]any{
		"id":          user.ID,
		"email":       user.Email,
		"displayName": user.DisplayName,
		"photoURL":    user.PhotoURL,
		"status":      string(user.Status),
		"createdAt":   user.CreatedAt.Format(time.RFC3339Nano),
	}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// FindByID fetches a single user.
func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM user WHERE record::id(id) = $id", userFields)

	user, err := QueryOne[domain.User](ctx, s.db, query, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// FindByEmail queries for a single user by their email address.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM user WHERE email = $email", userFields)

	user, err := QueryOne[domain.User](ctx, s.db, query, map[string]any{"email": email})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// List returns every user ordered by display name.
func (s *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM user ORDER BY displayName", userFields)

	result, err := Query[domain.User](ctx, s.db, query, nil)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]*domain.User, len(result))
	for i := range result {
		users[i] = &result[i]
	}
	return users, nil
}

// Search matches the query against display names and emails without case
// sensitivity.
func (s *UserStore) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM user
		WHERE string::contains(string::lowercase(displayName), $q)
		   OR string::contains(string::lowercase(email), $q)
		ORDER BY displayName LIMIT $limit`, userFields)
	params := map[string]any{
		"q":     strings.ToLower(query),
		"limit": limit,
	}

	result, err := Query[domain.User](ctx, s.db, stmt, params)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	users := make([]*domain.User, len(result))
	for i := range result {
		users[i] = &result[i]
	}
	return users, nil
}

// UpdateStatus records a presence transition durably so status survives a
// server restart and offline users keep a meaningful lastSeen.
func (s *UserStore) UpdateStatus(ctx context.Context, id string, status domain.PresenceStatus, lastSeen time.Time) error {
	query := `UPDATE type::thing('user', $id) SET
		status = $status,
		lastSeen = <datetime> $lastSeen`
	params := map[string]any{
		"id":       id,
		"status":   string(status),
		"lastSeen": lastSeen.UTC().Format(time.RFC3339Nano),
	}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	return nil
}
