package domain

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotMember is returned when a user tries to act on a conversation
	// they are not a member of.
	ErrNotMember = errors.New("user is not a member of this conversation")

	// ErrNotSender is returned when a user tries to edit or delete a
	// message they did not send.
	ErrNotSender = errors.New("user is not the sender of this message")

	// ErrUserAlreadyExists is returned when creating a user whose email is taken.
	ErrUserAlreadyExists = errors.New("user with this email already exists")
)
