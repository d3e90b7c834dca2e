package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps go-playground/validator to implement Echo's
// Validator interface, so handlers can call c.Validate on bound requests.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// LoginRequest signs a user in, creating them on first sight.
type LoginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"required,min=1,max=100"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
}

// SendMessageRequest posts a new message to a conversation.
type SendMessageRequest struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Content        string `json:"content" validate:"required,max=4000"`
	Type           string `json:"type" validate:"omitempty,oneof=text file image"`
	FileURL        string `json:"fileUrl" validate:"omitempty"`
	FileName       string `json:"fileName" validate:"omitempty,max=255"`
	FileSize       int64  `json:"fileSize" validate:"omitempty,gte=0"`
}

// EditMessageRequest replaces a message's content.
type EditMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// ReactionRequest adds or removes an emoji reaction.
type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,max=16"`
}

// CreateConversationRequest opens a new DM, group, or public conversation.
type CreateConversationRequest struct {
	Type        string   `json:"type" validate:"required,oneof=dm group public"`
	Name        string   `json:"name" validate:"omitempty,max=100"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	MemberIDs   []string `json:"memberIds" validate:"omitempty,dive,required"`
}

// ListMessagesRequest pages backwards through a conversation's history.
type ListMessagesRequest struct {
	Before string `query:"before" validate:"omitempty"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
}
