package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/middleware"
	"github.com/ripplechat/ripple/internal/pubsub"
	"github.com/ripplechat/ripple/internal/realtime"
)

const defaultHistoryLimit = 50

// MessageHandler is the write path for messages: every mutation persists
// first, then publishes a lifecycle event on the bus. The real-time layer
// picks the event up and fans it out; the HTTP response itself carries no
// broadcast duty.
type MessageHandler struct {
	messages      domain.MessageRepository
	conversations domain.ConversationRepository
	publisher     pubsub.Publisher
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messages domain.MessageRepository, conversations domain.ConversationRepository, publisher pubsub.Publisher) *MessageHandler {
	return &MessageHandler{
		messages:      messages,
		conversations: conversations,
		publisher:     publisher,
	}
}

// Send persists a new message and announces it on the bus.
func (h *MessageHandler) Send(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	ctx := c.Request().Context()

	member, err := h.conversations.IsMember(ctx, req.ConversationID, user.ID)
	if err != nil || !member {
		return c.JSON(http.StatusForbidden, ErrorResponse{Code: "forbidden", Message: "not a conversation member"})
	}

	msgType := domain.MessageType(req.Type)
	if msgType == "" {
		msgType = domain.MessageTypeText
	}

	msg, err := h.messages.Create(ctx, &domain.Message{
		ConversationID: req.ConversationID,
		SenderID:       user.ID,
		Content:        req.Content,
		Type:           msgType,
		FileURL:        req.FileURL,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
	})
	if err != nil {
		middleware.FromContext(ctx).Error("Failed to persist message", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "message could not be saved"})
	}

	if err := h.conversations.TouchLastMessage(ctx, msg.ConversationID, msg.CreatedAt); err != nil {
		middleware.FromContext(ctx).Warn("Failed to touch conversation activity", "conversationID", msg.ConversationID, "error", err)
	}

	h.publish(ctx, realtime.KindMessageNew, msg.ConversationID, msg)
	return c.JSON(http.StatusCreated, msg)
}

// List pages backwards through a conversation's history.
func (h *MessageHandler) List(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	conversationID := c.Param("id")

	var req ListMessagesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid query"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	ctx := c.Request().Context()

	member, err := h.conversations.IsMember(ctx, conversationID, user.ID)
	if err != nil || !member {
		return c.JSON(http.StatusForbidden, ErrorResponse{Code: "forbidden", Message: "not a conversation member"})
	}

	var before time.Time
	if req.Before != "" {
		before, err = time.Parse(time.RFC3339Nano, req.Before)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid before cursor"})
		}
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	messages, err := h.messages.ListRecent(ctx, conversationID, before, limit)
	if err != nil {
		middleware.FromContext(ctx).Error("Failed to list messages", "conversationID", conversationID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "history could not be loaded"})
	}

	return c.JSON(http.StatusOK, messages)
}

// Edit replaces a message's content. Only the sender may edit.
func (h *MessageHandler) Edit(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	var req EditMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	ctx := c.Request().Context()

	msg, err := h.loadOwnMessage(ctx, c.Param("id"), user.ID)
	if err != nil {
		return h.ownershipError(c, err)
	}

	updated, err := h.messages.UpdateContent(ctx, msg.ID, req.Content)
	if err != nil {
		middleware.FromContext(ctx).Error("Failed to edit message", "messageID", msg.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "message could not be edited"})
	}

	h.publish(ctx, realtime.KindMessageEdit, updated.ConversationID, updated)
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a message. Only the sender may delete.
func (h *MessageHandler) Delete(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	ctx := c.Request().Context()

	msg, err := h.loadOwnMessage(ctx, c.Param("id"), user.ID)
	if err != nil {
		return h.ownershipError(c, err)
	}

	if err := h.messages.Delete(ctx, msg.ID); err != nil {
		middleware.FromContext(ctx).Error("Failed to delete message", "messageID", msg.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "message could not be deleted"})
	}

	h.publish(ctx, realtime.KindMessageDelete, msg.ConversationID, map[string]string{
		"messageId":      msg.ID,
		"conversationId": msg.ConversationID,
	})
	return c.NoContent(http.StatusNoContent)
}

// React adds an emoji reaction. Any conversation member may react.
func (h *MessageHandler) React(c echo.Context) error {
	return h.mutateReaction(c, true)
}

// Unreact removes the caller's reaction by emoji.
func (h *MessageHandler) Unreact(c echo.Context) error {
	return h.mutateReaction(c, false)
}

func (h *MessageHandler) mutateReaction(c echo.Context, add bool) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	var req ReactionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	ctx := c.Request().Context()
	messageID := c.Param("id")

	msg, err := h.messages.FindByID(ctx, messageID)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "message not found"})
	}

	member, err := h.conversations.IsMember(ctx, msg.ConversationID, user.ID)
	if err != nil || !member {
		return c.JSON(http.StatusForbidden, ErrorResponse{Code: "forbidden", Message: "not a conversation member"})
	}

	var updated *domain.Message
	if add {
		updated, err = h.messages.AddReaction(ctx, messageID, domain.Reaction{Emoji: req.Emoji, UserID: user.ID})
	} else {
		updated, err = h.messages.RemoveReaction(ctx, messageID, user.ID, req.Emoji)
	}
	if err != nil {
		middleware.FromContext(ctx).Error("Failed to update reactions", "messageID", messageID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "reaction could not be updated"})
	}

	h.publish(ctx, realtime.KindMessageReaction, updated.ConversationID, updated)
	return c.JSON(http.StatusOK, updated)
}

// loadOwnMessage fetches a message and verifies the caller sent it.
func (h *MessageHandler) loadOwnMessage(ctx context.Context, messageID, userID string) (*domain.Message, error) {
	msg, err := h.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, domain.ErrNotSender
	}
	return msg, nil
}

func (h *MessageHandler) ownershipError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrNotSender) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Code: "forbidden", Message: "only the sender may modify a message"})
	}
	return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "message not found"})
}

// publish puts a lifecycle event on the bus. A publish failure is logged
// but never fails the HTTP request: the mutation is already durable.
func (h *MessageHandler) publish(ctx context.Context, kind realtime.EventKind, conversationID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		middleware.FromContext(ctx).Error("Failed to encode event payload", "kind", kind, "error", err)
		return
	}

	event := realtime.MessageEvent{
		Kind:           kind,
		ConversationID: conversationID,
		Payload:        raw,
	}

	if err := pubsub.Publish(ctx, h.publisher, realtime.MessageLifecycleEvent, event); err != nil {
		middleware.FromContext(ctx).Error("Failed to publish message event", "kind", kind, "error", err)
	}
}
