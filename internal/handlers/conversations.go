package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/middleware"
)

// ConversationHandler manages conversation creation and listing. Reads are
// membership-gated except for public conversations, which any signed-in
// user may inspect.
type ConversationHandler struct {
	conversations domain.ConversationRepository
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(conversations domain.ConversationRepository) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
	}
}

// Create starts a new conversation with the caller as creator. The store
// guarantees the creator ends up in the member list.
func (h *ConversationHandler) Create(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	convType := domain.ConversationType(req.Type)
	if convType == domain.ConversationDM && len(req.MemberIDs) != 1 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "a dm needs exactly one other member"})
	}

	conv, err := h.conversations.Create(c.Request().Context(), &domain.Conversation{
		Type:        convType,
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   user.ID,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to create conversation", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "conversation could not be created"})
	}

	return c.JSON(http.StatusCreated, conv)
}

// List returns the conversations visible to the caller: everything they are
// a member of plus all public conversations.
func (h *ConversationHandler) List(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	convs, err := h.conversations.ListForUser(c.Request().Context(), user.ID)
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to list conversations", "userID", user.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "conversations could not be loaded"})
	}

	return c.JSON(http.StatusOK, convs)
}

// Get fetches a single conversation the caller may see.
func (h *ConversationHandler) Get(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	ctx := c.Request().Context()
	conversationID := c.Param("id")

	member, err := h.conversations.IsMember(ctx, conversationID, user.ID)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "conversation not found"})
	}
	if !member {
		return c.JSON(http.StatusForbidden, ErrorResponse{Code: "forbidden", Message: "not a conversation member"})
	}

	conv, err := h.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "conversation not found"})
	}

	return c.JSON(http.StatusOK, conv)
}
