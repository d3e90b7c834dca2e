package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/middleware"
)

const searchResultLimit = 10

// UserHandler serves the user directory: the full list backing the chat
// sidebar, with each user's durable status and lastSeen, and a search
// endpoint for starting DMs.
type UserHandler struct {
	users domain.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users domain.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// List returns every user with their presence shadow.
func (h *UserHandler) List(c echo.Context) error {
	if _, ok := middleware.CurrentUser(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	users, err := h.users.List(c.Request().Context())
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to list users", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "users could not be loaded"})
	}

	return c.JSON(http.StatusOK, userResponses(users))
}

// Search matches users by display name or email fragment.
func (h *UserHandler) Search(c echo.Context) error {
	if _, ok := middleware.CurrentUser(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "query parameter q required"})
	}

	users, err := h.users.Search(c.Request().Context(), query, searchResultLimit)
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to search users", "query", query, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "search failed"})
	}

	return c.JSON(http.StatusOK, userResponses(users))
}

func userResponses(users []*domain.User) []*UserResponse {
	out := make([]*UserResponse, len(users))
	for i, user := range users {
		out[i] = NewUserResponse(user)
	}
	return out
}
