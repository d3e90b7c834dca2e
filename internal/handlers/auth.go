package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/middleware"
)

// AuthHandler implements the minimal session login gate: a user signs in
// with an email and display name and is created on first sight. There are
// no passwords or OAuth flows here; the session cookie is the credential
// for both the API and the socket endpoint.
type AuthHandler struct {
	users domain.UserRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users domain.UserRepository) *AuthHandler {
	return &AuthHandler{users: users}
}

// Login finds or creates the user and opens a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}

	ctx := c.Request().Context()

	user, err := h.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = h.users.Create(ctx, &domain.User{
			Email:       req.Email,
			DisplayName: req.DisplayName,
			PhotoURL:    req.PhotoURL,
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "login failed"})
	}

	if err := middleware.SignIn(c, user.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "session could not be created"})
	}

	return c.JSON(http.StatusOK, NewUserResponse(user))
}

// Logout clears the session.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := middleware.SignOut(c); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}
	return c.JSON(http.StatusOK, NewUserResponse(user))
}
