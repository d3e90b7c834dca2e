package middleware

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/ripplechat/ripple/internal/domain"
)

const (
	// UserContextKey is where Auth stores the authenticated *domain.User.
	UserContextKey = "user"
	// SessionName is the cookie session holding the signed-in user.
	SessionName = "ripple_session"

	sessionUserKey = "user_id"
)

// Auth protects routes that require a signed-in user. It resolves the
// session's user id against the user store and puts the full user into
// the echo context for downstream handlers.
func Auth(users domain.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := session.Get(SessionName, c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}

			userID, ok := sess.Values[sessionUserKey].(string)
			if !ok || userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				// A stale session for a deleted user reads the same as no
				// session at all.
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

// SignIn records the user in the cookie session.
func SignIn(c echo.Context, userID string) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}

	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	sess.Values[sessionUserKey] = userID
	return sess.Save(c.Request(), c.Response())
}

// SignOut clears the session.
func SignOut(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}

	delete(sess.Values, sessionUserKey)
	sess.Options = &sessions.Options{Path: "/", MaxAge: -1}
	return sess.Save(c.Request(), c.Response())
}

// CurrentUser returns the authenticated user set by Auth, if any.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(UserContextKey).(*domain.User)
	return user, ok && user != nil
}
