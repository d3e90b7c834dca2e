package server

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ripplechat/ripple/internal/handlers"
	"github.com/ripplechat/ripple/internal/middleware"
)

// RegisterRoutes sets up middleware and all application routes.
func (s *Server) RegisterRoutes() {
	s.E.Validator = handlers.NewValidator()
	s.E.Use(echomw.RequestID())
	s.E.Use(middleware.Logger)
	s.E.Use(echomw.Recover())

	store := sessions.NewCookieStore([]byte(s.Cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	s.E.Use(session.Middleware(store))

	loginLimiter := middleware.RateLimiter(10)
	uploadLimiter := middleware.RateLimiter(30)

	s.E.POST("/api/auth/login", s.authHandler.Login, loginLimiter)
	s.E.POST("/api/auth/logout", s.authHandler.Logout)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	authed := s.E.Group("", middleware.Auth(s.userStore))

	authed.GET("/api/me", s.authHandler.Me)
	authed.GET("/api/users", s.userHandler.List)
	authed.GET("/api/users/search", s.userHandler.Search)

	authed.POST("/api/conversations", s.conversationHandler.Create)
	authed.GET("/api/conversations", s.conversationHandler.List)
	authed.GET("/api/conversations/:id", s.conversationHandler.Get)
	authed.GET("/api/conversations/:id/messages", s.messageHandler.List)

	authed.POST("/api/messages", s.messageHandler.Send)
	authed.PATCH("/api/messages/:id", s.messageHandler.Edit)
	authed.DELETE("/api/messages/:id", s.messageHandler.Delete)
	authed.POST("/api/messages/:id/reactions", s.messageHandler.React)
	authed.DELETE("/api/messages/:id/reactions", s.messageHandler.Unreact)

	authed.POST("/api/upload", s.uploadHandler.Upload, uploadLimiter)
	authed.GET("/files/*", s.uploadHandler.Download)

	authed.GET("/ws", s.bridge.Handler())
}
