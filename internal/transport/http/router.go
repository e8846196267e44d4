package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"vn.io.arda/notifengine/internal/transport/mw"
)

// NewRouter sets up all Echo routes and middleware.
func NewRouter(h *Handler, jwtSecret string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
	}))

	// Health (no auth required)
	e.GET("/health", h.Health)

	// API (authenticated)
	v1 := e.Group("")
	v1.Use(mw.JWTAuth(jwtSecret))

	// Badges
	v1.GET("/badges", h.ListBadges)
	v1.POST("/badges/refresh", h.RefreshBadges)

	// Conversations
	v1.GET("/conversations", h.ListConversations)
	v1.POST("/conversations/refresh", h.RefreshConversations)
	v1.POST("/conversations/:package/open", h.OpenConversation)
	v1.DELETE("/conversations/:package/:id", h.DeleteConversation)

	// Media
	v1.GET("/media", h.GetMedia)

	// SSE endpoint
	v1.GET("/stream", h.Stream)

	return e
}
