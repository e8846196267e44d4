package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"vn.io.arda/notifengine/internal/application"
	"vn.io.arda/notifengine/internal/domain"
)

// Engine is the subset of application.Service exposed over HTTP.
type Engine interface {
	Badges() *application.Observable[domain.BadgeSnapshot]
	Conversations() *application.Observable[domain.ConversationSnapshot]
	CurrentMediaPlayer() (domain.MediaPlayerState, bool)
	RefreshBadgeState(ctx context.Context) error
	RefreshConversationState(ctx context.Context) error
	RemoveConversation(ctx context.Context, packageName, conversationID string) (bool, error)
	OpenConversation(ctx context.Context, packageName, notificationKey, conversationID string, removeAfterOpen bool) bool
}

// Handler holds all HTTP handler methods.
type Handler struct {
	engine Engine
	hub    *Hub
}

// NewHandler creates a new Handler.
func NewHandler(engine Engine, hub *Hub) *Handler {
	return &Handler{engine: engine, hub: hub}
}

// --- REST Handlers ---

// ListBadges GET /badges
func (h *Handler) ListBadges(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"data": h.engine.Badges().Value()})
}

// ListConversations GET /conversations
func (h *Handler) ListConversations(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"data": h.engine.Conversations().Value()})
}

// GetMedia GET /media
func (h *Handler) GetMedia(c echo.Context) error {
	player, ok := h.engine.CurrentMediaPlayer()
	if !ok {
		return c.JSON(http.StatusOK, map[string]any{"data": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"data": player})
}

// RefreshBadges POST /badges/refresh
func (h *Handler) RefreshBadges(c echo.Context) error {
	if err := h.engine.RefreshBadgeState(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// RefreshConversations POST /conversations/refresh
func (h *Handler) RefreshConversations(c echo.Context) error {
	if err := h.engine.RefreshConversationState(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type openRequest struct {
	NotificationKey string `json:"notificationKey"`
	ConversationID  string `json:"conversationId"`
	RemoveAfterOpen bool   `json:"removeAfterOpen"`
}

// OpenConversation POST /conversations/:package/open
func (h *Handler) OpenConversation(c echo.Context) error {
	var req openRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	opened := h.engine.OpenConversation(c.Request().Context(),
		c.Param("package"), req.NotificationKey, req.ConversationID, req.RemoveAfterOpen)
	return c.JSON(http.StatusOK, map[string]bool{"opened": opened})
}

// DeleteConversation DELETE /conversations/:package/:id
func (h *Handler) DeleteConversation(c echo.Context) error {
	removed, err := h.engine.RemoveConversation(c.Request().Context(), c.Param("package"), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// --- SSE Handler ---

// Stream GET /stream (SSE)
func (h *Handler) Stream(c echo.Context) error {
	// SSE headers
	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable Nginx buffering

	// Register client
	client := h.hub.Register()
	defer h.hub.Unregister(client)

	// Current state first, then every change
	w.Write(buildSSEMessage("badges", h.engine.Badges().Value()))
	w.Write(buildSSEMessage("conversations", h.engine.Conversations().Value()))
	w.Flush()

	log.Info().Str("client", client.id).Msg("SSE stream opened")

	ctx := c.Request().Context()
	for {
		select {
		case <-client.notify:
			for _, msg := range client.drain() {
				if _, err := w.Write(msg); err != nil {
					return nil
				}
			}
			w.Flush()

		case <-ctx.Done():
			log.Info().Str("client", client.id).Msg("SSE stream closed by client")
			return nil
		}
	}
}

// --- Healthcheck ---

// Health GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"sse_clients": h.hub.ConnectedCount(),
	})
}
