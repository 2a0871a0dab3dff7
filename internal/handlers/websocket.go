package handlers

import (
	"errors"
	"net/http"

	"studio-gallery-backend/internal/auth"
	"studio-gallery-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Session cookie auth below is the real gate.
		return true
	},
}

// WebSocketHandler streams live gallery events to unlocked viewers
type WebSocketHandler struct {
	hub            *services.GalleryHub
	galleryService *services.GalleryService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.GalleryHub, galleryService *services.GalleryService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		galleryService: galleryService,
	}
}

// HandleGalleryEvents handles GET /gallery/{token}/events.
// The upgrade is gated by the same session check as every other gallery
// route; an expired or foreign session never gets a connection.
func (h *WebSocketHandler) HandleGalleryEvents(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if !auth.ValidToken(token) {
		respondError(w, "Not found", http.StatusNotFound)
		return
	}

	gallery, err := h.galleryService.GetActiveGallery(r.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrGalleryNotFound) {
			respondError(w, "Not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("Failed to load gallery")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if _, err := h.galleryService.Authorize(r.Context(), gallery, cookieValue(r, sessionCookieName(token))); err != nil {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(token, conn)
	defer h.hub.Unregister(token, conn)

	log.Info().
		Str("gallery_id", gallery.ID).
		Int("viewers", h.hub.ViewerCount(token)).
		Msg("Gallery event stream established")

	// Viewers only listen; reads just detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("gallery_id", gallery.ID).Msg("WebSocket error")
			}
			break
		}
	}
}
