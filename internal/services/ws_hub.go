package services

import (
	"encoding/json"
	"sync"

	"studio-gallery-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket event pushed to gallery viewers
type WSMessage struct {
	Type     string `json:"type"`
	PhotoID  string `json:"photo_id,omitempty"`
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
}

// GalleryHub manages WebSocket connections of unlocked gallery viewers,
// keyed by gallery access token. A gallery can have any number of viewers.
type GalleryHub struct {
	mu      sync.RWMutex
	viewers map[string]map[*websocket.Conn]struct{}
}

// NewGalleryHub creates a new gallery hub
func NewGalleryHub() *GalleryHub {
	return &GalleryHub{
		viewers: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// Register adds a viewer connection for a gallery
func (h *GalleryHub) Register(galleryToken string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.viewers[galleryToken] == nil {
		h.viewers[galleryToken] = make(map[*websocket.Conn]struct{})
	}
	h.viewers[galleryToken][conn] = struct{}{}

	log.Info().Int("viewers", len(h.viewers[galleryToken])).Msg("Gallery viewer connected")
}

// Unregister removes a viewer connection
func (h *GalleryHub) Unregister(galleryToken string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.viewers[galleryToken]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.viewers, galleryToken)
		}
	}
	conn.Close()
}

// ViewerCount returns the number of connected viewers for a gallery
func (h *GalleryHub) ViewerCount(galleryToken string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers[galleryToken])
}

// PhotoAdded broadcasts a photo_added event to every viewer of a gallery.
// Dead connections are dropped on write failure.
func (h *GalleryHub) PhotoAdded(galleryToken string, photo *models.GalleryPhoto) {
	h.broadcast(galleryToken, WSMessage{
		Type:     "photo_added",
		PhotoID:  photo.ID,
		Filename: photo.Filename,
	})
}

func (h *GalleryHub) broadcast(galleryToken string, message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal ws message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.viewers[galleryToken]
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Msg("Failed to push gallery event, dropping viewer")
			conn.Close()
			delete(conns, conn)
		}
	}
	if len(conns) == 0 {
		delete(h.viewers, galleryToken)
	}
}
