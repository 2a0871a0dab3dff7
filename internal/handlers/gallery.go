package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"studio-gallery-backend/internal/auth"
	"studio-gallery-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// GalleryHandler handles the client-facing gallery routes
type GalleryHandler struct {
	unlockService   *services.UnlockService
	galleryService  *services.GalleryService
	deliveryService *services.DeliveryService
	secureCookies   bool
}

// NewGalleryHandler creates a new gallery handler
func NewGalleryHandler(
	unlockService *services.UnlockService,
	galleryService *services.GalleryService,
	deliveryService *services.DeliveryService,
	secureCookies bool,
) *GalleryHandler {
	return &GalleryHandler{
		unlockService:   unlockService,
		galleryService:  galleryService,
		deliveryService: deliveryService,
		secureCookies:   secureCookies,
	}
}

// UnlockRequest is the unlock endpoint body
type UnlockRequest struct {
	Pin string `json:"pin"`
}

func sessionCookieName(token string) string {
	return "gallery_session_" + token
}

// Unlock handles POST /gallery/{token}/unlock
func (h *GalleryHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	// Malformed tokens are rejected before any store access.
	if !auth.ValidToken(token) {
		respondError(w, "Not found", http.StatusNotFound)
		return
	}

	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if !auth.ValidPinSubmission(req.Pin) {
		respondError(w, "Invalid PIN format", http.StatusUnprocessableEntity)
		return
	}

	ip := clientIP(r)
	session, err := h.unlockService.Unlock(r.Context(), token, req.Pin, ip, r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRateLimited):
			retry := h.unlockService.RetryAfter()
			respondError(w,
				fmt.Sprintf("Too many attempts. Please wait up to %d minutes and try again.", int(retry.Minutes())),
				http.StatusTooManyRequests)
		case errors.Is(err, services.ErrGalleryNotFound):
			respondError(w, "Not found", http.StatusNotFound)
		case errors.Is(err, services.ErrInvalidPIN):
			respondError(w, "Incorrect PIN. Please try again.", http.StatusUnauthorized)
		default:
			log.Error().Err(err).Str("ip", ip).Msg("Unlock failed")
			respondError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName(token),
		Value:    session.SessionToken,
		Path:     "/gallery/" + token,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// View handles GET /gallery/{token}
//
// The access guard runs on every request: no valid session for this exact
// gallery means a redirect to the unlock flow, never an error page.
func (h *GalleryHandler) View(w http.ResponseWriter, r *http.Request) {
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
		if errors.Is(err, services.ErrSessionInvalid) {
			http.Redirect(w, r, "/gallery/"+token+"/unlock", http.StatusFound)
			return
		}
		log.Error().Err(err).Msg("Failed to authorize gallery session")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	photos, err := h.galleryService.ListPhotos(r.Context(), gallery)
	if err != nil {
		log.Error().Err(err).Str("gallery_id", gallery.ID).Msg("Failed to list photos")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{
		"photos": photos,
		"total":  len(photos),
	}, http.StatusOK)
}

// SignPhoto handles GET /gallery/photos/{photoId}?download={bool}
func (h *GalleryHandler) SignPhoto(w http.ResponseWriter, r *http.Request) {
	photoID := chi.URLParam(r, "photoId")
	download := r.URL.Query().Get("download") == "true"

	photo, gallery, err := h.deliveryService.ResolvePhoto(r.Context(), photoID)
	if err != nil {
		if errors.Is(err, services.ErrPhotoNotFound) {
			respondError(w, "Not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("photo_id", photoID).Msg("Failed to resolve photo")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	sessionToken := cookieValue(r, sessionCookieName(gallery.AccessToken))
	signed, err := h.deliveryService.SignPhoto(r.Context(), photo, gallery, sessionToken, download)
	if err != nil {
		if errors.Is(err, services.ErrSessionInvalid) {
			respondError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Str("photo_id", photoID).Msg("Failed to sign photo url")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]string{"url": signed}, http.StatusOK)
}

// DownloadAll handles GET /gallery/{token}/download-all
func (h *GalleryHandler) DownloadAll(w http.ResponseWriter, r *http.Request) {
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

	archive, err := h.deliveryService.BundleAll(r.Context(), gallery, cookieValue(r, sessionCookieName(token)))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionInvalid):
			respondError(w, "Unauthorized", http.StatusUnauthorized)
		case errors.Is(err, services.ErrNoPhotos):
			respondError(w, "No photos found", http.StatusNotFound)
		case errors.Is(err, services.ErrBundleFetch):
			log.Error().Err(err).Str("gallery_id", gallery.ID).Msg("Bundle aborted")
			respondError(w, "Photo storage is temporarily unavailable, please retry", http.StatusBadGateway)
		default:
			log.Error().Err(err).Str("gallery_id", gallery.ID).Msg("Failed to bundle photos")
			respondError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="photos.zip"`)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(archive)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(archive); err != nil {
		log.Error().Err(err).Str("gallery_id", gallery.ID).Msg("Failed to write archive response")
	}
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
