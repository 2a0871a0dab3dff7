package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"studio-gallery-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AdminHandler handles the operator-facing gallery lifecycle routes
type AdminHandler struct {
	adminService *services.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// CreateGalleryRequest is the gallery provisioning body
type CreateGalleryRequest struct {
	SessionID  string `json:"session_id"`
	PhotoLimit int    `json:"photo_limit"`
}

// CreateGallery handles POST /api/v1/admin/galleries
func (h *AdminHandler) CreateGallery(w http.ResponseWriter, r *http.Request) {
	var req CreateGalleryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		respondError(w, "session_id is required", http.StatusUnprocessableEntity)
		return
	}

	gallery, err := h.adminService.CreateGallery(r.Context(), req.SessionID, req.PhotoLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create gallery")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, gallery, http.StatusCreated)
}

// SetPinRequest is the PIN rotation body
type SetPinRequest struct {
	Pin string `json:"pin"`
}

// SetPin handles POST /api/v1/admin/galleries/{id}/pin
func (h *AdminHandler) SetPin(w http.ResponseWriter, r *http.Request) {
	galleryID := chi.URLParam(r, "id")

	var req SetPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.adminService.SetPin(r.Context(), galleryID, req.Pin); err != nil {
		switch {
		case errors.Is(err, services.ErrPinFormat):
			respondError(w, "PIN must be 4-8 digits", http.StatusUnprocessableEntity)
		case errors.Is(err, services.ErrGalleryNotFound):
			respondError(w, "Gallery not found", http.StatusNotFound)
		default:
			log.Error().Err(err).Str("gallery_id", galleryID).Msg("Failed to rotate pin")
			respondError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// SetActiveRequest is the activation toggle body
type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetActive handles POST /api/v1/admin/galleries/{id}/activate
func (h *AdminHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	galleryID := chi.URLParam(r, "id")

	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.adminService.SetActive(r.Context(), galleryID, req.IsActive); err != nil {
		if errors.Is(err, services.ErrGalleryNotFound) {
			respondError(w, "Gallery not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("gallery_id", galleryID).Msg("Failed to toggle gallery")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{"success": true, "is_active": req.IsActive}, http.StatusOK)
}

// UploadRequest is the presigned upload body
type UploadRequest struct {
	GalleryID     string `json:"gallery_id"`
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// RequestUpload handles POST /api/v1/admin/galleries/upload
func (h *AdminHandler) RequestUpload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.GalleryID == "" || req.Filename == "" {
		respondError(w, "gallery_id and filename are required", http.StatusUnprocessableEntity)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}
	if len(req.ContentType) < 6 || req.ContentType[:6] != "image/" {
		respondError(w, "Only image files are allowed", http.StatusUnprocessableEntity)
		return
	}

	grant, err := h.adminService.RequestUpload(r.Context(), req.GalleryID, req.Filename, req.ContentType, req.FileSizeBytes)
	if err != nil {
		if errors.Is(err, services.ErrGalleryNotFound) {
			respondError(w, "Gallery not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("gallery_id", req.GalleryID).Msg("Failed to presign upload")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("gallery_id", req.GalleryID).
		Str("photo_id", grant.PhotoID).
		Str("filename", req.Filename).
		Msg("Upload URL generated")

	respondJSON(w, grant, http.StatusOK)
}

// ConfirmUpload handles POST /api/v1/admin/galleries/upload/{photoId}/confirm
func (h *AdminHandler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	photoID := chi.URLParam(r, "photoId")

	photo, err := h.adminService.ConfirmUpload(r.Context(), photoID)
	if err != nil {
		if errors.Is(err, services.ErrPhotoNotFound) {
			respondError(w, "Photo not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("photo_id", photoID).Msg("Failed to confirm upload")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{"photo": photo}, http.StatusOK)
}

// DeletePhoto handles DELETE /api/v1/admin/photos/{photoId}
func (h *AdminHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	photoID := chi.URLParam(r, "photoId")

	if err := h.adminService.DeletePhoto(r.Context(), photoID); err != nil {
		if errors.Is(err, services.ErrPhotoNotFound) {
			respondError(w, "Photo not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("photo_id", photoID).Msg("Failed to delete photo")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}
