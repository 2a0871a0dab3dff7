package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio-gallery-backend/internal/clock"
	"studio-gallery-backend/internal/models"
	"studio-gallery-backend/internal/repository"
	"studio-gallery-backend/internal/storage"
)

// GalleryService authorizes gallery access and lists photos with signed
// view URLs
type GalleryService struct {
	galleries GalleryStore
	sessions  SessionStore
	photos    PhotoStore
	signer    storage.URLSigner
	clock     clock.Clock

	viewURLTTL time.Duration
}

// NewGalleryService creates a new gallery service
func NewGalleryService(
	galleries GalleryStore,
	sessions SessionStore,
	photos PhotoStore,
	signer storage.URLSigner,
	clk clock.Clock,
	viewURLTTL time.Duration,
) *GalleryService {
	return &GalleryService{
		galleries:  galleries,
		sessions:   sessions,
		photos:     photos,
		signer:     signer,
		clock:      clk,
		viewURLTTL: viewURLTTL,
	}
}

// PhotoView is one photo entry in an authorized gallery listing
type PhotoView struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	SignedURL string `json:"url"`
	Width     *int   `json:"width,omitempty"`
	Height    *int   `json:"height,omitempty"`
}

// GetActiveGallery resolves an access token to an active gallery.
// Missing and inactive galleries are indistinguishable to the caller.
func (s *GalleryService) GetActiveGallery(ctx context.Context, token string) (*models.Gallery, error) {
	gallery, err := s.galleries.GetByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGalleryNotFound
		}
		return nil, fmt.Errorf("failed to look up gallery: %w", err)
	}
	if !gallery.IsActive {
		return nil, ErrGalleryNotFound
	}
	return gallery, nil
}

// Authorize checks a session token against a gallery. This runs on every
// request; authorization is never cached because PIN rotation must revoke
// access immediately.
func (s *GalleryService) Authorize(ctx context.Context, gallery *models.Gallery, sessionToken string) (*models.GallerySession, error) {
	if sessionToken == "" {
		return nil, ErrSessionInvalid
	}
	session, err := s.sessions.GetValid(ctx, sessionToken, gallery.ID, s.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	return session, nil
}

// ListPhotos returns the gallery's confirmed photos in sort order, capped
// at the gallery's photo limit, each with a fresh signed view URL.
func (s *GalleryService) ListPhotos(ctx context.Context, gallery *models.Gallery) ([]PhotoView, error) {
	photos, err := s.photos.ListConfirmed(ctx, gallery.ID, gallery.PhotoLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load photos: %w", err)
	}

	expiresAt := s.clock.Now().Add(s.viewURLTTL)
	views := make([]PhotoView, 0, len(photos))
	for _, photo := range photos {
		signed, err := s.signer.SignView(photo.S3Key, expiresAt)
		if err != nil {
			return nil, fmt.Errorf("failed to sign photo url: %w", err)
		}
		views = append(views, PhotoView{
			ID:        photo.ID,
			Filename:  photo.Filename,
			SignedURL: signed,
			Width:     photo.Width,
			Height:    photo.Height,
		})
	}
	return views, nil
}
