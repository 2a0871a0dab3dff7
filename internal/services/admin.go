package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"studio-gallery-backend/internal/auth"
	"studio-gallery-backend/internal/clock"
	"studio-gallery-backend/internal/models"
	"studio-gallery-backend/internal/repository"
	"studio-gallery-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultPhotoLimit = 25
	maxUploadBytes    = 100 * 1024 * 1024
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// PhotoEventSink receives photo lifecycle events for connected gallery
// viewers. *GalleryHub implements it.
type PhotoEventSink interface {
	PhotoAdded(galleryToken string, photo *models.GalleryPhoto)
}

// AdminService handles gallery provisioning and the photo upload lifecycle
type AdminService struct {
	galleries GalleryStore
	photos    PhotoStore
	objects   storage.ObjectStore
	events    PhotoEventSink
	clock     clock.Clock

	bucket       string
	uploadURLTTL time.Duration
}

// NewAdminService creates a new admin service
func NewAdminService(
	galleries GalleryStore,
	photos PhotoStore,
	objects storage.ObjectStore,
	events PhotoEventSink,
	clk clock.Clock,
	bucket string,
	uploadURLTTL time.Duration,
) *AdminService {
	return &AdminService{
		galleries:    galleries,
		photos:       photos,
		objects:      objects,
		events:       events,
		clock:        clk,
		bucket:       bucket,
		uploadURLTTL: uploadURLTTL,
	}
}

// CreateGallery provisions an inactive gallery for a booked session. The
// access token is generated here and never changes; the PIN hash starts as
// an unusable placeholder until an operator sets a real PIN.
func (s *AdminService) CreateGallery(ctx context.Context, sessionID string, photoLimit int) (*models.Gallery, error) {
	token, err := auth.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	if photoLimit <= 0 {
		photoLimit = defaultPhotoLimit
	}

	now := s.clock.Now()
	gallery := &models.Gallery{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		AccessToken: token,
		// Not a bcrypt hash, so no PIN can ever verify against it.
		PasswordHash: "unset",
		IsActive:     false,
		PhotoLimit:   photoLimit,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.galleries.Create(ctx, gallery); err != nil {
		return nil, fmt.Errorf("failed to create gallery: %w", err)
	}

	log.Info().Str("gallery_id", gallery.ID).Str("session_id", sessionID).Msg("Gallery created")
	return gallery, nil
}

// SetPin hashes a new PIN and rotates it in. Every existing session for
// the gallery is invalidated in the same transaction, so rotation revokes
// all previously issued access immediately.
func (s *AdminService) SetPin(ctx context.Context, galleryID, pin string) error {
	if !auth.ValidPin(pin) {
		return ErrPinFormat
	}

	hash, err := auth.HashPin(pin)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}

	if err := s.galleries.RotatePasswordHash(ctx, galleryID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGalleryNotFound
		}
		return fmt.Errorf("failed to rotate pin: %w", err)
	}

	log.Info().Str("gallery_id", galleryID).Msg("Gallery PIN rotated, all sessions invalidated")
	return nil
}

// SetActive toggles client access to a gallery
func (s *AdminService) SetActive(ctx context.Context, galleryID string, active bool) error {
	if err := s.galleries.SetActive(ctx, galleryID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGalleryNotFound
		}
		return fmt.Errorf("failed to set active flag: %w", err)
	}
	return nil
}

// UploadGrant is a presigned direct-to-bucket upload slot
type UploadGrant struct {
	UploadURL string `json:"upload_url"`
	PhotoID   string `json:"photo_id"`
	S3Key     string `json:"s3_key"`
	ExpiresIn int    `json:"expires_in"`
}

// RequestUpload creates a pending photo record and a presigned PUT URL for
// it. The photo stays invisible to clients until ConfirmUpload stamps it.
func (s *AdminService) RequestUpload(ctx context.Context, galleryID, filename, contentType string, fileSizeBytes int64) (*UploadGrant, error) {
	if _, err := s.galleries.GetByID(ctx, galleryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGalleryNotFound
		}
		return nil, fmt.Errorf("failed to load gallery: %w", err)
	}

	if fileSizeBytes <= 0 || fileSizeBytes > maxUploadBytes {
		return nil, fmt.Errorf("invalid file size: %d", fileSizeBytes)
	}

	now := s.clock.Now()
	safeName := unsafeFilenameChars.ReplaceAllString(filename, "_")
	s3Key := fmt.Sprintf("galleries/%s/%d_%s", galleryID, now.UnixMilli(), safeName)

	photo := &models.GalleryPhoto{
		ID:            uuid.New().String(),
		GalleryID:     galleryID,
		S3Key:         s3Key,
		S3Bucket:      s.bucket,
		Filename:      safeName,
		FileSizeBytes: &fileSizeBytes,
		// Unix seconds keeps insertion order as the default presentation
		// order; admins can re-sort later.
		SortOrder: int(now.Unix()),
	}

	if err := s.photos.Create(ctx, photo); err != nil {
		return nil, fmt.Errorf("failed to create photo record: %w", err)
	}

	uploadURL, err := s.objects.PresignPut(ctx, s.bucket, s3Key, contentType, s.uploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &UploadGrant{
		UploadURL: uploadURL,
		PhotoID:   photo.ID,
		S3Key:     s3Key,
		ExpiresIn: int(s.uploadURLTTL.Seconds()),
	}, nil
}

// ConfirmUpload marks a photo as uploaded, making it visible to clients,
// and pushes a live event to viewers of its gallery.
func (s *AdminService) ConfirmUpload(ctx context.Context, photoID string) (*models.GalleryPhoto, error) {
	photo, err := s.photos.Confirm(ctx, photoID, s.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to confirm upload: %w", err)
	}

	if gallery, err := s.galleries.GetByID(ctx, photo.GalleryID); err == nil {
		s.events.PhotoAdded(gallery.AccessToken, photo)
	}

	log.Info().Str("photo_id", photo.ID).Str("gallery_id", photo.GalleryID).Msg("Photo upload confirmed")
	return photo, nil
}

// DeletePhoto removes the object from storage, then the record
func (s *AdminService) DeletePhoto(ctx context.Context, photoID string) error {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPhotoNotFound
		}
		return fmt.Errorf("failed to load photo: %w", err)
	}

	if err := s.objects.Delete(ctx, photo.S3Bucket, photo.S3Key); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	if err := s.photos.Delete(ctx, photoID); err != nil {
		return fmt.Errorf("failed to delete photo record: %w", err)
	}

	log.Info().Str("photo_id", photoID).Msg("Photo deleted")
	return nil
}
