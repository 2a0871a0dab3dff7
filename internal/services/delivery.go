package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"studio-gallery-backend/internal/clock"
	"studio-gallery-backend/internal/models"
	"studio-gallery-backend/internal/repository"
	"studio-gallery-backend/internal/storage"

	"github.com/rs/zerolog/log"
)

// DeliveryService issues signed URLs for single photos and assembles the
// all-photos ZIP bundle. Every issuance re-validates the caller's session.
type DeliveryService struct {
	galleries GalleryStore
	sessions  SessionStore
	photos    PhotoStore
	objects   storage.ObjectStore
	signer    storage.URLSigner
	notifier  Notifier
	clock     clock.Clock

	viewURLTTL     time.Duration
	downloadURLTTL time.Duration
	fetchTimeout   time.Duration
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(
	galleries GalleryStore,
	sessions SessionStore,
	photos PhotoStore,
	objects storage.ObjectStore,
	signer storage.URLSigner,
	notifier Notifier,
	clk clock.Clock,
	viewURLTTL, downloadURLTTL, fetchTimeout time.Duration,
) *DeliveryService {
	return &DeliveryService{
		galleries:      galleries,
		sessions:       sessions,
		photos:         photos,
		objects:        objects,
		signer:         signer,
		notifier:       notifier,
		clock:          clk,
		viewURLTTL:     viewURLTTL,
		downloadURLTTL: downloadURLTTL,
		fetchTimeout:   fetchTimeout,
	}
}

// ResolvePhoto loads a photo and its owning gallery. A missing photo and a
// missing gallery both come back as ErrPhotoNotFound.
func (s *DeliveryService) ResolvePhoto(ctx context.Context, photoID string) (*models.GalleryPhoto, *models.Gallery, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrPhotoNotFound
		}
		return nil, nil, fmt.Errorf("failed to load photo: %w", err)
	}

	gallery, err := s.galleries.GetByID(ctx, photo.GalleryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrPhotoNotFound
		}
		return nil, nil, fmt.Errorf("failed to load gallery: %w", err)
	}

	return photo, gallery, nil
}

// SignPhoto re-validates the session against the photo's gallery and signs
// a single-object URL: a 1 hour view URL, or a 5 minute forced-download
// URL named by the display filename. Each call produces a fresh URL.
func (s *DeliveryService) SignPhoto(ctx context.Context, photo *models.GalleryPhoto, gallery *models.Gallery, sessionToken string, download bool) (string, error) {
	if err := s.checkSession(ctx, gallery, sessionToken); err != nil {
		return "", err
	}

	now := s.clock.Now()
	if download {
		return s.signer.SignDownload(photo.S3Key, photo.Filename, now.Add(s.downloadURLTTL))
	}
	return s.signer.SignView(photo.S3Key, now.Add(s.viewURLTTL))
}

// BundleAll re-validates the session, loads every confirmed photo for the
// gallery and assembles a ZIP archive in memory, entries named by each
// photo's display filename (storage keys never leak). The archive is fully
// buffered so the response can carry an exact Content-Length.
//
// Object fetches are bounded by the per-object timeout; any fetch failure
// aborts the whole bundle rather than emitting a truncated archive.
func (s *DeliveryService) BundleAll(ctx context.Context, gallery *models.Gallery, sessionToken string) ([]byte, error) {
	if err := s.checkSession(ctx, gallery, sessionToken); err != nil {
		return nil, err
	}

	photos, err := s.photos.ListConfirmed(ctx, gallery.ID, gallery.PhotoLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load photos: %w", err)
	}
	if len(photos) == 0 {
		return nil, ErrNoPhotos
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, photo := range photos {
		if err := s.appendPhoto(ctx, zw, photo); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	log.Info().
		Str("gallery_id", gallery.ID).
		Int("photos", len(photos)).
		Int("bytes", buf.Len()).
		Msg("Photo bundle assembled")

	s.notifier.BundleDownloaded(gallery, len(photos))

	return buf.Bytes(), nil
}

func (s *DeliveryService) appendPhoto(ctx context.Context, zw *zip.Writer, photo *models.GalleryPhoto) error {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	body, err := s.objects.Get(fetchCtx, photo.S3Bucket, photo.S3Key)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBundleFetch, photo.Filename, err)
	}
	defer body.Close()

	entry, err := zw.Create(photo.Filename)
	if err != nil {
		return fmt.Errorf("failed to create archive entry: %w", err)
	}
	if _, err := io.Copy(entry, body); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBundleFetch, photo.Filename, err)
	}
	return nil
}

func (s *DeliveryService) checkSession(ctx context.Context, gallery *models.Gallery, sessionToken string) error {
	if sessionToken == "" {
		return ErrSessionInvalid
	}
	if _, err := s.sessions.GetValid(ctx, sessionToken, gallery.ID, s.clock.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionInvalid
		}
		return fmt.Errorf("failed to look up session: %w", err)
	}
	return nil
}
