package services

import (
	"context"
	"time"

	"studio-gallery-backend/internal/models"
)

// Store interfaces implemented by the pgx repositories. Services depend on
// these so tests can substitute in-memory fakes.

// GalleryStore persists gallery records
type GalleryStore interface {
	Create(ctx context.Context, gallery *models.Gallery) error
	GetByAccessToken(ctx context.Context, token string) (*models.Gallery, error)
	GetByID(ctx context.Context, id string) (*models.Gallery, error)
	SetActive(ctx context.Context, id string, active bool) error
	RotatePasswordHash(ctx context.Context, id, passwordHash string) error
}

// SessionStore persists gallery sessions
type SessionStore interface {
	Create(ctx context.Context, session *models.GallerySession) error
	GetValid(ctx context.Context, token, galleryID string, now time.Time) (*models.GallerySession, error)
	DeleteByGallery(ctx context.Context, galleryID string) error
}

// AttemptStore persists the failed-unlock ledger
type AttemptStore interface {
	Record(ctx context.Context, attempt *models.PinAttempt) error
	CountSince(ctx context.Context, galleryToken, ipAddress string, windowStart time.Time) (int, error)
}

// PhotoStore persists gallery photos
type PhotoStore interface {
	Create(ctx context.Context, photo *models.GalleryPhoto) error
	GetByID(ctx context.Context, id string) (*models.GalleryPhoto, error)
	ListConfirmed(ctx context.Context, galleryID string, limit int) ([]*models.GalleryPhoto, error)
	Confirm(ctx context.Context, id string, uploadedAt time.Time) (*models.GalleryPhoto, error)
	Delete(ctx context.Context, id string) error
}
