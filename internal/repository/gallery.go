package repository

import (
	"context"
	"errors"
	"fmt"

	"studio-gallery-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// GalleryRepository handles database operations for galleries
type GalleryRepository struct {
	db *pgxpool.Pool
}

// NewGalleryRepository creates a new gallery repository
func NewGalleryRepository(db *pgxpool.Pool) *GalleryRepository {
	return &GalleryRepository{db: db}
}

// Create creates a new gallery
func (r *GalleryRepository) Create(ctx context.Context, gallery *models.Gallery) error {
	query := `
		INSERT INTO galleries (id, session_id, access_token, password_hash, is_active, expires_at, photo_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		gallery.ID, gallery.SessionID, gallery.AccessToken, gallery.PasswordHash,
		gallery.IsActive, gallery.ExpiresAt, gallery.PhotoLimit,
		gallery.CreatedAt, gallery.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create gallery: %w", err)
	}
	return nil
}

// GetByAccessToken retrieves a gallery by its access token (exact match)
func (r *GalleryRepository) GetByAccessToken(ctx context.Context, token string) (*models.Gallery, error) {
	query := `
		SELECT id, session_id, access_token, password_hash, is_active, expires_at, photo_limit, created_at, updated_at
		FROM galleries
		WHERE access_token = $1
	`
	var gallery models.Gallery
	err := r.db.QueryRow(ctx, query, token).Scan(
		&gallery.ID, &gallery.SessionID, &gallery.AccessToken, &gallery.PasswordHash,
		&gallery.IsActive, &gallery.ExpiresAt, &gallery.PhotoLimit,
		&gallery.CreatedAt, &gallery.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("gallery not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get gallery by token: %w", err)
	}
	return &gallery, nil
}

// GetByID retrieves a gallery by ID
func (r *GalleryRepository) GetByID(ctx context.Context, id string) (*models.Gallery, error) {
	query := `
		SELECT id, session_id, access_token, password_hash, is_active, expires_at, photo_limit, created_at, updated_at
		FROM galleries
		WHERE id = $1
	`
	var gallery models.Gallery
	err := r.db.QueryRow(ctx, query, id).Scan(
		&gallery.ID, &gallery.SessionID, &gallery.AccessToken, &gallery.PasswordHash,
		&gallery.IsActive, &gallery.ExpiresAt, &gallery.PhotoLimit,
		&gallery.CreatedAt, &gallery.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("gallery not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get gallery: %w", err)
	}
	return &gallery, nil
}

// SetActive toggles the active flag for a gallery
func (r *GalleryRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE galleries SET is_active = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("failed to update gallery active flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("gallery not found: %w", ErrNotFound)
	}
	return nil
}

// RotatePasswordHash replaces the PIN hash and deletes every session for the
// gallery in one transaction, so no session can outlive the rotation.
func (r *GalleryRepository) RotatePasswordHash(ctx context.Context, id, passwordHash string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`UPDATE galleries SET password_hash = $1, updated_at = now() WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("gallery not found: %w", ErrNotFound)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM gallery_sessions WHERE gallery_id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to invalidate gallery sessions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}
	return nil
}
