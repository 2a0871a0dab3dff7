package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio-gallery-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const photoColumns = `id, gallery_id, s3_key, s3_bucket, filename, file_size_bytes, width, height, sort_order, uploaded_at`

// PhotoRepository handles database operations for gallery photos
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create inserts a pending (unconfirmed) photo record
func (r *PhotoRepository) Create(ctx context.Context, photo *models.GalleryPhoto) error {
	query := `
		INSERT INTO gallery_photos (id, gallery_id, s3_key, s3_bucket, filename, file_size_bytes, width, height, sort_order, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		photo.ID, photo.GalleryID, photo.S3Key, photo.S3Bucket, photo.Filename,
		photo.FileSizeBytes, photo.Width, photo.Height, photo.SortOrder, photo.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.GalleryPhoto, error) {
	query := `SELECT ` + photoColumns + ` FROM gallery_photos WHERE id = $1`
	var photo models.GalleryPhoto
	err := r.db.QueryRow(ctx, query, id).Scan(
		&photo.ID, &photo.GalleryID, &photo.S3Key, &photo.S3Bucket, &photo.Filename,
		&photo.FileSizeBytes, &photo.Width, &photo.Height, &photo.SortOrder, &photo.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("photo not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &photo, nil
}

// ListConfirmed retrieves confirmed photos for a gallery in stable sort
// order, capped at limit. Unconfirmed photos (uploaded_at IS NULL) never
// appear in client-facing listings.
func (r *PhotoRepository) ListConfirmed(ctx context.Context, galleryID string, limit int) ([]*models.GalleryPhoto, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM gallery_photos
		WHERE gallery_id = $1 AND uploaded_at IS NOT NULL
		ORDER BY sort_order ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, galleryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.GalleryPhoto
	for rows.Next() {
		var photo models.GalleryPhoto
		err := rows.Scan(
			&photo.ID, &photo.GalleryID, &photo.S3Key, &photo.S3Bucket, &photo.Filename,
			&photo.FileSizeBytes, &photo.Width, &photo.Height, &photo.SortOrder, &photo.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, &photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, nil
}

// Confirm stamps the photo as uploaded and returns the updated record
func (r *PhotoRepository) Confirm(ctx context.Context, id string, uploadedAt time.Time) (*models.GalleryPhoto, error) {
	query := `
		UPDATE gallery_photos SET uploaded_at = $1 WHERE id = $2
		RETURNING ` + photoColumns
	var photo models.GalleryPhoto
	err := r.db.QueryRow(ctx, query, uploadedAt, id).Scan(
		&photo.ID, &photo.GalleryID, &photo.S3Key, &photo.S3Bucket, &photo.Filename,
		&photo.FileSizeBytes, &photo.Width, &photo.Height, &photo.SortOrder, &photo.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("photo not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to confirm photo: %w", err)
	}
	return &photo, nil
}

// Delete removes a photo record
func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM gallery_photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("photo not found: %w", ErrNotFound)
	}
	return nil
}
