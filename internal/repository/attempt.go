package repository

import (
	"context"
	"fmt"
	"time"

	"studio-gallery-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository handles the failed-unlock ledger
type AttemptRepository struct {
	db *pgxpool.Pool
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Record inserts one failed unlock attempt
func (r *AttemptRepository) Record(ctx context.Context, attempt *models.PinAttempt) error {
	query := `
		INSERT INTO pin_attempts (id, gallery_token, ip_address, attempted_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query,
		attempt.ID, attempt.GalleryToken, attempt.IPAddress, attempt.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record pin attempt: %w", err)
	}
	return nil
}

// CountSince counts failed attempts for a (token, ip) pair after windowStart.
// Keyed by the raw token string so attempts against unknown tokens count too.
func (r *AttemptRepository) CountSince(ctx context.Context, galleryToken, ipAddress string, windowStart time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM pin_attempts
		WHERE gallery_token = $1 AND ip_address = $2 AND attempted_at > $3
	`
	var count int
	err := r.db.QueryRow(ctx, query, galleryToken, ipAddress, windowStart).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pin attempts: %w", err)
	}
	return count, nil
}

// DeleteBefore prunes ledger entries older than cutoff. Entries outside the
// window are already ignored by CountSince; this is storage hygiene for cron.
func (r *AttemptRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM pin_attempts WHERE attempted_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune pin attempts: %w", err)
	}
	return result.RowsAffected(), nil
}
