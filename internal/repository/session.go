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

// SessionRepository handles database operations for gallery sessions
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a new gallery session
func (r *SessionRepository) Create(ctx context.Context, session *models.GallerySession) error {
	query := `
		INSERT INTO gallery_sessions (id, gallery_id, session_token, ip_address, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		session.ID, session.GalleryID, session.SessionToken,
		session.IPAddress, session.UserAgent, session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create gallery session: %w", err)
	}
	return nil
}

// GetValid retrieves a session by token that belongs to the given gallery
// and has not expired at the given instant. Expired, foreign and unknown
// sessions are indistinguishable: all return ErrNotFound.
func (r *SessionRepository) GetValid(ctx context.Context, token, galleryID string, now time.Time) (*models.GallerySession, error) {
	query := `
		SELECT id, gallery_id, session_token, ip_address, user_agent, created_at, expires_at
		FROM gallery_sessions
		WHERE session_token = $1 AND gallery_id = $2 AND expires_at > $3
	`
	var session models.GallerySession
	err := r.db.QueryRow(ctx, query, token, galleryID, now).Scan(
		&session.ID, &session.GalleryID, &session.SessionToken,
		&session.IPAddress, &session.UserAgent, &session.CreatedAt, &session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get gallery session: %w", err)
	}
	return &session, nil
}

// DeleteByGallery removes every session for a gallery
func (r *SessionRepository) DeleteByGallery(ctx context.Context, galleryID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM gallery_sessions WHERE gallery_id = $1`, galleryID)
	if err != nil {
		return fmt.Errorf("failed to delete gallery sessions: %w", err)
	}
	return nil
}

// DeleteExpired prunes sessions whose expiry is in the past. Not required
// for correctness (GetValid already rejects them), storage hygiene only.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM gallery_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
