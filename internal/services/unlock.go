package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio-gallery-backend/internal/auth"
	"studio-gallery-backend/internal/clock"
	"studio-gallery-backend/internal/models"
	"studio-gallery-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UnlockService handles PIN verification and gallery session issuance
type UnlockService struct {
	galleries GalleryStore
	sessions  SessionStore
	attempts  AttemptStore
	notifier  Notifier
	clock     clock.Clock

	sessionTTL  time.Duration
	rateWindow  time.Duration
	maxAttempts int
}

// NewUnlockService creates a new unlock service
func NewUnlockService(
	galleries GalleryStore,
	sessions SessionStore,
	attempts AttemptStore,
	notifier Notifier,
	clk clock.Clock,
	sessionTTL, rateWindow time.Duration,
	maxAttempts int,
) *UnlockService {
	return &UnlockService{
		galleries:   galleries,
		sessions:    sessions,
		attempts:    attempts,
		notifier:    notifier,
		clock:       clk,
		sessionTTL:  sessionTTL,
		rateWindow:  rateWindow,
		maxAttempts: maxAttempts,
	}
}

// Unlock verifies a submitted PIN and issues a gallery session.
//
// The attempt budget is checked before any hashing so an over-limit client
// never exercises the bcrypt comparison. Failures are recorded for tokens
// that resolve to nothing or to an inactive gallery too: the ledger is
// keyed by the raw token string, which blunts enumeration probing.
func (s *UnlockService) Unlock(ctx context.Context, token, pin, clientIP, userAgent string) (*models.GallerySession, error) {
	now := s.clock.Now()

	count, err := s.attempts.CountSince(ctx, token, clientIP, now.Add(-s.rateWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to check attempt budget: %w", err)
	}
	if count >= s.maxAttempts {
		return nil, fmt.Errorf("%w: %d failures within %s", ErrRateLimited, count, s.rateWindow)
	}

	gallery, err := s.galleries.GetByAccessToken(ctx, token)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up gallery: %w", err)
		}
		s.recordFailure(ctx, token, clientIP)
		return nil, ErrGalleryNotFound
	}
	if !gallery.IsActive {
		s.recordFailure(ctx, token, clientIP)
		return nil, ErrGalleryNotFound
	}

	if !auth.VerifyPin(pin, gallery.PasswordHash) {
		s.recordFailure(ctx, token, clientIP)
		return nil, ErrInvalidPIN
	}

	sessionToken, err := auth.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &models.GallerySession{
		ID:           uuid.New().String(),
		GalleryID:    gallery.ID,
		SessionToken: sessionToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.sessionTTL),
	}
	if clientIP != "" {
		session.IPAddress = &clientIP
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	log.Info().
		Str("gallery_id", gallery.ID).
		Str("ip", clientIP).
		Time("expires_at", session.ExpiresAt).
		Msg("Gallery unlocked")

	// Best effort, after the session is committed.
	s.notifier.GalleryUnlocked(gallery, clientIP)

	return session, nil
}

// RetryAfter returns the window length, for the rate-limit response message.
func (s *UnlockService) RetryAfter() time.Duration {
	return s.rateWindow
}

func (s *UnlockService) recordFailure(ctx context.Context, token, clientIP string) {
	attempt := &models.PinAttempt{
		ID:           uuid.New().String(),
		GalleryToken: token,
		IPAddress:    clientIP,
		AttemptedAt:  s.clock.Now(),
	}
	if err := s.attempts.Record(ctx, attempt); err != nil {
		// The ledger is a best-effort bound; a lost entry must not turn a
		// 401/404 into a 500.
		log.Error().Err(err).Str("ip", clientIP).Msg("Failed to record pin attempt")
	}
}
