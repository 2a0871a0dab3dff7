package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"studio-gallery-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGalleryFixture(t *testing.T) (*GalleryService, *fakeGalleryStore, *fakeSessionStore, *fakePhotoStore, *fixedClock, *models.Gallery) {
	t.Helper()

	clk := &fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	gallery := &models.Gallery{
		ID:          "g-1",
		AccessToken: "feedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeed",
		IsActive:    true,
		PhotoLimit:  25,
	}

	galleries := newFakeGalleryStore()
	galleries.galleries[gallery.ID] = gallery
	sessions := newFakeSessionStore()
	photos := newFakePhotoStore()

	service := NewGalleryService(galleries, sessions, photos, fakeSigner{}, clk, time.Hour)
	return service, galleries, sessions, photos, clk, gallery
}

func addSession(sessions *fakeSessionStore, galleryID, token string, expiresAt time.Time) {
	sessions.byToken[token] = &models.GallerySession{
		ID:           "sess-" + token[:8],
		GalleryID:    galleryID,
		SessionToken: token,
		ExpiresAt:    expiresAt,
	}
}

func addPhoto(photos *fakePhotoStore, id, galleryID, filename string, sortOrder int, confirmed bool, at time.Time) {
	p := &models.GalleryPhoto{
		ID:        id,
		GalleryID: galleryID,
		S3Key:     "galleries/" + galleryID + "/" + filename,
		S3Bucket:  "test-bucket",
		Filename:  filename,
		SortOrder: sortOrder,
	}
	if confirmed {
		p.UploadedAt = &at
	}
	photos.photos[id] = p
}

func TestGetActiveGallery(t *testing.T) {
	service, galleries, _, _, _, gallery := newGalleryFixture(t)
	ctx := context.Background()

	got, err := service.GetActiveGallery(ctx, gallery.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, gallery.ID, got.ID)

	_, err = service.GetActiveGallery(ctx, "0000000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrGalleryNotFound)

	galleries.galleries[gallery.ID].IsActive = false
	_, err = service.GetActiveGallery(ctx, gallery.AccessToken)
	assert.ErrorIs(t, err, ErrGalleryNotFound)
}

func TestAuthorize(t *testing.T) {
	service, _, sessions, _, clk, gallery := newGalleryFixture(t)
	ctx := context.Background()

	token := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addSession(sessions, gallery.ID, token, clk.now.Add(24*time.Hour))

	t.Run("valid session", func(t *testing.T) {
		session, err := service.Authorize(ctx, gallery, token)
		require.NoError(t, err)
		assert.Equal(t, gallery.ID, session.GalleryID)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := service.Authorize(ctx, gallery, "")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := service.Authorize(ctx, gallery, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("foreign gallery session", func(t *testing.T) {
		other := &models.Gallery{ID: "g-2", AccessToken: gallery.AccessToken, IsActive: true}
		_, err := service.Authorize(ctx, other, token)
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("expired session", func(t *testing.T) {
		clk.advance(24*time.Hour + time.Second)
		_, err := service.Authorize(ctx, gallery, token)
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})
}

func TestListPhotosOrderAndConfirmation(t *testing.T) {
	service, _, _, photos, clk, gallery := newGalleryFixture(t)

	// Out-of-order inserts; sort_order decides presentation order.
	addPhoto(photos, "p-3", gallery.ID, "c.jpg", 30, true, clk.now)
	addPhoto(photos, "p-1", gallery.ID, "a.jpg", 10, true, clk.now)
	addPhoto(photos, "p-2", gallery.ID, "b.jpg", 20, true, clk.now)
	addPhoto(photos, "p-4", gallery.ID, "pending.jpg", 5, false, clk.now)

	views, err := service.ListPhotos(context.Background(), gallery)
	require.NoError(t, err)

	require.Len(t, views, 3, "unconfirmed photos never reach clients")
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, []string{views[0].Filename, views[1].Filename, views[2].Filename})

	wantExpiry := clk.now.Add(time.Hour).Unix()
	for _, v := range views {
		assert.Contains(t, v.SignedURL, fmt.Sprintf("Expires=%d", wantExpiry))
	}
}

func TestListPhotosHonorsPhotoLimit(t *testing.T) {
	service, _, _, photos, clk, gallery := newGalleryFixture(t)
	gallery.PhotoLimit = 2

	addPhoto(photos, "p-1", gallery.ID, "a.jpg", 10, true, clk.now)
	addPhoto(photos, "p-2", gallery.ID, "b.jpg", 20, true, clk.now)
	addPhoto(photos, "p-3", gallery.ID, "c.jpg", 30, true, clk.now)

	views, err := service.ListPhotos(context.Background(), gallery)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}
