package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"studio-gallery-backend/internal/models"
	"studio-gallery-backend/internal/repository"
)

// In-memory fakes for the store interfaces, plus a fixed clock. Kept in one
// place because most service tests need the same wiring.

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeGalleryStore struct {
	galleries map[string]*models.Gallery // by id
	// rotation deletes sessions here when set, mirroring the real
	// transaction
	sessions *fakeSessionStore
}

func newFakeGalleryStore() *fakeGalleryStore {
	return &fakeGalleryStore{galleries: make(map[string]*models.Gallery)}
}

func (f *fakeGalleryStore) Create(_ context.Context, gallery *models.Gallery) error {
	f.galleries[gallery.ID] = gallery
	return nil
}

func (f *fakeGalleryStore) GetByAccessToken(_ context.Context, token string) (*models.Gallery, error) {
	for _, g := range f.galleries {
		if g.AccessToken == token {
			return g, nil
		}
	}
	return nil, fmt.Errorf("gallery not found: %w", repository.ErrNotFound)
}

func (f *fakeGalleryStore) GetByID(_ context.Context, id string) (*models.Gallery, error) {
	g, ok := f.galleries[id]
	if !ok {
		return nil, fmt.Errorf("gallery not found: %w", repository.ErrNotFound)
	}
	return g, nil
}

func (f *fakeGalleryStore) SetActive(_ context.Context, id string, active bool) error {
	g, ok := f.galleries[id]
	if !ok {
		return fmt.Errorf("gallery not found: %w", repository.ErrNotFound)
	}
	g.IsActive = active
	return nil
}

func (f *fakeGalleryStore) RotatePasswordHash(ctx context.Context, id, passwordHash string) error {
	g, ok := f.galleries[id]
	if !ok {
		return fmt.Errorf("gallery not found: %w", repository.ErrNotFound)
	}
	g.PasswordHash = passwordHash
	if f.sessions != nil {
		f.sessions.DeleteByGallery(ctx, id)
	}
	return nil
}

type fakeSessionStore struct {
	byToken map[string]*models.GallerySession
	created []*models.GallerySession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{byToken: make(map[string]*models.GallerySession)}
}

func (f *fakeSessionStore) Create(_ context.Context, session *models.GallerySession) error {
	f.byToken[session.SessionToken] = session
	f.created = append(f.created, session)
	return nil
}

func (f *fakeSessionStore) GetValid(_ context.Context, token, galleryID string, now time.Time) (*models.GallerySession, error) {
	s, ok := f.byToken[token]
	if !ok || s.GalleryID != galleryID || !s.ExpiresAt.After(now) {
		return nil, fmt.Errorf("session not found: %w", repository.ErrNotFound)
	}
	return s, nil
}

func (f *fakeSessionStore) DeleteByGallery(_ context.Context, galleryID string) error {
	for token, s := range f.byToken {
		if s.GalleryID == galleryID {
			delete(f.byToken, token)
		}
	}
	return nil
}

type fakeAttemptStore struct {
	attempts []*models.PinAttempt
}

func (f *fakeAttemptStore) Record(_ context.Context, attempt *models.PinAttempt) error {
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeAttemptStore) CountSince(_ context.Context, galleryToken, ipAddress string, windowStart time.Time) (int, error) {
	count := 0
	for _, a := range f.attempts {
		if a.GalleryToken == galleryToken && a.IPAddress == ipAddress && a.AttemptedAt.After(windowStart) {
			count++
		}
	}
	return count, nil
}

type fakePhotoStore struct {
	photos map[string]*models.GalleryPhoto
}

func newFakePhotoStore() *fakePhotoStore {
	return &fakePhotoStore{photos: make(map[string]*models.GalleryPhoto)}
}

func (f *fakePhotoStore) Create(_ context.Context, photo *models.GalleryPhoto) error {
	f.photos[photo.ID] = photo
	return nil
}

func (f *fakePhotoStore) GetByID(_ context.Context, id string) (*models.GalleryPhoto, error) {
	p, ok := f.photos[id]
	if !ok {
		return nil, fmt.Errorf("photo not found: %w", repository.ErrNotFound)
	}
	return p, nil
}

func (f *fakePhotoStore) ListConfirmed(_ context.Context, galleryID string, limit int) ([]*models.GalleryPhoto, error) {
	var out []*models.GalleryPhoto
	for _, p := range f.photos {
		if p.GalleryID == galleryID && p.Confirmed() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePhotoStore) Confirm(_ context.Context, id string, uploadedAt time.Time) (*models.GalleryPhoto, error) {
	p, ok := f.photos[id]
	if !ok {
		return nil, fmt.Errorf("photo not found: %w", repository.ErrNotFound)
	}
	p.UploadedAt = &uploadedAt
	return p, nil
}

func (f *fakePhotoStore) Delete(_ context.Context, id string) error {
	if _, ok := f.photos[id]; !ok {
		return fmt.Errorf("photo not found: %w", repository.ErrNotFound)
	}
	delete(f.photos, id)
	return nil
}

type fakeSigner struct{}

func (fakeSigner) SignView(key string, expiresAt time.Time) (string, error) {
	return fmt.Sprintf("https://cdn.test/%s?Expires=%d", key, expiresAt.Unix()), nil
}

func (fakeSigner) SignDownload(key, filename string, expiresAt time.Time) (string, error) {
	return fmt.Sprintf("https://cdn.test/%s?Expires=%d&filename=%s", key, expiresAt.Unix(), filename), nil
}

type fakeObjectStore struct {
	objects map[string][]byte
	// getFn overrides Get when set, for failure/timeout scenarios
	getFn func(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if f.getFn != nil {
		return f.getFn(ctx, bucket, key)
	}
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStore) Delete(_ context.Context, bucket, key string) error {
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeObjectStore) PresignPut(_ context.Context, bucket, key, contentType string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://s3.test/%s/%s?method=PUT&ct=%s", bucket, key, contentType), nil
}

func (f *fakeObjectStore) PresignGet(_ context.Context, bucket, key, filename string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://s3.test/%s/%s?filename=%s", bucket, key, filename), nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	unlocks   int
	downloads int
}

func (n *recordingNotifier) GalleryUnlocked(*models.Gallery, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unlocks++
}

func (n *recordingNotifier) BundleDownloaded(*models.Gallery, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.downloads++
}

type recordingEventSink struct {
	added []string // gallery tokens
}

func (s *recordingEventSink) PhotoAdded(galleryToken string, _ *models.GalleryPhoto) {
	s.added = append(s.added, galleryToken)
}
