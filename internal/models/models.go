package models

import "time"

// Gallery is one client's private photo set, reachable by its access token.
type Gallery struct {
	ID           string     `json:"id"`
	SessionID    string     `json:"session_id"`
	AccessToken  string     `json:"access_token"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	PhotoLimit   int        `json:"photo_limit"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// GalleryPhoto is a single photo in a gallery. UploadedAt is nil until the
// client-side S3 upload has been confirmed; unconfirmed photos are never
// shown to clients.
type GalleryPhoto struct {
	ID            string     `json:"id"`
	GalleryID     string     `json:"gallery_id"`
	S3Key         string     `json:"-"`
	S3Bucket      string     `json:"-"`
	Filename      string     `json:"filename"`
	FileSizeBytes *int64     `json:"file_size_bytes,omitempty"`
	Width         *int       `json:"width,omitempty"`
	Height        *int       `json:"height,omitempty"`
	SortOrder     int        `json:"sort_order"`
	UploadedAt    *time.Time `json:"uploaded_at,omitempty"`
}

// Confirmed reports whether the photo upload has been acknowledged complete.
func (p *GalleryPhoto) Confirmed() bool {
	return p.UploadedAt != nil
}

// GallerySession is proof of one successful PIN unlock. Valid while
// now < ExpiresAt and the session belongs to the gallery being accessed.
type GallerySession struct {
	ID           string    `json:"id"`
	GalleryID    string    `json:"gallery_id"`
	SessionToken string    `json:"-"`
	IPAddress    *string   `json:"ip_address,omitempty"`
	UserAgent    *string   `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// PinAttempt is one failed unlock attempt. Keyed by the raw gallery token,
// not a foreign key, so attempts against unknown tokens are counted too.
type PinAttempt struct {
	ID           string    `json:"id"`
	GalleryToken string    `json:"gallery_token"`
	IPAddress    string    `json:"ip_address"`
	AttemptedAt  time.Time `json:"attempted_at"`
}
