package services

import "errors"

// Sentinel errors mapped to HTTP statuses in the handlers. Handlers match
// with errors.Is, so services may wrap these with context.
var (
	// ErrGalleryNotFound covers both "no such gallery" and "gallery exists
	// but is inactive" so the unlock endpoint never reveals which.
	ErrGalleryNotFound = errors.New("gallery not found")

	// ErrInvalidPIN means the gallery exists and is active but the PIN
	// comparison failed.
	ErrInvalidPIN = errors.New("incorrect pin")

	// ErrPinFormat means a PIN being set does not match the 4-8 digit rule.
	ErrPinFormat = errors.New("pin must be 4-8 digits")

	// ErrRateLimited means the (token, ip) pair exhausted its attempt budget.
	ErrRateLimited = errors.New("too many unlock attempts")

	// ErrSessionInvalid covers absent, expired and foreign sessions alike.
	ErrSessionInvalid = errors.New("session invalid or expired")

	// ErrPhotoNotFound means the photo or its owning gallery does not exist.
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrNoPhotos means a bundle was requested for a gallery with zero
	// confirmed photos; distinct from producing an empty archive.
	ErrNoPhotos = errors.New("no photos found")

	// ErrBundleFetch means an upstream object fetch failed or timed out
	// mid-bundle. The whole bundle is aborted; the client may retry.
	ErrBundleFetch = errors.New("failed to fetch photo from storage")
)
