package storage

import (
	"context"
	"time"

	"studio-gallery-backend/internal/clock"
)

// S3URLSigner issues presigned GET URLs straight from the bucket. Used when
// no CloudFront distribution is configured; the URL semantics (view vs.
// forced-download, expiry) match CloudFrontSigner.
type S3URLSigner struct {
	objects ObjectStore
	bucket  string
	clock   clock.Clock
}

// NewS3URLSigner creates a bucket-direct URL signer
func NewS3URLSigner(objects ObjectStore, bucket string, clk clock.Clock) *S3URLSigner {
	return &S3URLSigner{objects: objects, bucket: bucket, clock: clk}
}

// SignView signs a plain view URL for an object key
func (s *S3URLSigner) SignView(key string, expiresAt time.Time) (string, error) {
	return s.objects.PresignGet(context.Background(), s.bucket, key, "", expiresAt.Sub(s.clock.Now()))
}

// SignDownload signs a URL that forces an attachment download named filename
func (s *S3URLSigner) SignDownload(key, filename string, expiresAt time.Time) (string, error) {
	return s.objects.PresignGet(context.Background(), s.bucket, key, filename, expiresAt.Sub(s.clock.Now()))
}
