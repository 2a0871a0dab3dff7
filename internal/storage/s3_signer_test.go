package storage

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type recordingObjects struct {
	bucket, key, filename string
	expires               time.Duration
}

func (r *recordingObjects) Get(context.Context, string, string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *recordingObjects) Delete(context.Context, string, string) error {
	return fmt.Errorf("not implemented")
}

func (r *recordingObjects) PresignPut(context.Context, string, string, string, time.Duration) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (r *recordingObjects) PresignGet(_ context.Context, bucket, key, filename string, expires time.Duration) (string, error) {
	r.bucket, r.key, r.filename, r.expires = bucket, key, filename, expires
	return "https://s3.test/" + bucket + "/" + key, nil
}

func TestS3URLSignerView(t *testing.T) {
	clk := fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	objects := &recordingObjects{}
	signer := NewS3URLSigner(objects, "private-bucket", clk)

	url, err := signer.SignView("galleries/g-1/a.jpg", clk.now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "https://s3.test/private-bucket/galleries/g-1/a.jpg", url)
	assert.Equal(t, "private-bucket", objects.bucket)
	assert.Equal(t, time.Hour, objects.expires)
	assert.Empty(t, objects.filename, "view URLs carry no disposition")
}

func TestS3URLSignerDownload(t *testing.T) {
	clk := fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	objects := &recordingObjects{}
	signer := NewS3URLSigner(objects, "private-bucket", clk)

	_, err := signer.SignDownload("galleries/g-1/a.jpg", "a.jpg", clk.now.Add(5*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "a.jpg", objects.filename)
	assert.Equal(t, 5*time.Minute, objects.expires)
}

var _ URLSigner = (*S3URLSigner)(nil)
var _ URLSigner = (*CloudFrontSigner)(nil)
var _ ObjectStore = (*S3Store)(nil)
