// Package storage wraps the private photo bucket and the CDN signer.
// Clients are constructed once at process start and injected into services.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore is the subset of object storage the delivery and admin
// services need. *S3Store implements it; tests substitute fakes.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, key string) error
	PresignPut(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error)
	PresignGet(ctx context.Context, bucket, key, filename string, expires time.Duration) (string, error)
}

// S3Store talks to the private gallery bucket
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
}

// NewS3Store creates an S3-backed object store. An empty endpoint uses the
// default AWS endpoint; a custom one supports S3-compatible providers.
func NewS3Store(ctx context.Context, region, accessKey, secretKey, endpoint string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

// Get fetches an object's bytes
func (s *S3Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return out.Body, nil
}

// Delete removes an object
func (s *S3Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// PresignPut generates a pre-signed URL for direct browser-to-bucket upload
func (s *S3Store) PresignPut(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error) {
	request, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return request.URL, nil
}

// PresignGet generates a pre-signed GET URL. A non-empty filename forces an
// attachment disposition under that name; empty means a plain view URL.
func (s *S3Store) PresignGet(ctx context.Context, bucket, key, filename string, expires time.Duration) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if filename != "" {
		input.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", filename))
	}
	request, err := s.presign.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return request.URL, nil
}
