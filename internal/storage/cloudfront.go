package storage

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/cloudfront/sign"
)

// URLSigner produces time-limited signed URLs for private CDN paths.
// *CloudFrontSigner implements it; tests substitute fakes.
type URLSigner interface {
	SignView(key string, expiresAt time.Time) (string, error)
	SignDownload(key, filename string, expiresAt time.Time) (string, error)
}

// CloudFrontSigner signs URLs on the private CloudFront distribution
type CloudFrontSigner struct {
	domain string
	signer *sign.URLSigner
}

// NewCloudFrontSigner creates a signer from a key-pair ID and a
// base64-encoded PEM RSA private key.
func NewCloudFrontSigner(domain, keyPairID, privateKeyB64 string) (*CloudFrontSigner, error) {
	pemBytes, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	key, err := parseRSAPrivateKey(pemBytes)
	if err != nil {
		return nil, err
	}

	return &CloudFrontSigner{
		domain: domain,
		signer: sign.NewURLSigner(keyPairID, key),
	}, nil
}

// SignView signs a plain view URL for an object key
func (c *CloudFrontSigner) SignView(key string, expiresAt time.Time) (string, error) {
	rawURL := fmt.Sprintf("https://%s/%s", c.domain, key)
	signed, err := c.signer.Sign(rawURL, expiresAt)
	if err != nil {
		return "", fmt.Errorf("failed to sign url: %w", err)
	}
	return signed, nil
}

// SignDownload signs a URL that forces an attachment download named filename
func (c *CloudFrontSigner) SignDownload(key, filename string, expiresAt time.Time) (string, error) {
	disposition := fmt.Sprintf("attachment; filename=%q", filename)
	rawURL := fmt.Sprintf("https://%s/%s?response-content-disposition=%s",
		c.domain, key, url.QueryEscape(disposition))
	signed, err := c.signer.Sign(rawURL, expiresAt)
	if err != nil {
		return "", fmt.Errorf("failed to sign download url: %w", err)
	}
	return signed, nil
}

func parseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in private key")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return key, nil
}
