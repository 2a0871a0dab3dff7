package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	AWS        AWSConfig        `yaml:"aws"`
	CloudFront CloudFrontConfig `yaml:"cloudfront"`
	JWT        JWTConfig        `yaml:"jwt"`
	Mail       MailConfig       `yaml:"mail"`
	Gallery    GalleryConfig    `yaml:"gallery"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
	// SecureCookies should be true behind TLS; gallery session cookies
	// carry the Secure attribute only when set.
	SecureCookies bool `yaml:"secure_cookies"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"` // optional custom endpoint (minio etc.)
}

// CloudFrontConfig holds the CDN signing configuration
type CloudFrontConfig struct {
	Domain    string `yaml:"domain"`
	KeyPairID string `yaml:"key_pair_id"`
	// PrivateKey is the base64-encoded PEM of the RSA signing key.
	PrivateKey string `yaml:"private_key"`
}

// Enabled reports whether CDN signing is fully configured. Without it,
// client URLs are presigned directly against the bucket.
func (c *CloudFrontConfig) Enabled() bool {
	return c.Domain != "" && c.KeyPairID != "" && c.PrivateKey != ""
}

// JWTConfig holds JWT configuration for admin bearer tokens
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// MailConfig holds SMTP configuration for operator notifications
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Enabled reports whether notification sending is configured at all.
func (m *MailConfig) Enabled() bool {
	return m.Host != "" && m.To != ""
}

// Duration is a time.Duration that decodes from YAML strings like "15m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// GalleryConfig holds the access-control policy knobs
type GalleryConfig struct {
	SessionTTL         Duration `yaml:"session_ttl"`
	RateLimitWindow    Duration `yaml:"rate_limit_window"`
	RateLimitMax       int      `yaml:"rate_limit_max"`
	ViewURLTTL         Duration `yaml:"view_url_ttl"`
	DownloadURLTTL     Duration `yaml:"download_url_ttl"`
	UploadURLTTL       Duration `yaml:"upload_url_ttl"`
	BundleFetchTimeout Duration `yaml:"bundle_fetch_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Gallery.applyDefaults()

	return &cfg, nil
}

func (g *GalleryConfig) applyDefaults() {
	if g.SessionTTL == 0 {
		g.SessionTTL = Duration(24 * time.Hour)
	}
	if g.RateLimitWindow == 0 {
		g.RateLimitWindow = Duration(15 * time.Minute)
	}
	if g.RateLimitMax == 0 {
		g.RateLimitMax = 5
	}
	if g.ViewURLTTL == 0 {
		g.ViewURLTTL = Duration(time.Hour)
	}
	if g.DownloadURLTTL == 0 {
		g.DownloadURLTTL = Duration(5 * time.Minute)
	}
	if g.UploadURLTTL == 0 {
		g.UploadURLTTL = Duration(15 * time.Minute)
	}
	if g.BundleFetchTimeout == 0 {
		g.BundleFetchTimeout = Duration(30 * time.Second)
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
