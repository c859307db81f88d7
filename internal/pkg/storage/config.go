package storage

import (
	"strings"
	"time"

	"github.com/launchkit/launchkit/internal/pkg/env"
)

// Config holds the S3-compatible object storage settings for user uploads.
type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// EndpointURL switches to a non-AWS S3-compatible endpoint (MinIO,
	// Backblaze B2). Empty means plain AWS.
	EndpointURL string
	// PresignTTL bounds how long presigned upload/download URLs stay valid.
	PresignTTL time.Duration
}

// ConfigFromEnv builds the storage configuration from environment variables.
func ConfigFromEnv() *Config {
	ttl := 15 * time.Minute
	if raw := strings.TrimSpace(env.GetEnv("S3_PRESIGN_TTL", "")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}
	return &Config{
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		Bucket:          env.GetEnv("S3_BUCKET", ""),
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PresignTTL:      ttl,
	}
}

// IsEnabled reports whether object storage is configured.
func (c *Config) IsEnabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}
