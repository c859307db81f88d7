package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Client wraps the S3 client for user upload storage. Browsers talk to the
// bucket directly via presigned URLs; the app server never proxies file
// bytes.
type Client struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	config        *Config
}

// NewClient creates an object storage client for user uploads.
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, errors.New("object storage is not configured")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// Path-style URLs for MinIO and B2 endpoints
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		config:        cfg,
	}
	log.Infof("[Storage] Initialized object storage client for bucket: %s", cfg.Bucket)
	return client, nil
}

// PresignedUpload describes a presigned PUT the browser performs directly
// against the bucket.
type PresignedUpload struct {
	ObjectKey   string        `json:"object_key"`
	URL         string        `json:"url"`
	Method      string        `json:"method"`
	ContentType string        `json:"content_type"`
	ExpiresIn   time.Duration `json:"expires_in"`
}

// ObjectKeyFor builds a per-user object key. The random component keeps
// user-chosen filenames from colliding or traversing.
func ObjectKeyFor(userID uint, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return fmt.Sprintf("uploads/%d/%s/%s", userID, uuid.NewString(), base)
}

// ObjectKeyBelongsTo reports whether an object key sits under the user's
// upload prefix.
func ObjectKeyBelongsTo(userID uint, objectKey string) bool {
	return strings.HasPrefix(objectKey, fmt.Sprintf("uploads/%d/", userID))
}

// PresignUpload creates a presigned PUT URL for a new object owned by the
// user.
func (c *Client) PresignUpload(ctx context.Context, userID uint, filename, contentType string) (*PresignedUpload, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectKey := ObjectKeyFor(userID, filename)

	req, err := c.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(c.config.PresignTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignedUpload{
		ObjectKey:   objectKey,
		URL:         req.URL,
		Method:      req.Method,
		ContentType: contentType,
		ExpiresIn:   c.config.PresignTTL,
	}, nil
}

// PresignDownload creates a presigned GET URL for an existing object.
func (c *Client) PresignDownload(ctx context.Context, objectKey string) (string, error) {
	req, err := c.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.Bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(c.config.PresignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, nil
}

// DeleteObject removes an object from the bucket.
func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	log.Infof("[Storage] Deleted: s3://%s/%s", c.config.Bucket, objectKey)
	return nil
}

// ObjectExists checks whether an object exists in the bucket.
func (c *Client) ObjectExists(ctx context.Context, objectKey string) (bool, error) {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.config.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}
