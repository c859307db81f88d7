package controllers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/launchkit/launchkit/internal/pkg/storage"
	"github.com/launchkit/launchkit/internal/pkg/upload"
	"github.com/launchkit/launchkit/internal/pkg/usercontext"
)

var (
	storageOnce   sync.Once
	storageClient *storage.Client
)

func ensureStorage() *storage.Client {
	storageOnce.Do(func() {
		cfg := storage.ConfigFromEnv()
		if !cfg.IsEnabled() {
			fiberlog.Warn("[Storage] Object storage not configured; upload endpoints disabled")
			return
		}
		client, err := storage.NewClient(cfg)
		if err != nil {
			fiberlog.Errorf("[Storage] Failed to initialize client: %v", err)
			return
		}
		storageClient = client
	})
	return storageClient
}

// HandleCreateUploadURL issues a presigned direct-to-bucket upload URL.
// Request: JSON { "filename": string, "content_type": string }
// Response: { object_key, url, method, content_type, expires_at }
func HandleCreateUploadURL(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	client := ensureStorage()
	if client == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "object storage not configured"})
	}

	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "filename missing"})
	}
	contentType, err := upload.ValidatePresignRequest(req.Filename, req.ContentType)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	presigned, err := client.PresignUpload(ctx, user.UserID, req.Filename, contentType)
	if err != nil {
		fiberlog.Errorf("[Storage] Presign upload for user %d failed: %v", user.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create upload URL"})
	}

	return c.JSON(fiber.Map{
		"object_key":   presigned.ObjectKey,
		"url":          presigned.URL,
		"method":       presigned.Method,
		"content_type": presigned.ContentType,
		"expires_at":   time.Now().Add(presigned.ExpiresIn).Unix(),
	})
}

// HandleCreateDownloadURL issues a presigned download URL for an object the
// user owns.
// Request: JSON { "object_key": string }
func HandleCreateDownloadURL(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	client := ensureStorage()
	if client == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "object storage not configured"})
	}

	var req struct {
		ObjectKey string `json:"object_key"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if !storage.ObjectKeyBelongsTo(user.UserID, req.ObjectKey) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url, err := client.PresignDownload(ctx, req.ObjectKey)
	if err != nil {
		fiberlog.Errorf("[Storage] Presign download for user %d failed: %v", user.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create download URL"})
	}

	return c.JSON(fiber.Map{"url": url})
}
