package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/launchkit/launchkit/internal/pkg/metrics/counter"
)

// HandleWebhookCounters returns the per-provider webhook delivery counters
// for the admin dashboard.
func HandleWebhookCounters(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := counter.Snapshot(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	return c.JSON(fiber.Map{
		"received":  counts.Received,
		"processed": counts.Processed,
		"failed":    counts.Failed,
		"rejected":  counts.Rejected,
	})
}
