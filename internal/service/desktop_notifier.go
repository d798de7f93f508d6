package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DesktopNotification is an OS-level notification.
type DesktopNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Count int    `json:"count"`
}

// DesktopNotifier delivers OS-level notifications.
type DesktopNotifier interface {
	Notify(ctx context.Context, n DesktopNotification) error
}

// WebhookNotifier posts notifications as JSON to a desktop bridge.
type WebhookNotifier struct {
	url     string
	timeout time.Duration
}

// NewWebhookNotifier builds a notifier for url.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{url: url, timeout: timeout}
}

// Notify posts n and fails on transport errors or a non-2xx reply.
func (w *WebhookNotifier) Notify(ctx context.Context, n DesktopNotification) error {
	timeout := w.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	agent := fiber.Post(w.url)
	agent.JSON(n)
	agent.Timeout(timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("post desktop notification: %w", errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("desktop notification webhook returned %d: %s", code, body)
	}
	return nil
}
