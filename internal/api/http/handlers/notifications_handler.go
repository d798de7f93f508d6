package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-dashboard/internal/service"
	apperrors "github.com/spec-kit/helpdesk-dashboard/pkg/util/errorutil"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// NotificationsHandler exposes toasts, the unread badge and arrival history.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /api/notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.notifications.Toasts().State()})
}

// MarkRead POST /api/notifications/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	toasts := h.notifications.Toasts()
	toasts.MarkRead()
	return c.JSON(fiber.Map{"data": toasts.State()})
}

// Dismiss DELETE /api/notifications/:id.
func (h *NotificationsHandler) Dismiss(c *fiber.Ctx) error {
	id := c.Params("id")
	if !h.notifications.Toasts().Dismiss(id) {
		return apperrors.NewNotFound("notification", map[string]any{"id": id})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// History GET /api/notifications/history.
func (h *NotificationsHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit < 1 || limit > maxHistoryLimit {
		return apperrors.NewValidationError("invalid limit", map[string]any{"max": maxHistoryLimit})
	}
	arrivals, err := h.notifications.History(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": arrivals})
}
