package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dashboard/internal/api/dto"
	"github.com/spec-kit/helpdesk-dashboard/internal/auth"
	"github.com/spec-kit/helpdesk-dashboard/internal/dashboard"
	"github.com/spec-kit/helpdesk-dashboard/internal/refresh"
	"github.com/spec-kit/helpdesk-dashboard/internal/service"
	apperrors "github.com/spec-kit/helpdesk-dashboard/pkg/util/errorutil"
)

// DashboardHandler serves rendered views and drives the refresh loop.
type DashboardHandler struct {
	sessions      *service.SessionService
	logger        *zap.Logger
	maxPeriodDays int
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(sessions *service.SessionService, logger *zap.Logger, maxPeriodDays int) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{sessions: sessions, logger: logger, maxPeriodDays: maxPeriodDays}
}

func (h *DashboardHandler) orchestrator(c *fiber.Ctx) (*refresh.Orchestrator, string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, "", apperrors.NewUnauthenticated("authentication required")
	}
	o, err := h.sessions.Orchestrator(principal.Session.ID)
	if err != nil {
		return nil, "", sessionError(err)
	}
	return o, principal.Session.ID, nil
}

// currentView returns the live view, else the last cached one.
func (h *DashboardHandler) currentView(c *fiber.Ctx) (dto.DashboardResponse, error) {
	o, sessionID, err := h.orchestrator(c)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	status := o.Status()
	if view, ok := o.View(); ok {
		return dto.DashboardResponse{View: view, Status: status}, nil
	}

	cached, ok, err := h.sessions.CachedView(c.UserContext(), sessionID)
	if err != nil {
		h.logger.Warn("load cached dashboard view", zap.String("session_id", sessionID), zap.Error(err))
	}
	if ok {
		storedAt := cached.StoredAt
		return dto.DashboardResponse{View: cached.View, Status: status, Stale: true, StoredAt: &storedAt}, nil
	}
	if lastErr := o.LastError(); lastErr != nil {
		return dto.DashboardResponse{}, sessionError(lastErr)
	}
	return dto.DashboardResponse{}, apperrors.NewServiceUnavailable("dashboard is loading", map[string]any{
		"status": status.Status,
	})
}

func (h *DashboardHandler) section(c *fiber.Ctx, pick func(dashboard.View) any) error {
	resp, err := h.currentView(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pick(resp.View), "stale": resp.Stale})
}

// Dashboard GET /api/dashboard.
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	resp, err := h.currentView(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": resp})
}

// KPI GET /api/dashboard/kpi.
func (h *DashboardHandler) KPI(c *fiber.Ctx) error {
	return h.section(c, func(v dashboard.View) any { return v.KPI })
}

// Trends GET /api/dashboard/trends.
func (h *DashboardHandler) Trends(c *fiber.Ctx) error {
	return h.section(c, func(v dashboard.View) any { return v.Trend })
}

// Priorities GET /api/dashboard/priorities.
func (h *DashboardHandler) Priorities(c *fiber.Ctx) error {
	return h.section(c, func(v dashboard.View) any { return v.Priorities })
}

// Channels GET /api/dashboard/channels.
func (h *DashboardHandler) Channels(c *fiber.Ctx) error {
	return h.section(c, func(v dashboard.View) any { return v.Channels })
}

// Agents GET /api/dashboard/agents.
func (h *DashboardHandler) Agents(c *fiber.Ctx) error {
	return h.section(c, func(v dashboard.View) any { return v.Agents })
}

// RecentTickets GET /api/tickets/recent.
func (h *DashboardHandler) RecentTickets(c *fiber.Ctx) error {
	return h.section(c, func(v dashboard.View) any { return v.Recent })
}

// MyTickets GET /api/tickets/mine.
func (h *DashboardHandler) MyTickets(c *fiber.Ctx) error {
	return h.section(c, func(v dashboard.View) any { return v.Mine })
}

// EscalatedTickets GET /api/tickets/escalated.
func (h *DashboardHandler) EscalatedTickets(c *fiber.Ctx) error {
	return h.section(c, func(v dashboard.View) any { return v.Escalated })
}

// Status GET /api/status.
func (h *DashboardHandler) Status(c *fiber.Ctx) error {
	o, _, err := h.orchestrator(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": o.Status()})
}

// UpdateFilters PUT /api/filters.
func (h *DashboardHandler) UpdateFilters(c *fiber.Ctx) error {
	o, _, err := h.orchestrator(c)
	if err != nil {
		return err
	}
	var req dto.FiltersRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	filters := o.Filters()
	invalid := map[string]any{}
	h.applyDays(&filters.TrendDays, req.TrendDays, "trend_days", invalid)
	h.applyDays(&filters.PriorityDays, req.PriorityDays, "priority_days", invalid)
	h.applyDays(&filters.ChannelDays, req.ChannelDays, "channel_days", invalid)
	if len(invalid) > 0 {
		return apperrors.NewValidationError("invalid period", invalid)
	}
	applyChoice(&filters.Priority, req.Priority)
	applyChoice(&filters.Channel, req.Channel)

	view, ok := o.SetFilters(filters)
	if !ok {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"filters": filters}})
	}
	return c.JSON(fiber.Map{"data": view})
}

func (h *DashboardHandler) applyDays(dst *int, val *int, field string, invalid map[string]any) {
	if val == nil {
		return
	}
	if *val < 1 || *val > h.maxPeriodDays {
		invalid[field] = fmt.Sprintf("must be between 1 and %d", h.maxPeriodDays)
		return
	}
	*dst = *val
}

func applyChoice(dst *string, val *string) {
	if val == nil {
		return
	}
	choice := strings.TrimSpace(*val)
	if choice == "" {
		choice = dashboard.FilterAll
	}
	*dst = choice
}

// Refresh POST /api/refresh.
func (h *DashboardHandler) Refresh(c *fiber.Ctx) error {
	o, _, err := h.orchestrator(c)
	if err != nil {
		return err
	}
	if !o.Trigger(refresh.TriggerManual) {
		return apperrors.NewUnauthenticated("session expired")
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": o.Status()})
}

// Visibility POST /api/visibility.
func (h *DashboardHandler) Visibility(c *fiber.Ctx) error {
	o, _, err := h.orchestrator(c)
	if err != nil {
		return err
	}
	var req dto.VisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	refreshing := o.SetForeground(req.Visible)
	return c.JSON(fiber.Map{"data": fiber.Map{
		"foreground": req.Visible,
		"refreshing": refreshing,
	}})
}
