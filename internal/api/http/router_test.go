package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dashboard/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-dashboard/internal/auth"
	"github.com/spec-kit/helpdesk-dashboard/internal/config"
	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
	"github.com/spec-kit/helpdesk-dashboard/internal/events"
	"github.com/spec-kit/helpdesk-dashboard/internal/observability"
	"github.com/spec-kit/helpdesk-dashboard/internal/refresh"
	"github.com/spec-kit/helpdesk-dashboard/internal/service"
	"github.com/spec-kit/helpdesk-dashboard/internal/zammad"
)

type stubHelpdesk struct {
	user      domain.User
	signInErr error
	gate      chan struct{}

	mu      sync.Mutex
	fetches int
}

func (s *stubHelpdesk) SignIn(ctx context.Context, login, password string) error {
	return s.signInErr
}

func (s *stubHelpdesk) TestConnection(ctx context.Context) (*domain.User, error) {
	u := s.user
	return &u, nil
}

func (s *stubHelpdesk) Logout(ctx context.Context) {}

func (s *stubHelpdesk) AllTickets(ctx context.Context) ([]domain.Ticket, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	s.fetches++
	s.mu.Unlock()
	now := time.Now().UTC()
	return []domain.Ticket{
		{ID: 1, Number: "1001", Title: "Printer", StateID: 1, PriorityID: 2, OwnerID: 1, CreatedAt: domain.NewTimestamp(now.Add(-time.Hour))},
		{ID: 2, Number: "1002", Title: "VPN", StateID: 2, PriorityID: 2, OwnerID: 42, CreatedAt: domain.NewTimestamp(now.Add(-2 * time.Hour))},
	}, nil
}

func (s *stubHelpdesk) States(ctx context.Context) ([]domain.State, error) {
	return []domain.State{{ID: 1, Name: "new"}, {ID: 2, Name: "open"}}, nil
}

func (s *stubHelpdesk) Priorities(ctx context.Context) ([]domain.Priority, error) {
	return []domain.Priority{{ID: 2, Name: "2 normal"}}, nil
}

func (s *stubHelpdesk) ArticleTypes(ctx context.Context) ([]domain.ArticleType, error) {
	return []domain.ArticleType{}, nil
}

func (s *stubHelpdesk) Users(ctx context.Context) ([]domain.User, error) {
	return []domain.User{s.user}, nil
}

func (s *stubHelpdesk) CurrentUser(ctx context.Context) (*domain.User, error) {
	u := s.user
	return &u, nil
}

func (s *stubHelpdesk) User(ctx context.Context, id int) (domain.User, error) {
	return domain.User{}, zammad.ErrForbidden
}

type testServer struct {
	app      *fiber.App
	sessions *service.SessionService
}

func newTestServer(t *testing.T, client *stubHelpdesk) *testServer {
	t.Helper()
	cfg := &config.Config{
		App:     config.AppConfig{Name: "helpdesk-dashboard", Version: "test", BasePath: "/dashboard"},
		Zammad:  config.ZammadConfig{URL: "https://support.example.com", PerPage: 100, MaxPages: 50},
		Refresh: config.RefreshConfig{IntervalSeconds: 3600, DefaultPeriodDays: 7, MaxPeriodDays: 90, Timezone: "UTC"},
	}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager("secret", 10)

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification, service.NotificationDependencies{})
	notifications.RegisterHandlers()
	sessions, err := service.NewSessionService(cfg, service.SessionDependencies{
		Logger:        logger,
		Metrics:       metrics,
		Dispatcher:    dispatcher,
		Tokens:        tokens,
		Notifications: notifications,
		ClientFactory: func(zammad.Options) (service.HelpdeskAPI, error) { return client, nil },
	})
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}
	sessions.RegisterHandlers()
	t.Cleanup(sessions.Shutdown)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		BasePath:       cfg.App.BasePath,
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, nil, nil, sessions),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(sessions, false),
		Dashboard:      handlers.NewDashboardHandler(sessions, logger, cfg.Refresh.MaxPeriodDays),
		Notifications:  handlers.NewNotificationsHandler(notifications),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, sessions),
	})
	return &testServer{app: app, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/dashboard/auth/login", "", map[string]string{"login": "ada", "password": "pw"})
	if status != http.StatusOK {
		t.Fatalf("login status %d: %v", status, body)
	}
	data := body["data"].(map[string]any)
	return data["auth"].(map[string]any)["token"].(string)
}

func (s *testServer) waitReady(t *testing.T) {
	t.Helper()
	session, ok := s.sessions.Current()
	if !ok {
		t.Fatal("no session")
	}
	o, err := s.sessions.Orchestrator(session.ID)
	if err != nil {
		t.Fatalf("Orchestrator: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for o.Status().Status != refresh.StatusReady {
		if time.Now().After(deadline) {
			t.Fatalf("dashboard never became ready: %+v", o.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func errorCode(body map[string]any) string {
	errBody, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errBody["code"].(string)
	return code
}

func agentUser() domain.User {
	return domain.User{ID: 42, Firstname: "Ada", Lastname: "Lovelace", RoleIDs: []int{domain.RoleAgent}}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubHelpdesk{user: agentUser()})

	status, body := srv.do(t, http.MethodGet, "/dashboard/health/live", "", nil)
	if status != http.StatusOK || body["status"] != "alive" {
		t.Fatalf("live: %d %v", status, body)
	}

	status, body = srv.do(t, http.MethodGet, "/dashboard/health/ready", "", nil)
	if status != http.StatusOK {
		t.Fatalf("ready: %d %v", status, body)
	}
	deps := body["dependencies"].(map[string]any)
	if deps["postgres"] != "disabled" || deps["redis"] != "disabled" || deps["session"] != "none" {
		t.Fatalf("unexpected dependencies %v", deps)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, &stubHelpdesk{user: agentUser()})

	status, body := srv.do(t, http.MethodGet, "/dashboard/api/dashboard", "", nil)
	if status != http.StatusUnauthorized || errorCode(body) != "UNAUTHENTICATED" {
		t.Fatalf("expected 401, got %d %v", status, body)
	}
	details := body["error"].(map[string]any)["details"].(map[string]any)
	if details["redirect"] != "/#login" {
		t.Fatalf("expected login redirect, got %v", details)
	}

	status, _ = srv.do(t, http.MethodGet, "/dashboard/api/me", "not-a-token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", status)
	}
}

func TestLoginErrors(t *testing.T) {
	srv := newTestServer(t, &stubHelpdesk{user: agentUser(), signInErr: zammad.ErrUnauthenticated})
	status, body := srv.do(t, http.MethodPost, "/dashboard/auth/login", "", map[string]string{"login": "ada", "password": "bad"})
	if status != http.StatusUnauthorized || body["error"].(map[string]any)["message"] != "invalid credentials" {
		t.Fatalf("expected invalid credentials, got %d %v", status, body)
	}

	status, body = srv.do(t, http.MethodPost, "/dashboard/auth/login", "", map[string]string{"login": "ada"})
	if status != http.StatusBadRequest || errorCode(body) != "VALIDATION_FAILED" {
		t.Fatalf("expected validation error, got %d %v", status, body)
	}

	customer := newTestServer(t, &stubHelpdesk{user: domain.User{ID: 9, RoleIDs: []int{3}}})
	status, body = customer.do(t, http.MethodPost, "/dashboard/auth/login", "", map[string]string{"login": "c", "password": "pw"})
	if status != http.StatusForbidden || errorCode(body) != "FORBIDDEN" {
		t.Fatalf("expected 403 for customer, got %d %v", status, body)
	}
}

func TestDashboardFlow(t *testing.T) {
	client := &stubHelpdesk{user: agentUser()}
	srv := newTestServer(t, client)
	token := srv.login(t)
	srv.waitReady(t)

	status, body := srv.do(t, http.MethodGet, "/dashboard/api/dashboard", token, nil)
	if status != http.StatusOK {
		t.Fatalf("dashboard: %d %v", status, body)
	}
	data := body["data"].(map[string]any)
	if data["stale"] != false {
		t.Fatalf("expected live view, got %v", data["stale"])
	}
	kpi := data["view"].(map[string]any)["kpi"].(map[string]any)
	if kpi["total"] != float64(2) || kpi["open"] != float64(1) || kpi["new"] != float64(1) {
		t.Fatalf("unexpected kpi %v", kpi)
	}

	status, body = srv.do(t, http.MethodGet, "/dashboard/api/tickets/mine", token, nil)
	if status != http.StatusOK {
		t.Fatalf("mine: %d %v", status, body)
	}
	mine := body["data"].(map[string]any)
	if mine["total"] != float64(1) {
		t.Fatalf("expected one ticket of mine, got %v", mine)
	}

	status, body = srv.do(t, http.MethodGet, "/dashboard/api/me", token, nil)
	if status != http.StatusOK || body["data"].(map[string]any)["initials"] != "AL" {
		t.Fatalf("me: %d %v", status, body)
	}

	for _, path := range []string{"kpi", "trends", "priorities", "channels", "agents"} {
		if status, body := srv.do(t, http.MethodGet, "/dashboard/api/dashboard/"+path, token, nil); status != http.StatusOK {
			t.Fatalf("%s: %d %v", path, status, body)
		}
	}
}

func TestUpdateFilters(t *testing.T) {
	client := &stubHelpdesk{user: agentUser()}
	srv := newTestServer(t, client)
	token := srv.login(t)
	srv.waitReady(t)

	status, body := srv.do(t, http.MethodPut, "/dashboard/api/filters", token, map[string]any{"trend_days": 0})
	if status != http.StatusBadRequest || errorCode(body) != "VALIDATION_FAILED" {
		t.Fatalf("expected validation error, got %d %v", status, body)
	}

	client.mu.Lock()
	before := client.fetches
	client.mu.Unlock()

	status, body = srv.do(t, http.MethodPut, "/dashboard/api/filters", token, map[string]any{"trend_days": 30, "channel": ""})
	if status != http.StatusOK {
		t.Fatalf("filters: %d %v", status, body)
	}
	view := body["data"].(map[string]any)
	filters := view["filters"].(map[string]any)
	if filters["trend_days"] != float64(30) || filters["priority_days"] != float64(7) || filters["channel"] != "all" {
		t.Fatalf("unexpected filters %v", filters)
	}
	if days := view["trend"].(map[string]any)["days"]; days != float64(30) {
		t.Fatalf("expected 30 day trend, got %v", days)
	}

	client.mu.Lock()
	after := client.fetches
	client.mu.Unlock()
	if after != before {
		t.Fatal("filter change must not fetch")
	}
}

func TestRefreshAndVisibility(t *testing.T) {
	srv := newTestServer(t, &stubHelpdesk{user: agentUser()})
	token := srv.login(t)
	srv.waitReady(t)

	status, body := srv.do(t, http.MethodPost, "/dashboard/api/refresh", token, nil)
	if status != http.StatusAccepted {
		t.Fatalf("refresh: %d %v", status, body)
	}

	status, body = srv.do(t, http.MethodPost, "/dashboard/api/visibility", token, map[string]bool{"visible": false})
	if status != http.StatusOK || body["data"].(map[string]any)["foreground"] != false {
		t.Fatalf("visibility: %d %v", status, body)
	}

	status, body = srv.do(t, http.MethodGet, "/dashboard/api/status", token, nil)
	if status != http.StatusOK || body["data"].(map[string]any)["foreground"] != false {
		t.Fatalf("status: %d %v", status, body)
	}
}

func TestDashboardLoadingBeforeFirstCycle(t *testing.T) {
	client := &stubHelpdesk{user: agentUser(), gate: make(chan struct{})}
	srv := newTestServer(t, client)
	token := srv.login(t)

	status, body := srv.do(t, http.MethodGet, "/dashboard/api/dashboard", token, nil)
	if status != http.StatusServiceUnavailable || errorCode(body) != "SERVICE_UNAVAILABLE" {
		t.Fatalf("expected 503 while loading, got %d %v", status, body)
	}

	close(client.gate)
	srv.waitReady(t)
	if status, _ := srv.do(t, http.MethodGet, "/dashboard/api/dashboard", token, nil); status != http.StatusOK {
		t.Fatalf("expected view after first cycle, got %d", status)
	}
}

func TestNotificationsEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubHelpdesk{user: agentUser()})
	token := srv.login(t)

	status, body := srv.do(t, http.MethodGet, "/dashboard/api/notifications", token, nil)
	if status != http.StatusOK || body["data"].(map[string]any)["unread"] != float64(0) {
		t.Fatalf("notifications: %d %v", status, body)
	}

	status, body = srv.do(t, http.MethodDelete, "/dashboard/api/notifications/missing", token, nil)
	if status != http.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d %v", status, body)
	}

	status, body = srv.do(t, http.MethodGet, "/dashboard/api/notifications/history", token, nil)
	if status != http.StatusOK {
		t.Fatalf("history: %d %v", status, body)
	}
	if items, ok := body["data"].([]any); !ok || len(items) != 0 {
		t.Fatalf("expected empty history, got %v", body["data"])
	}

	status, _ = srv.do(t, http.MethodGet, "/dashboard/api/notifications/history?limit=500", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", status)
	}

	status, _ = srv.do(t, http.MethodPost, "/dashboard/api/notifications/read", token, nil)
	if status != http.StatusOK {
		t.Fatalf("mark read: %d", status)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	srv := newTestServer(t, &stubHelpdesk{user: agentUser()})
	token := srv.login(t)

	status, _ := srv.do(t, http.MethodPost, "/dashboard/auth/logout", token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("logout: %d", status)
	}
	if _, ok := srv.sessions.Current(); ok {
		t.Fatal("expected session discarded")
	}
	status, _ = srv.do(t, http.MethodGet, "/dashboard/api/me", token, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubHelpdesk{user: agentUser()})
	srv.do(t, http.MethodGet, "/dashboard/health/live", "", nil)

	status, body := srv.do(t, http.MethodGet, "/dashboard/metrics", "", nil)
	if status != http.StatusOK {
		t.Fatalf("metrics: %d %v", status, body)
	}
	if _, ok := body["data"].(map[string]any)["requests"]; !ok {
		t.Fatalf("expected request counters, got %v", body)
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	srv := newTestServer(t, &stubHelpdesk{user: agentUser()})
	status, body := srv.do(t, http.MethodGet, "/dashboard/health/nope", "", nil)
	if status != http.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d %v", status, body)
	}
}
