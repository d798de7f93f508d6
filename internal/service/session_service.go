package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dashboard/internal/auth"
	"github.com/spec-kit/helpdesk-dashboard/internal/cache"
	"github.com/spec-kit/helpdesk-dashboard/internal/config"
	"github.com/spec-kit/helpdesk-dashboard/internal/dashboard"
	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
	"github.com/spec-kit/helpdesk-dashboard/internal/events"
	"github.com/spec-kit/helpdesk-dashboard/internal/observability"
	"github.com/spec-kit/helpdesk-dashboard/internal/refresh"
	"github.com/spec-kit/helpdesk-dashboard/internal/zammad"
)

var (
	// ErrNoSession means there is no live session, or the caller's session
	// has been replaced or has expired.
	ErrNoSession = errors.New("no active session")
	// ErrNotAgent means the account is not an agent or admin.
	ErrNotAgent = errors.New("dashboard requires an agent or admin account")
	// ErrNoSessionCookie means there is no configured session to resume.
	ErrNoSessionCookie = errors.New("no helpdesk session cookie configured")
	// ErrMissingCredentials means login or password was empty.
	ErrMissingCredentials = errors.New("login and password are required")
)

// HelpdeskAPI is the helpdesk client as used by a session.
type HelpdeskAPI interface {
	refresh.API
	SignIn(ctx context.Context, login, password string) error
	TestConnection(ctx context.Context) (*domain.User, error)
	Logout(ctx context.Context)
}

// ClientFactory builds a helpdesk client.
type ClientFactory func(opts zammad.Options) (HelpdeskAPI, error)

// ZammadClientFactory builds real API clients.
func ZammadClientFactory(opts zammad.Options) (HelpdeskAPI, error) {
	client, err := zammad.New(opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// LoginResult is a started session and the viewer token bound to it.
type LoginResult struct {
	Session   domain.Session
	Token     string
	ExpiresAt time.Time
}

type activeSession struct {
	session      domain.Session
	api          HelpdeskAPI
	orchestrator *refresh.Orchestrator
	cancel       context.CancelFunc
	done         chan struct{}
}

// SessionService owns the single live helpdesk session and its refresh
// loop.
type SessionService struct {
	cfg           *config.Config
	logger        *zap.Logger
	metrics       *observability.Metrics
	dispatcher    events.Dispatcher
	tokens        *auth.TokenManager
	notifications *NotificationService
	views         *cache.ViewCache
	newClient     ClientFactory
	location      *time.Location

	mu      sync.RWMutex
	current *activeSession
}

// SessionDependencies bundles collaborators of the session service.
type SessionDependencies struct {
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	Dispatcher    events.Dispatcher
	Tokens        *auth.TokenManager
	Notifications *NotificationService
	Views         *cache.ViewCache
	ClientFactory ClientFactory
}

// NewSessionService builds the service.
func NewSessionService(cfg *config.Config, deps SessionDependencies) (*SessionService, error) {
	loc, err := cfg.Refresh.Location()
	if err != nil {
		return nil, err
	}
	if deps.ClientFactory == nil {
		deps.ClientFactory = ZammadClientFactory
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = events.NewInMemoryDispatcher()
	}
	return &SessionService{
		cfg:           cfg,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		dispatcher:    deps.Dispatcher,
		tokens:        deps.Tokens,
		notifications: deps.Notifications,
		views:         deps.Views,
		newClient:     deps.ClientFactory,
		location:      loc,
	}, nil
}

// RegisterHandlers subscribes to session-relevant events.
func (s *SessionService) RegisterHandlers() {
	s.dispatcher.Subscribe(events.EventSessionExpired, s.handleSessionExpired)
	s.dispatcher.Subscribe(events.EventDashboardRefreshed, s.handleDashboardRefreshed)
}

// Login signs in to the helpdesk, verifies the account may use the
// dashboard and replaces any current session.
func (s *SessionService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	api, err := s.newClient(s.clientOptions(""))
	if err != nil {
		return nil, err
	}
	if err := api.SignIn(ctx, login, password); err != nil {
		return nil, err
	}
	user, err := s.verify(ctx, api)
	if err != nil {
		return nil, err
	}

	session, err := s.start(api, *user)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.tokens.GenerateToken(session)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session, Token: token, ExpiresAt: exp}, nil
}

// Resume starts a session from the configured helpdesk session cookie.
func (s *SessionService) Resume(ctx context.Context) (*domain.Session, error) {
	if s.cfg.Zammad.SessionCookie == "" {
		return nil, ErrNoSessionCookie
	}
	api, err := s.newClient(s.clientOptions(s.cfg.Zammad.SessionCookie))
	if err != nil {
		return nil, err
	}
	user, err := s.verify(ctx, api)
	if err != nil {
		return nil, err
	}
	session, err := s.start(api, *user)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// IssueToken issues a viewer token for the current session.
func (s *SessionService) IssueToken() (string, time.Time, error) {
	active, err := s.active("")
	if err != nil {
		return "", time.Time{}, err
	}
	return s.tokens.GenerateToken(active.session)
}

func (s *SessionService) verify(ctx context.Context, api HelpdeskAPI) (*domain.User, error) {
	user, err := api.TestConnection(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAgentOrAdmin() {
		api.Logout(ctx)
		return nil, ErrNotAgent
	}
	return user, nil
}

func (s *SessionService) clientOptions(cookie string) zammad.Options {
	return zammad.Options{
		BaseURL:       s.cfg.Zammad.URL,
		SessionCookie: cookie,
		PerPage:       s.cfg.Zammad.PerPage,
		MaxPages:      s.cfg.Zammad.MaxPages,
		Timeout:       s.cfg.Zammad.Timeout(),
		Logger:        s.logger,
	}
}

func (s *SessionService) start(api HelpdeskAPI, user domain.User) (domain.Session, error) {
	session := domain.Session{ID: uuid.NewString(), User: user, StartedAt: time.Now().UTC()}
	orchestrator, err := refresh.New(refresh.Options{
		SessionID:     session.ID,
		API:           api,
		Dispatcher:    s.dispatcher,
		Logger:        s.logger,
		Metrics:       s.metrics,
		Interval:      s.cfg.Refresh.Interval(),
		CycleTimeout:  s.cfg.Refresh.CycleTimeout(),
		Location:      s.location,
		TicketURLBase: s.cfg.Zammad.LinkBase(),
		Filters:       dashboard.DefaultFilters(s.cfg.Refresh.DefaultPeriodDays),
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("build refresh loop: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	next := &activeSession{
		session:      session,
		api:          api,
		orchestrator: orchestrator,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	s.mu.Lock()
	previous := s.current
	s.current = next
	s.mu.Unlock()

	if previous != nil {
		s.stop(previous, true)
	}
	if s.notifications != nil {
		s.notifications.Toasts().Reset()
	}

	go func() {
		defer close(next.done)
		orchestrator.Run(ctx)
	}()
	s.logger.Info("dashboard session started",
		zap.String("session_id", session.ID),
		zap.Int("user_id", user.ID),
		zap.String("role", user.RoleLabel()))
	return session, nil
}

// stop cancels the refresh loop, optionally waiting for it to finish.
func (s *SessionService) stop(active *activeSession, wait bool) {
	active.cancel()
	if wait {
		<-active.done
	}
}

// detach removes the session if it is still current.
func (s *SessionService) detach(sessionID string) *activeSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.session.ID != sessionID {
		return nil
	}
	active := s.current
	s.current = nil
	return active
}

// Logout signs out of the helpdesk and discards the session state. Helpdesk
// failures are swallowed.
func (s *SessionService) Logout(ctx context.Context, sessionID string) {
	active := s.detach(sessionID)
	if active == nil {
		return
	}
	active.api.Logout(ctx)
	s.stop(active, true)
	if s.notifications != nil {
		s.notifications.Toasts().Reset()
	}
	s.logger.Info("dashboard session ended", zap.String("session_id", sessionID))
}

// Shutdown stops any live session without signing out of the helpdesk.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	active := s.current
	s.current = nil
	s.mu.Unlock()
	if active != nil {
		s.stop(active, true)
	}
}

// handleSessionExpired runs on the refresh goroutine of the expiring
// session, so it must not wait for that loop to stop.
func (s *SessionService) handleSessionExpired(ctx context.Context, event events.Event) error {
	active := s.detach(event.SessionID)
	if active == nil {
		return nil
	}
	s.stop(active, false)
	if s.notifications != nil {
		s.notifications.Toasts().Reset()
	}
	s.logger.Warn("dashboard session expired", zap.String("session_id", event.SessionID))
	return nil
}

func (s *SessionService) handleDashboardRefreshed(ctx context.Context, event events.Event) error {
	if !s.views.Enabled() {
		return nil
	}
	active, err := s.active(event.SessionID)
	if err != nil {
		return nil
	}
	view, ok := active.orchestrator.View()
	if !ok {
		return nil
	}
	storeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.views.Store(storeCtx, active.session.User.ID, view); err != nil {
		s.logger.Warn("cache dashboard view", zap.Error(err))
	}
	return nil
}

func (s *SessionService) active(sessionID string) (*activeSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoSession
	}
	if sessionID != "" && s.current.session.ID != sessionID {
		return nil, ErrNoSession
	}
	return s.current, nil
}

// Current returns the live session.
func (s *SessionService) Current() (domain.Session, bool) {
	active, err := s.active("")
	if err != nil {
		return domain.Session{}, false
	}
	return active.session, true
}

// Orchestrator returns the refresh loop of sessionID.
func (s *SessionService) Orchestrator(sessionID string) (*refresh.Orchestrator, error) {
	active, err := s.active(sessionID)
	if err != nil {
		return nil, err
	}
	return active.orchestrator, nil
}

// Profile returns the header summary for sessionID.
func (s *SessionService) Profile(sessionID string) (domain.Profile, error) {
	active, err := s.active(sessionID)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.ProfileOf(active.session.User), nil
}

// CachedView returns the last view stored for the session's user, used
// before the first cycle of a session completes.
func (s *SessionService) CachedView(ctx context.Context, sessionID string) (cache.CachedView, bool, error) {
	active, err := s.active(sessionID)
	if err != nil {
		return cache.CachedView{}, false, err
	}
	return s.views.Load(ctx, active.session.User.ID)
}
