package refresh

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dashboard/internal/dashboard"
	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
	"github.com/spec-kit/helpdesk-dashboard/internal/events"
	"github.com/spec-kit/helpdesk-dashboard/internal/observability"
	"github.com/spec-kit/helpdesk-dashboard/internal/zammad"
)

// API is the subset of the helpdesk client the refresh loop needs.
type API interface {
	AllTickets(ctx context.Context) ([]domain.Ticket, error)
	States(ctx context.Context) ([]domain.State, error)
	Priorities(ctx context.Context) ([]domain.Priority, error)
	ArticleTypes(ctx context.Context) ([]domain.ArticleType, error)
	Users(ctx context.Context) ([]domain.User, error)
	CurrentUser(ctx context.Context) (*domain.User, error)
	User(ctx context.Context, id int) (domain.User, error)
}

// Status is the refresh state machine position.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Trigger names what started a cycle.
type Trigger string

const (
	TriggerStart      Trigger = "start"
	TriggerTimer      Trigger = "timer"
	TriggerManual     Trigger = "manual"
	TriggerForeground Trigger = "foreground"
)

var (
	// ErrCycleInFlight is returned for a timer tick that arrives while a
	// cycle is loading.
	ErrCycleInFlight = errors.New("refresh already in progress")
	// ErrSuperseded is returned by a cycle whose results were discarded
	// because a newer cycle started.
	ErrSuperseded = errors.New("refresh superseded by a newer cycle")
	// ErrStopped is returned once the loop has shut down.
	ErrStopped = errors.New("refresh loop stopped")
)

// Options configures an Orchestrator.
type Options struct {
	SessionID     string
	API           API
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	Interval      time.Duration
	CycleTimeout  time.Duration
	Location      *time.Location
	TicketURLBase string
	Filters       dashboard.Filters
	Now           func() time.Time
}

// StatusReport describes the loop for status endpoints.
type StatusReport struct {
	Status      Status     `json:"status"`
	Trigger     Trigger    `json:"trigger,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	Tickets     int        `json:"tickets"`
	Foreground  bool       `json:"foreground"`
	Generation  uint64     `json:"generation"`
}

type snapshot struct {
	tickets []domain.Ticket
	lookups dashboard.Lookups
}

// Orchestrator owns one session's refresh state: the current snapshot, the
// known ticket ids, the active filters and the rendered view. Everything is
// replaced wholesale per cycle.
type Orchestrator struct {
	opts   Options
	logger *zap.Logger

	mu          sync.RWMutex
	status      Status
	trigger     Trigger
	lastErr     error
	lastRefresh time.Time
	snap        *snapshot
	view        *dashboard.View
	filters     dashboard.Filters
	known       KnownTicketSet
	primed      bool
	foreground  bool
	generation  uint64
	inFlight    bool
	cancelCycle context.CancelFunc

	baseCtx context.Context
	stopped bool
	cycles  sync.WaitGroup
}

// New builds an idle orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.API == nil {
		return nil, errors.New("refresh: api is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("refresh: interval must be positive")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = events.NewInMemoryDispatcher()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Filters == (dashboard.Filters{}) {
		opts.Filters = dashboard.DefaultFilters(7)
	}
	return &Orchestrator{
		opts:       opts,
		logger:     opts.Logger.With(zap.String("session_id", opts.SessionID)),
		status:     StatusIdle,
		filters:    opts.Filters,
		foreground: true,
		baseCtx:    context.Background(),
	}, nil
}

// Run performs an initial cycle and then refreshes on every tick while in
// the foreground, until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	o.mu.Lock()
	o.baseCtx = ctx
	o.mu.Unlock()

	o.Trigger(TriggerStart)

	ticker := time.NewTicker(o.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			o.shutdown()
			return
		case <-ticker.C:
			if o.Foreground() {
				o.Trigger(TriggerTimer)
			}
		}
	}
}

func (o *Orchestrator) shutdown() {
	o.mu.Lock()
	o.stopped = true
	if o.cancelCycle != nil {
		o.cancelCycle()
	}
	o.mu.Unlock()
	o.cycles.Wait()
	o.logger.Debug("refresh loop stopped")
}

// Trigger starts a cycle in the background. It reports false when the loop
// has stopped.
func (o *Orchestrator) Trigger(trigger Trigger) bool {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return false
	}
	ctx := o.baseCtx
	o.cycles.Add(1)
	o.mu.Unlock()

	go func() {
		defer o.cycles.Done()
		err := o.Refresh(ctx, trigger)
		if err != nil && !errors.Is(err, ErrCycleInFlight) && !errors.Is(err, ErrSuperseded) {
			o.logger.Debug("refresh cycle failed", zap.String("trigger", string(trigger)), zap.Error(err))
		}
	}()
	return true
}

// Refresh runs one cycle in the caller's goroutine. A timer trigger is
// skipped while another cycle loads; any other trigger cancels the running
// cycle and supersedes it.
func (o *Orchestrator) Refresh(ctx context.Context, trigger Trigger) error {
	cycleCtx, generation, err := o.begin(ctx, trigger)
	if err != nil {
		return err
	}
	started := o.opts.Now()

	res := fetchAll(cycleCtx, o.opts.API)
	if err := res.hardError(); err != nil {
		return o.fail(generation, err, started)
	}

	lookups := dashboard.NewLookups(
		res.states.Value,
		res.priorities.Value,
		res.articleTypes.orElse([]domain.ArticleType{}),
		res.users.orElse([]domain.User{}),
		res.currentUser.orElse(nil),
	)
	for name, degradedErr := range res.degraded() {
		o.logger.Warn("optional fetch degraded", zap.String("resource", name), zap.Error(degradedErr))
	}
	if err := o.resolveOwners(cycleCtx, res.tickets.Value, &lookups); err != nil {
		return o.fail(generation, err, started)
	}

	return o.apply(generation, snapshot{tickets: res.tickets.Value, lookups: lookups}, started)
}

func (o *Orchestrator) begin(ctx context.Context, trigger Trigger) (context.Context, uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil, 0, ErrStopped
	}
	if o.inFlight {
		if trigger == TriggerTimer {
			return nil, 0, ErrCycleInFlight
		}
		o.cancelCycle()
	}

	var cycleCtx context.Context
	var cancel context.CancelFunc
	if o.opts.CycleTimeout > 0 {
		cycleCtx, cancel = context.WithTimeout(ctx, o.opts.CycleTimeout)
	} else {
		cycleCtx, cancel = context.WithCancel(ctx)
	}
	o.generation++
	o.inFlight = true
	o.cancelCycle = cancel
	o.status = StatusLoading
	o.trigger = trigger
	return cycleCtx, o.generation, nil
}

// end releases the in-flight slot if generation is still current. The
// caller must hold mu.
func (o *Orchestrator) end(generation uint64) bool {
	if generation != o.generation {
		return false
	}
	o.inFlight = false
	if o.cancelCycle != nil {
		o.cancelCycle()
		o.cancelCycle = nil
	}
	return true
}

func (o *Orchestrator) fail(generation uint64, cause error, started time.Time) error {
	took := o.opts.Now().Sub(started)
	o.mu.Lock()
	if !o.end(generation) {
		o.mu.Unlock()
		o.opts.Metrics.RecordRefresh("superseded", took)
		return ErrSuperseded
	}
	o.status = StatusError
	o.lastErr = cause
	o.mu.Unlock()

	if errors.Is(cause, zammad.ErrUnauthenticated) {
		o.opts.Metrics.RecordRefresh("unauthenticated", took)
		o.logger.Warn("helpdesk session expired", zap.Error(cause))
		o.publish(events.EventSessionExpired, events.SessionExpiredPayload{Reason: cause.Error()})
		return cause
	}
	o.opts.Metrics.RecordRefresh("error", took)
	o.logger.Error("refresh failed", zap.Error(cause))
	return cause
}

func (o *Orchestrator) apply(generation uint64, snap snapshot, started time.Time) error {
	now := o.opts.Now()
	took := now.Sub(started)

	o.mu.Lock()
	if !o.end(generation) {
		o.mu.Unlock()
		o.opts.Metrics.RecordRefresh("superseded", took)
		return ErrSuperseded
	}
	var arrivals []int
	if o.primed {
		arrivals = o.known.Arrivals(snap.tickets)
	}
	o.known = NewKnownTicketSet(snap.tickets)
	o.primed = true
	o.snap = &snap
	view := o.render(now)
	o.view = &view
	o.status = StatusReady
	o.lastErr = nil
	o.lastRefresh = now
	o.mu.Unlock()

	o.opts.Metrics.RecordRefresh("ok", took)
	o.logger.Debug("refresh applied",
		zap.Int("tickets", len(snap.tickets)),
		zap.Int("arrivals", len(arrivals)),
		zap.Duration("took", took))

	if len(arrivals) > 0 {
		o.opts.Metrics.RecordArrivals(len(arrivals))
		o.publish(events.EventTicketsArrived, events.TicketsArrivedPayload{TicketIDs: arrivals})
	}
	o.publish(events.EventDashboardRefreshed, events.DashboardRefreshedPayload{
		Tickets:  len(snap.tickets),
		Duration: took,
	})
	return nil
}

// render builds the view from the current snapshot. The caller must hold mu.
func (o *Orchestrator) render(now time.Time) dashboard.View {
	return dashboard.Render(dashboard.Input{
		Tickets:       o.snap.tickets,
		Lookups:       o.snap.lookups,
		Filters:       o.filters,
		Now:           now,
		Location:      o.opts.Location,
		TicketURLBase: o.opts.TicketURLBase,
	})
}

func (o *Orchestrator) publish(eventType events.EventType, payload interface{}) {
	event := events.NewEvent(eventType, o.opts.SessionID, payload)
	if err := o.opts.Dispatcher.Publish(context.Background(), event); err != nil {
		o.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

// resolveOwners looks up names for assigned owners missing from the user
// list. A failed lookup leaves the renderer's fallback name in place; an
// expired session fails the cycle.
func (o *Orchestrator) resolveOwners(ctx context.Context, tickets []domain.Ticket, lookups *dashboard.Lookups) error {
	listed := make(map[int]struct{}, len(lookups.Users))
	for _, u := range lookups.Users {
		listed[u.ID] = struct{}{}
	}
	var missing []int
	seen := map[int]struct{}{}
	for _, t := range tickets {
		if !t.IsAssigned() {
			continue
		}
		if _, ok := listed[t.OwnerID]; ok {
			continue
		}
		if _, ok := seen[t.OwnerID]; ok {
			continue
		}
		seen[t.OwnerID] = struct{}{}
		missing = append(missing, t.OwnerID)
	}
	sort.Ints(missing)

	for _, id := range missing {
		user, err := o.opts.API.User(ctx, id)
		if err != nil {
			if errors.Is(err, zammad.ErrUnauthenticated) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.logger.Debug("owner lookup failed", zap.Int("owner_id", id), zap.Error(err))
			continue
		}
		lookups.OwnerNames[id] = user.AgentName()
	}
	return nil
}

// SetFilters replaces the active filters and re-renders the current
// snapshot without fetching. It reports false when there is nothing to
// render yet.
func (o *Orchestrator) SetFilters(filters dashboard.Filters) (dashboard.View, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.filters = filters
	if o.snap == nil {
		return dashboard.View{}, false
	}
	view := o.render(o.opts.Now())
	o.view = &view
	return view, true
}

// Filters returns the active filters.
func (o *Orchestrator) Filters() dashboard.Filters {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.filters
}

// SetForeground records viewer visibility. Regaining the foreground after
// being hidden starts a cycle immediately.
func (o *Orchestrator) SetForeground(visible bool) bool {
	o.mu.Lock()
	was := o.foreground
	o.foreground = visible
	o.mu.Unlock()
	if visible && !was {
		return o.Trigger(TriggerForeground)
	}
	return false
}

// Foreground reports whether timer ticks refresh.
func (o *Orchestrator) Foreground() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.foreground
}

// View returns the last rendered view. Served views stay in place while a
// later cycle loads or fails.
func (o *Orchestrator) View() (dashboard.View, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.view == nil {
		return dashboard.View{}, false
	}
	return *o.view, true
}

// LastError is the error of the last failed cycle, cleared on success.
func (o *Orchestrator) LastError() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastErr
}

// Status reports the state machine.
func (o *Orchestrator) Status() StatusReport {
	o.mu.RLock()
	defer o.mu.RUnlock()
	report := StatusReport{
		Status:     o.status,
		Trigger:    o.trigger,
		Foreground: o.foreground,
		Generation: o.generation,
	}
	if o.lastErr != nil {
		report.LastError = o.lastErr.Error()
	}
	if !o.lastRefresh.IsZero() {
		at := o.lastRefresh
		report.LastRefresh = &at
	}
	if o.snap != nil {
		report.Tickets = len(o.snap.tickets)
	}
	return report
}
