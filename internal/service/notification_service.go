package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dashboard/internal/config"
	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
	"github.com/spec-kit/helpdesk-dashboard/internal/events"
	"github.com/spec-kit/helpdesk-dashboard/internal/persistence"
	"github.com/spec-kit/helpdesk-dashboard/internal/repository"
	"github.com/spec-kit/helpdesk-dashboard/internal/worker"
)

const (
	alertTitle      = "Ticket Alert"
	alertBodyFormat = "%d new ticket(s) have arrived on the portal."

	permissionGranted = "granted"
)

// NotificationService turns ticket arrivals into a toast, an optional OS
// notification and best-effort fan-out. Nothing it does can fail a refresh.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	toasts     *ToastCenter
	desktop    DesktopNotifier
	worker     *worker.NotificationWorker
	redis      *persistence.Redis
	arrivals   repository.ArrivalRepository
}

// NotificationDependencies bundles optional collaborators. Any of them may
// be nil.
type NotificationDependencies struct {
	Desktop  DesktopNotifier
	Worker   *worker.NotificationWorker
	Redis    *persistence.Redis
	Arrivals repository.ArrivalRepository
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		toasts:     NewToastCenter(cfg.ToastTTL()),
		desktop:    deps.Desktop,
		worker:     deps.Worker,
		redis:      deps.Redis,
		arrivals:   deps.Arrivals,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketsArrived, n.handleTicketsArrived)
}

// Toasts exposes the in-app toast center.
func (n *NotificationService) Toasts() *ToastCenter {
	return n.toasts
}

// History lists recent arrival batches from the arrival log.
func (n *NotificationService) History(ctx context.Context, limit int) ([]domain.Arrival, error) {
	if n.arrivals == nil {
		return []domain.Arrival{}, nil
	}
	return n.arrivals.ListRecent(ctx, limit)
}

func (n *NotificationService) handleTicketsArrived(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketsArrivedPayload)
	if !ok || payload.Count() == 0 {
		return nil
	}
	count := payload.Count()
	body := fmt.Sprintf(alertBodyFormat, count)

	toast := n.toasts.Push(alertTitle, body, count)
	n.logger.Info("TicketsArrived",
		zap.String("session_id", event.SessionID),
		zap.Int("count", count),
		zap.Ints("ticket_ids", payload.TicketIDs))

	n.sendDesktopNotification(DesktopNotification{Title: alertTitle, Body: body, Count: count})
	n.publishToast(toast)
	n.recordArrival(event.SessionID, payload.TicketIDs)
	return nil
}

func (n *NotificationService) sendDesktopNotification(notification DesktopNotification) {
	if n.cfg.OSPermission != permissionGranted {
		n.logger.Debug("os notification skipped", zap.String("permission", n.cfg.OSPermission))
		return
	}
	if n.desktop == nil {
		n.logger.Debug("os notification skipped; no desktop notifier configured")
		return
	}
	n.dispatch(worker.Job{Name: "desktop_notification", Run: func(ctx context.Context) error {
		return n.desktop.Notify(ctx, notification)
	}})
}

func (n *NotificationService) publishToast(toast Toast) {
	if !n.redis.Enabled() || n.cfg.Channel == "" {
		return
	}
	n.dispatch(worker.Job{Name: "toast_fanout", Run: func(ctx context.Context) error {
		payload, err := json.Marshal(toast)
		if err != nil {
			return err
		}
		return n.redis.Client.Publish(ctx, n.cfg.Channel, payload).Err()
	}})
}

func (n *NotificationService) recordArrival(sessionID string, ticketIDs []int) {
	if n.arrivals == nil {
		return
	}
	arrival := &domain.Arrival{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		TicketIDs: ticketIDs,
		Count:     len(ticketIDs),
	}
	n.dispatch(worker.Job{Name: "arrival_log", Run: func(ctx context.Context) error {
		return n.arrivals.Create(ctx, arrival)
	}})
}

// dispatch hands a job to the worker, or runs it inline without one.
func (n *NotificationService) dispatch(job worker.Job) {
	if n.worker != nil {
		n.worker.Enqueue(job)
		return
	}
	if err := job.Run(context.Background()); err != nil {
		n.logger.Warn("notification job failed", zap.String("job", job.Name), zap.Error(err))
	}
}
