package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one best-effort delivery step.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// NotificationWorker runs delivery jobs off the refresh path. Failures are
// logged and dropped.
type NotificationWorker struct {
	jobs    chan Job
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// StartNotificationWorker starts the delivery goroutine. It stops when ctx
// is cancelled.
func StartNotificationWorker(ctx context.Context, logger *zap.Logger, buffer int, timeout time.Duration) *NotificationWorker {
	if buffer <= 0 {
		buffer = 64
	}
	w := &NotificationWorker{
		jobs:    make(chan Job, buffer),
		logger:  logger,
		timeout: timeout,
	}
	w.wg.Add(1)
	go w.loop(ctx)
	return w
}

// Enqueue schedules a job without blocking. It reports false when the queue
// is full and the job was dropped.
func (w *NotificationWorker) Enqueue(job Job) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		w.logger.Warn("notification queue full; dropping job", zap.String("job", job.Name))
		return false
	}
}

// Wait blocks until the worker has stopped.
func (w *NotificationWorker) Wait() {
	w.wg.Wait()
}

func (w *NotificationWorker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			w.run(ctx, job)
		}
	}
}

func (w *NotificationWorker) run(ctx context.Context, job Job) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("notification job panicked", zap.String("job", job.Name), zap.String("panic", fmt.Sprint(r)))
		}
	}()
	if err := job.Run(ctx); err != nil {
		w.logger.Warn("notification job failed", zap.String("job", job.Name), zap.Error(err))
	}
}
