package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Toast is a transient in-app notification.
type Toast struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NotificationState is what the bell and toast area show.
type NotificationState struct {
	Unread int     `json:"unread"`
	Toasts []Toast `json:"toasts"`
}

// ToastCenter holds toasts until they expire or are dismissed, and the
// unread badge count.
type ToastCenter struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	toasts []Toast
	unread int
}

// NewToastCenter builds a center whose toasts live for ttl.
func NewToastCenter(ttl time.Duration) *ToastCenter {
	return &ToastCenter{ttl: ttl, now: time.Now}
}

// Push adds a toast for count new tickets and raises the badge by count.
func (t *ToastCenter) Push(title, message string, count int) Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	toast := Toast{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Count:     count,
		CreatedAt: now,
		ExpiresAt: now.Add(t.ttl),
	}
	t.pruneLocked(now)
	t.toasts = append(t.toasts, toast)
	t.unread += count
	return toast
}

// State returns the unexpired toasts and the badge count.
func (t *ToastCenter) State() NotificationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked(t.now())
	toasts := make([]Toast, len(t.toasts))
	copy(toasts, t.toasts)
	return NotificationState{Unread: t.unread, Toasts: toasts}
}

// Dismiss removes one toast. It reports whether the toast was present.
func (t *ToastCenter) Dismiss(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, toast := range t.toasts {
		if toast.ID == id {
			t.toasts = append(t.toasts[:i], t.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// MarkRead clears the badge.
func (t *ToastCenter) MarkRead() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unread = 0
}

// Reset drops everything, used when a session ends.
func (t *ToastCenter) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toasts = nil
	t.unread = 0
}

func (t *ToastCenter) pruneLocked(now time.Time) {
	kept := t.toasts[:0]
	for _, toast := range t.toasts {
		if now.Before(toast.ExpiresAt) {
			kept = append(kept, toast)
		}
	}
	t.toasts = kept
}
