// Package notify provides the notification feed and achievement tracker the
// simulation reports into.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Severity grades a notification for display.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Notifier receives fire-and-forget player notifications.
type Notifier interface {
	Notify(message string, severity Severity)
}

// ProgressReporter receives achievement progress updates.
type ProgressReporter interface {
	ReportProgress(achievementID string, value float64)
}

// Notification is one entry in the feed.
type Notification struct {
	ID        uint64    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultFeedSize matches how many notifications the player can see at once.
const DefaultFeedSize = 10

// Feed keeps the most recent notifications and fans new ones out to
// subscribers. Safe for concurrent use.
type Feed struct {
	mu       sync.Mutex
	capacity int
	items    []Notification
	nextID   uint64
	subs     map[int]chan Notification
	nextSub  int
	now      func() time.Time
}

// NewFeed creates a feed retaining the last capacity notifications.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultFeedSize
	}
	return &Feed{
		capacity: capacity,
		subs:     make(map[int]chan Notification),
		now:      time.Now,
	}
}

// Notify records a notification. Never blocks on slow subscribers.
func (f *Feed) Notify(message string, severity Severity) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	n := Notification{ID: f.nextID, Message: message, Severity: severity, Timestamp: f.now()}
	f.items = append(f.items, n)
	if len(f.items) > f.capacity {
		f.items = append([]Notification(nil), f.items[len(f.items)-f.capacity:]...)
	}

	slog.Info("notification", "severity", string(severity), "message", message)

	for id, ch := range f.subs {
		select {
		case ch <- n:
		default:
			slog.Debug("notification dropped for slow subscriber", "sub_id", id)
		}
	}
}

// Recent returns the retained notifications, oldest first.
func (f *Feed) Recent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.items...)
}

// Subscribe registers for new notifications. The returned cancel func closes
// the channel and must be called exactly once.
func (f *Feed) Subscribe() (<-chan Notification, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	ch := make(chan Notification, 32)
	f.subs[id] = ch

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	}
}
