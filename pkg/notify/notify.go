// Package notify implements the kiosk's transient notification queue: a
// bounded, time-ordered collection of messages with fade-out and automatic
// expiry. Any collaborator may enqueue; the render tick drains.
package notify

import (
	"fmt"
	"sync"
	"time"
)

// Category classifies a notification for styling and severity.
type Category int

const (
	Info Category = iota
	Success
	Warning
	Error
	Event
)

// String returns the lowercase category name.
func (c Category) String() string {
	switch c {
	case Info:
		return "info"
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Event:
		return "event"
	default:
		return "info"
	}
}

// fadeWindow is the final slice of a notification's life over which its
// opacity ramps linearly from full to zero.
const fadeWindow = time.Second

// Notification is a single transient message.
type Notification struct {
	Title     string
	Message   string
	Category  Category
	CreatedAt time.Time
	Duration  time.Duration
	Opacity   float64
}

// Queue is a capacity-bounded notification queue, safe for concurrent use.
// Background workers and the minute refresher push; the UI tick drains.
type Queue struct {
	mu       sync.Mutex
	capacity int
	defaultD time.Duration
	items    []Notification
	nowFn    func() time.Time
}

// New creates a queue. capacity <= 0 defaults to 3; defaultDuration <= 0
// defaults to 5 seconds.
func New(capacity int, defaultDuration time.Duration) *Queue {
	if capacity <= 0 {
		capacity = 3
	}
	if defaultDuration <= 0 {
		defaultDuration = 5 * time.Second
	}
	return &Queue{
		capacity: capacity,
		defaultD: defaultDuration,
		nowFn:    time.Now,
	}
}

// Push appends a notification with the queue's default duration, evicting
// the oldest entry if the queue would exceed its capacity.
func (q *Queue) Push(title, message string, category Category) {
	q.PushFor(title, message, category, q.defaultD)
}

// PushFor appends a notification with an explicit duration.
func (q *Queue) PushFor(title, message string, category Category, d time.Duration) {
	if d <= 0 {
		d = q.defaultD
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, Notification{
		Title:     title,
		Message:   message,
		Category:  category,
		CreatedAt: q.nowFn(),
		Duration:  d,
		Opacity:   1,
	})
	if len(q.items) > q.capacity {
		q.items = q.items[len(q.items)-q.capacity:]
	}
}

// PushEvent enqueues a calendar due-event notification with a long display
// window so it is not missed on a glance-down device.
func (q *Queue) PushEvent(title, at string) {
	q.PushFor("Calendar Event", fmt.Sprintf("%s at %s", title, at), Event, 30*time.Second)
}

// Tick removes expired notifications and recomputes fade for any whose
// remaining life is inside the fade window.
func (q *Queue) Tick(now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	for _, n := range q.items {
		age := now.Sub(n.CreatedAt)
		if age > n.Duration {
			continue
		}
		remaining := n.Duration - age
		if remaining < fadeWindow {
			n.Opacity = float64(remaining) / float64(fadeWindow)
			if n.Opacity < 0 {
				n.Opacity = 0
			}
		} else {
			n.Opacity = 1
		}
		kept = append(kept, n)
	}
	q.items = kept
}

// Pending returns current notifications oldest-first for stacked display.
// It is non-destructive; repeated calls within a tick are idempotent.
func (q *Queue) Pending() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Notification, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of queued notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear drops all notifications.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}
