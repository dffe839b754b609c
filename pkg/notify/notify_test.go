package notify

import (
	"testing"
	"time"
)

func fixedQueue(capacity int, at time.Time) *Queue {
	q := New(capacity, 5*time.Second)
	q.nowFn = func() time.Time { return at }
	return q
}

func TestPushRespectsCapacity(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	q := fixedQueue(3, t0)

	for i := 0; i < 5; i++ {
		q.Push("t", "m", Info)
	}

	if q.Len() != 3 {
		t.Errorf("expected queue bounded at 3, got %d", q.Len())
	}
}

func TestOverflowEvictsOldest(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	q := New(3, 5*time.Second)

	for i, title := range []string{"a", "b", "c", "d"} {
		at := t0.Add(time.Duration(i) * time.Second)
		q.nowFn = func() time.Time { return at }
		q.Push(title, "m", Info)
	}

	pending := q.Pending()
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(pending))
	}
	if pending[0].Title != "b" {
		t.Errorf("expected oldest survivor 'b', got %q", pending[0].Title)
	}
	if pending[2].Title != "d" {
		t.Errorf("expected newest 'd' last, got %q", pending[2].Title)
	}
}

func TestTickExpiresNotifications(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	q := fixedQueue(3, t0)
	q.Push("soon gone", "m", Warning)

	q.Tick(t0.Add(4 * time.Second))
	if q.Len() != 1 {
		t.Fatalf("expected notification alive at 4s, got len %d", q.Len())
	}

	q.Tick(t0.Add(5*time.Second + time.Millisecond))
	if q.Len() != 0 {
		t.Errorf("expected notification expired past its duration, got len %d", q.Len())
	}
	if got := q.Pending(); len(got) != 0 {
		t.Errorf("Pending returned %d expired notifications", len(got))
	}
}

func TestTickFadesFinalSecond(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	q := fixedQueue(3, t0)
	q.Push("fading", "m", Info)

	q.Tick(t0.Add(2 * time.Second))
	if op := q.Pending()[0].Opacity; op != 1 {
		t.Errorf("expected full opacity before fade window, got %v", op)
	}

	q.Tick(t0.Add(4500 * time.Millisecond))
	op := q.Pending()[0].Opacity
	if op < 0.45 || op > 0.55 {
		t.Errorf("expected ~0.5 opacity at 500ms remaining, got %v", op)
	}
}

func TestPendingIsIdempotent(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	q := fixedQueue(3, t0)
	q.Push("a", "m", Info)
	q.Push("b", "m", Success)

	first := q.Pending()
	second := q.Pending()
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Pending drained the queue: %d then %d", len(first), len(second))
	}

	// Mutating the returned slice must not affect the queue.
	first[0].Title = "mutated"
	if q.Pending()[0].Title != "a" {
		t.Error("Pending returned a live reference to internal state")
	}
}

func TestPushEventUsesLongDuration(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	q := fixedQueue(3, t0)
	q.PushEvent("Dentist", "14:30")

	p := q.Pending()
	if len(p) != 1 {
		t.Fatal("expected one notification")
	}
	if p[0].Category != Event {
		t.Errorf("expected event category, got %s", p[0].Category)
	}
	if p[0].Duration != 30*time.Second {
		t.Errorf("expected 30s duration, got %s", p[0].Duration)
	}
	if p[0].Message != "Dentist at 14:30" {
		t.Errorf("unexpected message %q", p[0].Message)
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		c    Category
		want string
	}{
		{Info, "info"},
		{Success, "success"},
		{Warning, "warning"},
		{Error, "error"},
		{Event, "event"},
		{Category(99), "info"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}
