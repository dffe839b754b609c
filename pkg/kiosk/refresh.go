package kiosk

import (
	"context"
	"log/slog"
	"time"
)

// RefreshFunc is a low-frequency background check, e.g. the calendar's
// due-event scan. Implementations may only touch collaborators that are
// safe for concurrent use (the notification queue); they never write the
// persistent store.
type RefreshFunc func(now time.Time)

// RunRefresher invokes each fn once per interval until ctx is cancelled.
// It runs one pass immediately so due events are not missed at startup.
func RunRefresher(ctx context.Context, interval time.Duration, logger *slog.Logger, fns ...RefreshFunc) {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	runAll := func(now time.Time) {
		for _, fn := range fns {
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("refresh panic", "panic", r)
					}
				}()
				fn(now)
			}()
		}
	}

	runAll(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			runAll(t)
		}
	}
}
