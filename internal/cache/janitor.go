package cache

import (
	"context"
	"log/slog"
	"time"
)

// RunJanitor purges expired entries from c every interval until ctx is done.
// Run it in its own goroutine.
func RunJanitor[K comparable, V any](ctx context.Context, name string, c Cache[K, V], every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.PurgeExpired()
			slog.Debug("cache purged", "cache", name, "entries", c.Len())
		}
	}
}
