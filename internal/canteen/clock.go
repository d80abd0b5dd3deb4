package canteen

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/beevik/ntp"
)

// Clock supplies the authoritative current time. Every temporal decision in
// the engine reads from a Clock, never from the wall clock directly, so the
// whole engine is testable with a substituted clock.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the local wall clock unmodified.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// SyncedClock returns the local wall clock corrected by a cached offset
// obtained from periodic NTP synchronization. Synchronization failures fall
// back silently to the last known offset; an outage of the time reference
// must never make the engine refuse to serve.
type SyncedClock struct {
	server   string
	interval time.Duration
	offset   atomic.Int64 // nanoseconds
	logger   apt.Logger
	cancel   context.CancelFunc
}

func NewSyncedClock(server string, interval time.Duration, logger apt.Logger) *SyncedClock {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SyncedClock{
		server:   server,
		interval: interval,
		logger:   logger,
	}
}

func (c *SyncedClock) Now() time.Time {
	return time.Now().UTC().Add(time.Duration(c.offset.Load()))
}

// Start performs an initial synchronization and keeps the offset fresh on a
// ticker until Stop or context cancellation.
func (c *SyncedClock) Start(ctx context.Context) error {
	c.sync()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	ticker := time.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sync()
			}
		}
	}()
	return nil
}

func (c *SyncedClock) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *SyncedClock) sync() {
	resp, err := ntp.Query(c.server)
	if err != nil {
		c.logger.Debug("time sync failed, keeping last offset", "server", c.server, "error", err)
		return
	}
	if err := resp.Validate(); err != nil {
		c.logger.Debug("time sync response rejected", "server", c.server, "error", err)
		return
	}
	c.offset.Store(int64(resp.ClockOffset))
	c.logger.Debug("time offset updated", "offset", resp.ClockOffset.String())
}

// FixedClock always returns the same instant. Test helper, also useful for
// replaying historical decisions.
type FixedClock struct {
	at time.Time
}

func NewFixedClock(at time.Time) *FixedClock {
	return &FixedClock{at: at}
}

func (c *FixedClock) Now() time.Time {
	return c.at
}

func (c *FixedClock) Set(at time.Time) {
	c.at = at
}

func (c *FixedClock) Advance(d time.Duration) {
	c.at = c.at.Add(d)
}
