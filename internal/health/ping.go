package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthPinger can be implemented by components to expose a specialized
// health check. HealthPing must return nil when the component is healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// PingChecker polls a HealthPinger on every tick.
type PingChecker struct {
	name    string
	pinger  HealthPinger
	timeout time.Duration
	log     zerolog.Logger
	healthy atomic.Bool
}

func NewPingChecker(name string, p HealthPinger, timeout time.Duration, log zerolog.Logger) *PingChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PingChecker{name: name, pinger: p, timeout: timeout, log: log}
}

func (c *PingChecker) Name() string    { return c.name }
func (c *PingChecker) IsHealthy() bool { return c.healthy.Load() }

func (c *PingChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		c.check(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *PingChecker) check(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := c.pinger.HealthPing(pctx)
	if err != nil {
		c.log.Warn().Err(err).Str("component", c.name).Msg("health ping failed")
	}
	c.healthy.Store(err == nil)
}

// Heartbeat is healthy while Beat has been called within maxAge. The poll
// loop beats after every successful getUpdates.
type Heartbeat struct {
	name   string
	maxAge time.Duration
	now    func() time.Time
	last   atomic.Int64
}

func NewHeartbeat(name string, maxAge time.Duration) *Heartbeat {
	return &Heartbeat{name: name, maxAge: maxAge, now: time.Now}
}

func (h *Heartbeat) Name() string { return h.name }

// Beat records a successful cycle.
func (h *Heartbeat) Beat() { h.last.Store(h.now().UnixNano()) }

func (h *Heartbeat) IsHealthy() bool {
	last := h.last.Load()
	if last == 0 {
		return false
	}
	return h.now().Sub(time.Unix(0, last)) <= h.maxAge
}

// Start is a no-op; the owner drives Beat.
func (h *Heartbeat) Start(context.Context, time.Duration) {}
