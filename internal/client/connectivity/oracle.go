// Package connectivity answers "is the identity server reachable right now?".
//
// The Watcher keeps the answer fresh by probing the server on an interval,
// the same way the CLI status line is kept up to date. Answers are best
// effort; callers must not assume any caching contract.
package connectivity

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// Oracle reports current network reachability.
type Oracle interface {
	IsConnected() bool
}

// Func adapts a plain function to Oracle.
type Func func() bool

func (f Func) IsConnected() bool { return f() }

// Pinger is implemented by the identity provider client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher is an Oracle backed by periodic pings.
type Watcher struct {
	pinger       Pinger
	interval     time.Duration
	probeTimeout time.Duration
	logger       logging.Logger
	connected    atomic.Bool
}

const defaultInterval = 3 * time.Second

// NewWatcher returns a Watcher that starts in the offline state until the
// first probe completes. A non-positive interval selects the default.
func NewWatcher(p Pinger, interval time.Duration, logger logging.Logger) *Watcher {
	if interval <= 0 {
		interval = defaultInterval
	}
	timeout := defaultInterval
	if interval < timeout {
		timeout = interval
	}
	return &Watcher{
		pinger:       p,
		interval:     interval,
		probeTimeout: timeout,
		logger:       logger.With("module", "connectivity"),
	}
}

func (w *Watcher) IsConnected() bool {
	return w.connected.Load()
}

// Probe pings once and records the result.
func (w *Watcher) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, w.probeTimeout)
	err := w.pinger.Ping(ctx)
	cancel()

	online := err == nil
	if prev := w.connected.Swap(online); prev != online {
		if online {
			w.logger.Info(ctx, "switched to online mode")
		} else {
			w.logger.Warn(ctx, "switched to offline mode", "error", err)
		}
	}
	return online
}

// Run probes immediately and then on every tick until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.Probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
