package netmon

import (
	"context"
	"time"

	"github.com/lvminh/farmdiary/internal/logging"
)

// Pinger probes server reachability. The api client satisfies this.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher feeds connectivity events into a Monitor by probing the diary
// server on an interval. It is the runtime's connectivity signal source;
// state transitions still flow only through Monitor.Set.
type Watcher struct {
	monitor     *Monitor
	pinger      Pinger
	interval    time.Duration
	pingTimeout time.Duration
	logger      logging.Logger
}

func NewWatcher(monitor *Monitor, pinger Pinger, interval time.Duration, logger logging.Logger) *Watcher {
	return &Watcher{
		monitor:     monitor,
		pinger:      pinger,
		interval:    interval,
		pingTimeout: 3 * time.Second,
		logger:      logger,
	}
}

// Run blocks until ctx is done, probing on each tick.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, w.pingTimeout)
	err := w.pinger.Ping(pingCtx)
	cancel()

	online := err == nil
	if online != w.monitor.IsOnline() {
		w.logger.Info(ctx, "connectivity changed", "online", online)
	}
	w.monitor.Set(online)
}
