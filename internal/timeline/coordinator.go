package timeline

import (
	"context"

	"github.com/lvminh/farmdiary/internal/logging"
	"github.com/lvminh/farmdiary/internal/msgbus"
	"github.com/lvminh/farmdiary/internal/netmon"
)

// Coordinator triggers SyncWithServer when connectivity returns and when the
// gateway broadcasts a sync request over the message bus.
type Coordinator struct {
	store   *Store
	monitor *netmon.Monitor
	bus     *msgbus.Bus
	ownerID string
	logger  logging.Logger
}

func NewCoordinator(store *Store, monitor *netmon.Monitor, bus *msgbus.Bus, ownerID string, logger logging.Logger) *Coordinator {
	return &Coordinator{store: store, monitor: monitor, bus: bus, ownerID: ownerID, logger: logger}
}

// Run blocks until ctx is done, reacting to connectivity transitions and
// gateway sync broadcasts.
func (c *Coordinator) Run(ctx context.Context) {
	transitions, cancel := c.monitor.Subscribe()
	defer cancel()

	busID, messages := c.bus.Subscribe()
	defer c.bus.Unsubscribe(busID)

	for {
		select {
		case online := <-transitions:
			if online {
				c.sync(ctx)
			}
		case msg := <-messages:
			if msg.Kind == msgbus.KindSyncTimelineEntries {
				c.sync(ctx)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Coordinator) sync(ctx context.Context) {
	if err := c.store.SyncWithServer(ctx, c.ownerID); err != nil {
		c.logger.Warn(ctx, "sync attempt did not complete", "error", err)
	}
}
