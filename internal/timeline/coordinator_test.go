package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lvminh/farmdiary/internal/logging"
	"github.com/lvminh/farmdiary/internal/msgbus"
)

func TestCoordinator_SyncsOnReconnect(t *testing.T) {
	s, server, monitor, _ := setupStore(t, false)
	ctx := context.Background()

	_, err := s.AddEntry(ctx, entry("u1", "05-01-2026"))
	require.NoError(t, err)
	require.True(t, s.HasPendingChanges())

	bus := msgbus.New()
	c := NewCoordinator(s, monitor, bus, "u1", logging.NewNopLogger())
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.Run(runCtx)

	require.Eventually(t, func() bool { return monitor.Subscribers() == 1 },
		time.Second, 5*time.Millisecond)
	monitor.Set(true)

	require.Eventually(t, func() bool { return !s.HasPendingChanges() },
		time.Second, 5*time.Millisecond)

	server.mu.Lock()
	defer server.mu.Unlock()
	require.Equal(t, 1, server.createCalls)
	require.Len(t, server.entries, 1)
}

func TestCoordinator_SyncsOnBusRequest(t *testing.T) {
	s, server, monitor, _ := setupStore(t, false)
	ctx := context.Background()

	_, err := s.AddEntry(ctx, entry("u1", "06-01-2026"))
	require.NoError(t, err)
	monitor.Set(true)

	bus := msgbus.New()
	c := NewCoordinator(s, monitor, bus, "u1", logging.NewNopLogger())
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.Run(runCtx)

	require.Eventually(t, func() bool { return bus.Subscribers() == 1 },
		time.Second, 5*time.Millisecond)
	bus.Broadcast(msgbus.Message{Kind: msgbus.KindSyncTimelineEntries})

	require.Eventually(t, func() bool { return !s.HasPendingChanges() },
		time.Second, 5*time.Millisecond)

	server.mu.Lock()
	defer server.mu.Unlock()
	require.Equal(t, 1, server.createCalls)
}
