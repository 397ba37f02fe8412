package netmon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvminh/farmdiary/internal/logging"
)

func TestMonitor_SetAndRead(t *testing.T) {
	m := NewMonitor(true)
	assert.True(t, m.IsOnline())

	m.Set(false)
	assert.False(t, m.IsOnline())

	m.Set(true)
	assert.True(t, m.IsOnline())
}

func TestMonitor_SubscribeDeliversTransitionsOnly(t *testing.T) {
	m := NewMonitor(true)
	ch, cancel := m.Subscribe()
	defer cancel()

	// Same-state event: coalesced away.
	m.Set(true)
	select {
	case v := <-ch:
		t.Fatalf("unexpected event %v for repeated state", v)
	case <-time.After(20 * time.Millisecond):
	}

	m.Set(false)
	select {
	case v := <-ch:
		assert.False(t, v)
	case <-time.After(time.Second):
		t.Fatal("expected transition event")
	}
}

func TestMonitor_CancelStopsDelivery(t *testing.T) {
	m := NewMonitor(true)
	ch, cancel := m.Subscribe()
	cancel()

	m.Set(false)
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event %v after cancel", v)
		}
	case <-time.After(20 * time.Millisecond):
	}
}

type fakePinger struct {
	mu    sync.Mutex
	err   error
	calls atomic.Int64
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakePinger) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func TestWatcher_FlipsMonitorOnProbeResult(t *testing.T) {
	m := NewMonitor(true)
	p := &fakePinger{}
	p.setErr(errors.New("unreachable"))
	w := NewWatcher(m, p, 5*time.Millisecond, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return !m.IsOnline() }, time.Second, 5*time.Millisecond)

	p.setErr(nil)
	require.Eventually(t, func() bool { return m.IsOnline() }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Greater(t, p.calls.Load(), int64(0))
}
