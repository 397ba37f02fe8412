// Package netmon tracks connectivity as an observable boolean.
//
// The Monitor itself is purely event-driven: only connectivity signals call
// Set. Components deciding between network and cache must call IsOnline at
// the moment of the decision — connectivity can flip across any await point,
// so the value must never be cached across one.
package netmon

import "sync"

// Monitor holds the current online/offline state and fans transition events
// out to subscribers. Construct one per application (or per test); there is
// no package-level instance.
type Monitor struct {
	mu     sync.RWMutex
	online bool
	subs   map[int]chan bool
	nextID int
}

// NewMonitor starts in the given state. Browsers report navigator.onLine
// optimistically; callers usually start online and let the watcher correct it.
func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online, subs: make(map[int]chan bool)}
}

// IsOnline returns the current state synchronously.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Set records a connectivity event. Subscribers are only notified on an
// actual transition; repeated same-state events are coalesced away.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]chan bool, 0, len(m.subs))
	for _, ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	for _, ch := range subs {
		// Non-blocking: a subscriber that is not draining loses
		// intermediate transitions, never wedges the event source.
		select {
		case ch <- online:
		default:
		}
	}
}

// Subscribers reports how many transition channels are registered.
func (m *Monitor) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// Subscribe returns a channel of transition events and a cancel func.
// The channel is buffered; slow consumers drop events rather than block.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	ch := make(chan bool, 1)
	m.subs[id] = ch
	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
	return ch, cancel
}
