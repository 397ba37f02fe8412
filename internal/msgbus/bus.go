// Package msgbus is the typed control channel between the request gateway and
// open client pages. It replaces untyped postMessage payloads with a tagged
// union so the contract is checkable at compile time.
package msgbus

import "sync"

// Kind discriminates control messages.
type Kind string

const (
	// KindSyncTimelineEntries asks clients to run their sync coordinator.
	KindSyncTimelineEntries Kind = "SYNC_TIMELINE_ENTRIES"

	// KindSkipWaiting asks a waiting gateway version to activate now.
	KindSkipWaiting Kind = "SKIP_WAITING"

	// KindReloadPage tells clients a new gateway version took control.
	// Clients must act on it at most once per activation.
	KindReloadPage Kind = "RELOAD_PAGE"
)

// Message is one control message. Version is set on RELOAD_PAGE so clients
// can dedupe reloads per activation.
type Message struct {
	Kind    Kind   `json:"type"`
	Version string `json:"version,omitempty"`
}

// Bus broadcasts messages to every subscriber. Sends are non-blocking: a
// subscriber that stopped draining loses messages instead of stalling the
// gateway.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Message
	nextID int
}

func New() *Bus {
	return &Bus{subs: make(map[int]chan Message)}
}

// Subscribe registers a client page. Cancel via Unsubscribe with the
// returned id.
func (b *Bus) Subscribe() (int, <-chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Message, 4)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe deregisters a subscriber. The channel is never closed: a
// Broadcast that snapshotted the subscriber list before this call may still
// be sending on it. Receivers exit via their own context instead.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Broadcast delivers msg to every current subscriber.
func (b *Bus) Broadcast(msg Message) {
	b.mu.Lock()
	subs := make([]chan Message, 0, len(b.subs))
	for _, ch := range b.subs {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
