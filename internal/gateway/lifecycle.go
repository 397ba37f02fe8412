package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/lvminh/farmdiary/internal/msgbus"
)

// Install precaches the configured shell assets into this version's static
// namespace and moves the router to the waiting state. Precache failures for
// individual assets are logged, not fatal: the asset falls back to
// fetch-on-first-use.
func (rt *Router) Install(ctx context.Context) error {
	rt.mu.Lock()
	if rt.state != stateInstalling {
		rt.mu.Unlock()
		return fmt.Errorf("install in state %d", rt.state)
	}
	rt.mu.Unlock()

	for _, asset := range rt.shellAssets {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset, nil)
		if err != nil {
			return fmt.Errorf("bad shell asset url %q: %w", asset, err)
		}
		snapshot, raw, err := rt.fetch(ctx, req)
		if raw != nil {
			raw.discard()
			rt.logger.Warn(ctx, "shell asset too large to precache", "url", asset)
			continue
		}
		if err != nil || snapshot.Status != http.StatusOK {
			rt.logger.Warn(ctx, "failed to precache shell asset", "url", asset, "error", err)
			continue
		}
		if err := rt.static.Put(ctx, snapshot); err != nil {
			rt.logger.Warn(ctx, "failed to store shell asset", "url", asset, "error", err)
		}
	}

	rt.mu.Lock()
	rt.state = stateWaiting
	rt.mu.Unlock()
	rt.logger.Info(ctx, "gateway installed", "version", rt.version)
	return nil
}

// Activate takes control: every cache namespace other than this version's
// static namespace and the dynamic namespace is purged, and open clients are
// told to reload — once per activation, so clients cannot loop.
func (rt *Router) Activate(ctx context.Context) error {
	rt.mu.Lock()
	if rt.state == stateActive {
		rt.mu.Unlock()
		return nil
	}
	rt.state = stateActive
	notify := !rt.notified
	rt.notified = true
	rt.mu.Unlock()

	keep := map[string]struct{}{
		rt.StaticNamespace(): {},
		DynamicNamespace:     {},
	}
	names, err := rt.storage.Names(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cache namespaces: %w", err)
	}
	for _, name := range names {
		if _, ok := keep[name]; ok {
			continue
		}
		if err := rt.storage.Drop(ctx, name); err != nil {
			rt.logger.Warn(ctx, "failed to drop stale namespace", "namespace", name, "error", err)
			continue
		}
		rt.logger.Info(ctx, "dropped stale cache namespace", "namespace", name)
	}

	if notify {
		rt.bus.Broadcast(msgbus.Message{Kind: msgbus.KindReloadPage, Version: rt.version})
	}
	rt.logger.Info(ctx, "gateway active", "version", rt.version)
	return nil
}

// TriggerSync relays a background-sync signal to all open clients. The
// gateway holds no mutation queue of its own; clients run their own sync
// coordinator in response.
func (rt *Router) TriggerSync() {
	rt.bus.Broadcast(msgbus.Message{Kind: msgbus.KindSyncTimelineEntries})
}

// Run listens for control messages until ctx is done. A SKIP_WAITING message
// activates a waiting router immediately.
func (rt *Router) Run(ctx context.Context) {
	id, messages := rt.bus.Subscribe()
	defer rt.bus.Unsubscribe(id)

	for {
		select {
		case msg := <-messages:
			if msg.Kind == msgbus.KindSkipWaiting {
				if err := rt.Activate(ctx); err != nil {
					rt.logger.Error(ctx, "activation failed", "error", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// IsStaticNamespace reports whether name belongs to any gateway version's
// precache.
func IsStaticNamespace(name string) bool {
	return strings.HasPrefix(name, StaticNamespacePrefix)
}
