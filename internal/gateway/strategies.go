package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// offlinePayload is the synthesized body returned when an API request misses
// both the network and the cache. It ships with HTTP 200 so client code can
// branch on payload content instead of catching transport errors.
type offlinePayload struct {
	Offline  bool   `json:"offline"`
	Message  string `json:"message"`
	Endpoint string `json:"endpoint,omitempty"`
}

const (
	referenceOfflineMessage = "Dữ liệu tham chiếu không khả dụng khi ngoại tuyến"
	genericOfflineMessage   = "Không có kết nối mạng, vui lòng thử lại sau"
)

var defaultOfflinePage = []byte(`<!doctype html>
<html lang="vi"><head><meta charset="utf-8"><title>Ngoại tuyến</title></head>
<body><h1>Bạn đang ngoại tuyến</h1>
<p>Trang này chưa được lưu lại. Hãy kết nối mạng và thử lại.</p></body></html>`)

// placeholderImage is served when an image asset misses both network and
// cache, instead of failing the request.
var placeholderImage = []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="64" height="64">` +
	`<rect width="64" height="64" fill="#e5e7eb"/>` +
	`<path d="M16 44l10-14 8 10 6-7 8 11z" fill="#9ca3af"/></svg>`)

// networkFirstAPI attempts the live fetch first and falls back to the dynamic
// namespace, then to a synthesized offline payload. Only HTTP 200 responses
// are cached so upstream errors cannot poison the cache.
func (rt *Router) networkFirstAPI(w http.ResponseWriter, r *http.Request, reference bool) {
	ctx := r.Context()
	key := cacheKey(r)

	snapshot, raw, err := rt.fetch(ctx, r)
	if err == nil {
		if raw != nil {
			raw.stream(w)
			return
		}
		if snapshot.Status == http.StatusOK {
			if putErr := rt.dynamic.Put(ctx, snapshot); putErr != nil {
				rt.logger.Warn(ctx, "failed to cache api response", "url", key, "error", putErr)
			}
		}
		writeSnapshot(w, snapshot)
		return
	}
	rt.logger.Debug(ctx, "api fetch failed, trying cache", "url", key, "error", err)

	if cached, ok, _ := rt.dynamic.Match(ctx, key); ok {
		writeSnapshot(w, cached)
		return
	}

	payload := offlinePayload{Offline: true, Message: genericOfflineMessage}
	if reference {
		payload.Message = referenceOfflineMessage
		payload.Endpoint = r.URL.Path
	}
	body, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// networkFirstNavigation serves full-page loads: live page first, cached page
// for that exact URL second, the designated offline page last.
func (rt *Router) networkFirstNavigation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cacheKey(r)

	snapshot, raw, err := rt.fetch(ctx, r)
	if err == nil {
		if raw != nil {
			raw.stream(w)
			return
		}
		if snapshot.Status == http.StatusOK {
			if putErr := rt.dynamic.Put(ctx, snapshot); putErr != nil {
				rt.logger.Warn(ctx, "failed to cache page", "url", key, "error", putErr)
			}
		}
		writeSnapshot(w, snapshot)
		return
	}

	if cached, ok, _ := rt.dynamic.Match(ctx, key); ok {
		writeSnapshot(w, cached)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rt.offlinePage)
}

// cacheFirst serves static assets from the versioned static namespace,
// fetching and caching on miss. Image assets degrade to a placeholder rather
// than a failed request.
func (rt *Router) cacheFirst(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cacheKey(r)

	if cached, ok, _ := rt.static.Match(ctx, key); ok {
		writeSnapshot(w, cached)
		return
	}

	snapshot, raw, err := rt.fetch(ctx, r)
	if err == nil {
		if raw != nil {
			raw.stream(w)
			return
		}
		if snapshot.Status == http.StatusOK {
			if putErr := rt.static.Put(ctx, snapshot); putErr != nil {
				rt.logger.Warn(ctx, "failed to cache asset", "url", key, "error", putErr)
			}
		}
		writeSnapshot(w, snapshot)
		return
	}

	if isImagePath(r.URL.Path) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(placeholderImage)
		return
	}
	http.Error(w, "asset unavailable offline", http.StatusServiceUnavailable)
}

// staleWhileRevalidate returns the cached copy immediately when present and
// refreshes it in the background; concurrent refreshes of one URL collapse
// into a single upstream fetch. On a miss it degrades to fetch-then-cache.
func (rt *Router) staleWhileRevalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cacheKey(r)

	if cached, ok, _ := rt.dynamic.Match(ctx, key); ok {
		rt.revalidate(r)
		writeSnapshot(w, cached)
		return
	}

	snapshot, raw, err := rt.fetch(ctx, r)
	if err != nil {
		http.Error(w, "unavailable offline", http.StatusServiceUnavailable)
		return
	}
	if raw != nil {
		raw.stream(w)
		return
	}
	if snapshot.Status == http.StatusOK {
		if putErr := rt.dynamic.Put(ctx, snapshot); putErr != nil {
			rt.logger.Warn(ctx, "failed to cache response", "url", key, "error", putErr)
		}
	}
	writeSnapshot(w, snapshot)
}

// revalidate refreshes one cache entry in the background. The request context
// is not reused: the response has already been served by the time this runs.
func (rt *Router) revalidate(r *http.Request) {
	key := cacheKey(r)
	clone := r.Clone(context.Background())
	go func() {
		_, _, _ = rt.group.Do(key, func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			snapshot, raw, err := rt.fetch(ctx, clone)
			if err != nil {
				rt.logger.Debug(ctx, "background revalidation failed", "url", key, "error", err)
				return nil, err
			}
			if raw != nil {
				// The cached copy stays; the entry has outgrown the cache.
				raw.discard()
				return nil, nil
			}
			if snapshot.Status == http.StatusOK {
				if putErr := rt.dynamic.Put(ctx, snapshot); putErr != nil {
					rt.logger.Warn(ctx, "failed to refresh cache entry", "url", key, "error", putErr)
				}
			}
			return nil, nil
		})
	}()
}
