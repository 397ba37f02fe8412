// Package gateway is the intercepting request router: every request to the
// diary application passes through it and gets one of four caching strategies
// depending on the route, before any application code is involved. It is the
// server-side analogue of the PWA service worker, with the same versioned
// lifecycle, two cache namespaces, and client messaging.
package gateway

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lvminh/farmdiary/internal/cachestore"
	"github.com/lvminh/farmdiary/internal/logging"
	"github.com/lvminh/farmdiary/internal/msgbus"
	"github.com/lvminh/farmdiary/internal/netmon"
)

// DynamicNamespace holds runtime API and page responses. It survives version
// upgrades; only stale static namespaces are swept on activation.
const DynamicNamespace = "dynamic"

// StaticNamespacePrefix + version names the precache namespace for one
// deployed gateway version.
const StaticNamespacePrefix = "static-"

const maxCachedBody = 4 << 20

// state is the deployment lifecycle of one gateway version.
type state int

const (
	stateInstalling state = iota
	stateWaiting
	stateActive
)

// Upstream performs the actual network fetch. *http.Client satisfies it.
type Upstream interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config wires a Router.
type Config struct {
	// Version names this deployment; it suffixes the static namespace.
	Version string
	// UpstreamBase is the diary server's base URL.
	UpstreamBase string
	// Origin, when set, is the host this gateway serves; requests for any
	// other host bypass caching entirely.
	Origin string
	// ShellAssets are URLs precached during install.
	ShellAssets []string
	// OfflinePage is the HTML served when a navigation misses both the
	// network and the cache.
	OfflinePage []byte
}

// Router applies per-route caching strategies over two cache namespaces.
type Router struct {
	version      string
	upstreamBase string
	origin       string
	shellAssets  []string
	offlinePage  []byte

	storage  cachestore.Storage
	static   cachestore.Cache
	dynamic  cachestore.Cache
	upstream Upstream
	monitor  *netmon.Monitor
	bus      *msgbus.Bus
	logger   logging.Logger
	now      func() time.Time

	group singleflight.Group

	mu       sync.Mutex // guards lifecycle state
	state    state
	notified bool
}

func NewRouter(cfg Config, storage cachestore.Storage, upstream Upstream,
	monitor *netmon.Monitor, bus *msgbus.Bus, logger logging.Logger) *Router {

	rt := &Router{
		version:      cfg.Version,
		upstreamBase: strings.TrimRight(cfg.UpstreamBase, "/"),
		origin:       cfg.Origin,
		shellAssets:  cfg.ShellAssets,
		offlinePage:  cfg.OfflinePage,
		storage:      storage,
		static:       storage.Open(StaticNamespacePrefix + cfg.Version),
		dynamic:      storage.Open(DynamicNamespace),
		upstream:     upstream,
		monitor:      monitor,
		bus:          bus,
		logger:       logger,
		now:          time.Now,
		state:        stateInstalling,
	}
	if rt.offlinePage == nil {
		rt.offlinePage = defaultOfflinePage
	}
	return rt
}

// StaticNamespace returns the versioned static cache name for this router.
func (rt *Router) StaticNamespace() string {
	return StaticNamespacePrefix + rt.version
}

// ServeHTTP classifies the request and applies the matching strategy.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch rt.classify(r) {
	case classBypass:
		rt.passThrough(w, r)
	case classReferenceAPI:
		rt.networkFirstAPI(w, r, true)
	case classOtherAPI:
		rt.networkFirstAPI(w, r, false)
	case classNavigation:
		rt.networkFirstNavigation(w, r)
	case classStaticAsset:
		rt.cacheFirst(w, r)
	default:
		rt.staleWhileRevalidate(w, r)
	}
}

// oversizeResponse is an upstream response too large to snapshot. The bytes
// already read ride along as prefix; the caller owns the body and must call
// stream or discard exactly once.
type oversizeResponse struct {
	resp   *http.Response
	prefix []byte
}

func (o *oversizeResponse) stream(w http.ResponseWriter) {
	defer o.resp.Body.Close()
	copyHeader(w.Header(), o.resp.Header)
	w.WriteHeader(o.resp.StatusCode)
	_, _ = w.Write(o.prefix)
	_, _ = io.Copy(w, o.resp.Body)
}

func (o *oversizeResponse) discard() {
	_ = o.resp.Body.Close()
}

// fetch forwards the request upstream. Bodies up to maxCachedBody are
// snapshotted; a larger response comes back as an oversizeResponse instead,
// never truncated into a snapshot.
func (rt *Router) fetch(ctx context.Context, r *http.Request) (*cachestore.ResponseSnapshot, *oversizeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, rt.upstreamBase+r.URL.RequestURI(), nil)
	if err != nil {
		return nil, nil, err
	}
	copyHeader(req.Header, r.Header)

	resp, err := rt.upstream.Do(req)
	if err != nil {
		return nil, nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCachedBody+1))
	if err != nil {
		resp.Body.Close()
		return nil, nil, err
	}
	if len(body) > maxCachedBody {
		return nil, &oversizeResponse{resp: resp, prefix: body}, nil
	}
	resp.Body.Close()

	return &cachestore.ResponseSnapshot{
		URL:      cacheKey(r),
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: rt.now(),
	}, nil, nil
}

// passThrough proxies without touching any cache.
func (rt *Router) passThrough(w http.ResponseWriter, r *http.Request) {
	req, err := http.NewRequestWithContext(r.Context(), r.Method, rt.upstreamBase+r.URL.RequestURI(), r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	copyHeader(req.Header, r.Header)

	resp, err := rt.upstream.Do(req)
	if err != nil {
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// cacheKey is the request URL without scheme/host: the gateway serves one
// origin, so the request URI identifies the resource.
func cacheKey(r *http.Request) string {
	return r.URL.RequestURI()
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func writeSnapshot(w http.ResponseWriter, s *cachestore.ResponseSnapshot) {
	copyHeader(w.Header(), s.Header)
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}
