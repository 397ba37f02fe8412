package gateway

import (
	"net/http"
	"path"
	"strings"

	"github.com/lvminh/farmdiary/internal/api"
)

// routeClass is the caching strategy bucket a request falls into.
type routeClass int

const (
	classBypass routeClass = iota
	classReferenceAPI
	classOtherAPI
	classNavigation
	classStaticAsset
	classDefault
)

var referencePaths = map[string]struct{}{
	api.SeasonsPath: {},
	api.StagesPath:  {},
	api.TasksPath:   {},
}

var staticExtensions = map[string]struct{}{
	".js": {}, ".css": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".svg": {},
	".gif": {}, ".webp": {}, ".ico": {}, ".woff": {}, ".woff2": {},
}

var imageExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".svg": {}, ".gif": {},
	".webp": {}, ".ico": {},
}

// classify buckets a request. Order matters and mirrors the strategy
// precedence: bypass, reference API, other API, navigation, static asset,
// then the stale-while-revalidate default.
func (rt *Router) classify(r *http.Request) routeClass {
	if r.Method != http.MethodGet {
		return classBypass
	}
	if rt.origin != "" && r.Host != "" && r.Host != rt.origin {
		// Cross-origin traffic passes through untouched.
		return classBypass
	}

	p := r.URL.Path
	if _, ok := referencePaths[p]; ok {
		return classReferenceAPI
	}
	if strings.HasPrefix(p, "/api/") {
		return classOtherAPI
	}
	if isNavigation(r) {
		return classNavigation
	}
	if _, ok := staticExtensions[path.Ext(p)]; ok {
		return classStaticAsset
	}
	return classDefault
}

// isNavigation approximates a full-page load: a GET whose Accept header asks
// for HTML.
func isNavigation(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func isImagePath(p string) bool {
	_, ok := imageExtensions[path.Ext(p)]
	return ok
}
