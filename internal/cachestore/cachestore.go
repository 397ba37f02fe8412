// Package cachestore provides named cache namespaces holding response
// snapshots, the storage primitive behind the request gateway's caching
// strategies. Two namespaces ever exist at once: a versioned static-asset
// namespace and one dynamic namespace for runtime API and page responses.
package cachestore

import (
	"context"
	"net/http"
	"time"
)

// ResponseSnapshot is a stored copy of one GET response.
type ResponseSnapshot struct {
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Cache is one named namespace, keyed by request URL.
type Cache interface {
	Match(ctx context.Context, url string) (*ResponseSnapshot, bool, error)
	Put(ctx context.Context, snapshot *ResponseSnapshot) error
	Delete(ctx context.Context, url string) error
	Keys(ctx context.Context) ([]string, error)
}

// Storage manages namespaces. Open creates on first use; Drop removes a
// namespace and everything in it.
type Storage interface {
	Open(name string) Cache
	Names(ctx context.Context) ([]string, error)
	Drop(ctx context.Context, name string) error
}
