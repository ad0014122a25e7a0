package chain

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/mesh-intelligence/linknav/internal/routes"
)

// DefaultCacheSize is the number of resolved paths a CachedResolver keeps
// when no size is given.
const DefaultCacheSize = 1024

type cacheKey struct {
	table *routes.Table
	path  string
}

// CachedResolver memoizes successful resolutions. Entries are keyed by the
// table snapshot as well as the path, so swapping in a new table never
// serves chains resolved against the old one. Failed resolutions are not
// cached.
//
// Cached chains are shared between callers and must be treated as read-only.
type CachedResolver struct {
	cache *lru.Cache
}

// NewCachedResolver creates a resolver caching up to size chains.
func NewCachedResolver(size int) (*CachedResolver, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedResolver{cache: c}, nil
}

// Resolve behaves like the package-level Resolve.
func (r *CachedResolver) Resolve(table *routes.Table, segments []string) (*Chain, error) {
	key := cacheKey{table: table, path: pathKey(segments)}
	if v, ok := r.cache.Get(key); ok {
		return v.(*Chain), nil
	}
	c, err := Resolve(table, segments)
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, c)
	return c, nil
}

// Len returns the number of cached chains.
func (r *CachedResolver) Len() int {
	return r.cache.Len()
}

// Purge drops every cached chain.
func (r *CachedResolver) Purge() {
	r.cache.Purge()
}

// pathKey encodes segments as length-prefixed strings so that no two
// distinct segment lists share a key.
func pathKey(segments []string) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(strconv.Itoa(len(seg)))
		b.WriteByte(':')
		b.WriteString(seg)
	}
	return b.String()
}
