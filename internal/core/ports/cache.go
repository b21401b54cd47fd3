package ports

import (
	"context"
	"time"
)

// Cache namespaces used by the resolution pipeline. Every component reads and
// writes through these; the backing store owns all persisted bytes.
const (
	CacheNamespaceMember        = "directory-member"
	CacheNamespaceDirectoryMeta = "directory-meta"
	CacheNamespaceImageURL      = "image-url"
	CacheNamespaceImage         = "image"
)

// Cache defines a minimal namespaced key-value cache contract.
// Implementations must never return an expired entry as a hit: an entry past
// its TTL is indistinguishable from an absent one, from Get and List alike.
// Implementations should degrade gracefully (returning an error without
// crashing callers) so that the pipeline can fall back to upstream sources.
type Cache interface {
	// Get returns the raw bytes stored under (namespace, key). ok=false if
	// not found or expired.
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	// Set stores value under (namespace, key) with TTL (0 or negative means
	// no expiration if supported).
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	// List returns the values of all live entries in namespace, in no
	// particular order.
	List(ctx context.Context, namespace string) ([][]byte, error)
}
