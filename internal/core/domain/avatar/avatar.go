package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultSize is both the upper bound on the requested dimension and the
// value used when the request carries no usable size.
const DefaultSize = 512

// JPEGQuality is the encode quality for every avatar this service produces.
const JPEGQuality = 30

// ErrNotFound means no image could be resolved or produced for a hash.
var ErrNotFound = errors.New("avatar not found")

// Options carries the pass-through resolution options beyond hash and size.
type Options struct {
	// DefaultImage is forwarded opaquely to the fallback service's
	// default-image query parameter when no directory photo matches.
	DefaultImage string `json:"default_image,omitempty"`
}

// Hash returns a stable digest of the options so that distinct option sets
// never share a cache slot.
func (o Options) Hash() string {
	b, err := json.Marshal(o)
	if err != nil {
		// Options is a flat struct of strings; Marshal cannot fail on it.
		b = []byte("{}")
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// NormalizeSize clamps a requested dimension into the accepted range.
// Anything outside [1, DefaultSize] (including zero for "absent") becomes
// DefaultSize.
func NormalizeSize(size int) int {
	if size >= 1 && size <= DefaultSize {
		return size
	}
	return DefaultSize
}

// URLKey is the cache key for a resolved image URL.
func URLKey(hash string, opts Options) string {
	return fmt.Sprintf("%s-%s", hash, opts.Hash())
}

// ImageKey is the cache key for an encoded avatar image.
func ImageKey(hash string, size int, opts Options) string {
	return fmt.Sprintf("%s-%d-%s", hash, size, opts.Hash())
}
