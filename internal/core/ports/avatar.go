package ports

import (
	"context"

	"github.com/avatarctic/avatar-proxy/internal/core/domain/avatar"
)

// ImageURLResolver decides which source URL serves a hash: the matched
// directory member's photo, or the public fallback service.
type ImageURLResolver interface {
	ResolveImageURL(ctx context.Context, hash string, opts avatar.Options) (string, error)
}

// AvatarService produces the final encoded JPEG for a hash at a size.
// A result of avatar.ErrNotFound means no image could be produced; anything
// else that goes wrong surfaces as an ordinary error for the HTTP boundary
// to map.
type AvatarService interface {
	GetImage(ctx context.Context, hash string, size int, opts avatar.Options) ([]byte, error)
}

// ImageFetcher downloads a remote image to a temporary file and returns its
// path. The caller owns the file and must remove it on every exit path.
type ImageFetcher interface {
	FetchToFile(ctx context.Context, url string) (string, error)
}
