package ports

import (
	"context"

	"github.com/avatarctic/avatar-proxy/internal/core/domain/directory"
)

// DirectoryClient fetches the full member roster from the remote directory
// service. Implementations perform no caching of their own.
type DirectoryClient interface {
	ListMembers(ctx context.Context) ([]directory.Member, error)
}

// DirectoryService is the cached view of the roster consumed by the
// resolution pipeline.
type DirectoryService interface {
	// ListMembers returns the current roster snapshot, serving from cache
	// when fresh and refreshing from the remote directory otherwise.
	ListMembers(ctx context.Context) ([]directory.Member, error)
}
