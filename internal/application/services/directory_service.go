package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avatarctic/avatar-proxy/internal/core/domain/directory"
	"github.com/avatarctic/avatar-proxy/internal/core/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// rosterFetchedAtKey marks when the roster was last fetched in full. The
// cached roster counts as fresh only while this entry is alive, so freshness
// does not hinge on how promptly the store evicts individual member entries.
const rosterFetchedAtKey = "roster-fetched-at"

// DirectoryService serves the member roster cache-aside: members are cached
// individually under their IDs with a uniform TTL, and a full remote fetch
// happens at most once per freshness window (singleflight-guarded).
type DirectoryService struct {
	client ports.DirectoryClient
	cache  ports.Cache
	ttl    time.Duration
	logger *logrus.Logger
	sf     singleflight.Group
}

func NewDirectoryService(client ports.DirectoryClient, cache ports.Cache, ttl time.Duration, logger *logrus.Logger) *DirectoryService {
	return &DirectoryService{client: client, cache: cache, ttl: ttl, logger: logger}
}

// ListMembers implements ports.DirectoryService.
func (s *DirectoryService) ListMembers(ctx context.Context) ([]directory.Member, error) {
	if members, ok := s.cachedRoster(ctx); ok {
		recordCacheHit(ports.CacheNamespaceMember)
		return members, nil
	}
	recordCacheMiss(ports.CacheNamespaceMember)

	res, err, _ := s.sf.Do("roster", func() (any, error) {
		if members, ok := s.cachedRoster(ctx); ok {
			return members, nil
		}
		members, err := s.client.ListMembers(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching roster: %w", err)
		}
		s.storeRoster(ctx, members)
		return members, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]directory.Member), nil
}

// cachedRoster returns the cached roster only when the full-fetch timestamp
// is still alive and at least one member entry survives.
func (s *DirectoryService) cachedRoster(ctx context.Context) ([]directory.Member, bool) {
	if _, ok, err := s.cache.Get(ctx, ports.CacheNamespaceDirectoryMeta, rosterFetchedAtKey); err != nil || !ok {
		return nil, false
	}

	vals, err := s.cache.List(ctx, ports.CacheNamespaceMember)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("listing cached roster failed")
		}
		return nil, false
	}

	members := make([]directory.Member, 0, len(vals))
	for _, b := range vals {
		var m directory.Member
		if err := json.Unmarshal(b, &m); err != nil {
			continue
		}
		members = append(members, m)
	}
	if len(members) == 0 {
		return nil, false
	}
	return members, true
}

// storeRoster writes each member under its ID plus the fetch timestamp.
// Writes are best-effort: a failed write never blocks the fresh roster.
func (s *DirectoryService) storeRoster(ctx context.Context, members []directory.Member) {
	for _, m := range members {
		if m.ID == "" {
			continue
		}
		b, err := json.Marshal(m)
		if err != nil {
			continue
		}
		if err := s.cache.Set(ctx, ports.CacheNamespaceMember, m.ID, b, s.ttl); err != nil {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"member": m.ID}).WithError(err).Warn("caching roster member failed")
			}
		}
	}

	ts := []byte(time.Now().UTC().Format(time.RFC3339))
	if err := s.cache.Set(ctx, ports.CacheNamespaceDirectoryMeta, rosterFetchedAtKey, ts, s.ttl); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("caching roster fetch timestamp failed")
		}
	}
}
