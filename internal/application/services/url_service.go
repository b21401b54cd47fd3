package services

import (
	"context"
	"net/url"
	"path"
	"strconv"
	"time"

	config "github.com/avatarctic/avatar-proxy/configs"
	"github.com/avatarctic/avatar-proxy/internal/core/domain/avatar"
	"github.com/avatarctic/avatar-proxy/internal/core/domain/directory"
	"github.com/avatarctic/avatar-proxy/internal/core/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ImageURLService resolves which source URL serves a hash, preferring the
// matched directory member's photo over the public fallback. Every resolved
// URL is cached, fallback URLs included, so a hash that matches nobody does
// not trigger a roster scan on each request.
type ImageURLService struct {
	directory ports.DirectoryService
	cache     ports.Cache
	ttl       time.Duration
	fallback  config.FallbackConfig
	logger    *logrus.Logger
	sf        singleflight.Group
}

func NewImageURLService(dir ports.DirectoryService, cache ports.Cache, ttl time.Duration, fallback config.FallbackConfig, logger *logrus.Logger) *ImageURLService {
	return &ImageURLService{directory: dir, cache: cache, ttl: ttl, fallback: fallback, logger: logger}
}

// ResolveImageURL implements ports.ImageURLResolver.
func (s *ImageURLService) ResolveImageURL(ctx context.Context, hash string, opts avatar.Options) (string, error) {
	key := avatar.URLKey(hash, opts)

	if b, ok, err := s.cache.Get(ctx, ports.CacheNamespaceImageURL, key); err == nil && ok {
		recordCacheHit(ports.CacheNamespaceImageURL)
		return string(b), nil
	}
	recordCacheMiss(ports.CacheNamespaceImageURL)

	res, err, _ := s.sf.Do(key, func() (any, error) {
		if b, ok, err := s.cache.Get(ctx, ports.CacheNamespaceImageURL, key); err == nil && ok {
			return string(b), nil
		}

		resolved := s.resolve(ctx, hash, opts)
		if err := s.cache.Set(ctx, ports.CacheNamespaceImageURL, key, []byte(resolved), s.ttl); err != nil {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"hash": hash}).WithError(err).Warn("caching resolved image url failed")
			}
		}
		return resolved, nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// resolve always yields a URL: a directory failure degrades to the fallback
// service rather than propagating.
func (s *ImageURLService) resolve(ctx context.Context, hash string, opts avatar.Options) string {
	members, err := s.directory.ListMembers(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"hash": hash}).WithError(err).Warn("directory unavailable, using fallback url")
		}
	} else if m, ok := directory.MatchByEmailHash(members, hash); ok && m.ImageURL != "" {
		resolutionsTotal.WithLabelValues("directory").Inc()
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"hash": hash, "member": m.ID}).Debug("resolved image url from directory")
		}
		return m.ImageURL
	}

	resolutionsTotal.WithLabelValues("fallback").Inc()
	return s.fallbackURL(hash, opts)
}

// fallbackURL builds <base>/<hash>?s=<n>[&default=<image>]. The s parameter
// is a fixed constant, independent of the requested output size.
func (s *ImageURLService) fallbackURL(hash string, opts avatar.Options) string {
	u, err := url.Parse(s.fallback.BaseURL)
	if err != nil {
		// Config validation should make this unreachable; degrade to the
		// known-good public endpoint.
		u = &url.URL{Scheme: "https", Host: "www.gravatar.com", Path: "/avatar"}
	}
	u.Path = path.Join(u.Path, hash)

	q := u.Query()
	q.Set("s", strconv.Itoa(s.fallback.SizeParam))
	if opts.DefaultImage != "" {
		q.Set("default", opts.DefaultImage)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
