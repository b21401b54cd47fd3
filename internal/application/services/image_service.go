package services

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/avatarctic/avatar-proxy/internal/core/domain/avatar"
	"github.com/avatarctic/avatar-proxy/internal/core/ports"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// negativeMarker is what gets cached for a failed production when negative
// caching is enabled. A real JPEG always starts with 0xFF, so the marker can
// never collide with image bytes.
var negativeMarker = []byte{0x00}

// AvatarImageService turns a hash into encoded JPEG bytes: resolve the source
// URL, download, decode, resize preserving aspect ratio, encode at the fixed
// quality, cache. Failures yield avatar.ErrNotFound and are not cached unless
// a negative TTL is configured, so broken upstreams are retried per request.
type AvatarImageService struct {
	resolver    ports.ImageURLResolver
	fetcher     ports.ImageFetcher
	cache       ports.Cache
	ttl         time.Duration
	negativeTTL time.Duration
	logger      *logrus.Logger
	sf          singleflight.Group
}

func NewAvatarImageService(resolver ports.ImageURLResolver, fetcher ports.ImageFetcher, cache ports.Cache, ttl, negativeTTL time.Duration, logger *logrus.Logger) *AvatarImageService {
	return &AvatarImageService{
		resolver:    resolver,
		fetcher:     fetcher,
		cache:       cache,
		ttl:         ttl,
		negativeTTL: negativeTTL,
		logger:      logger,
	}
}

// GetImage implements ports.AvatarService. Concurrent requests for the same
// (hash, size, options) share a single production run.
func (s *AvatarImageService) GetImage(ctx context.Context, hash string, size int, opts avatar.Options) ([]byte, error) {
	size = avatar.NormalizeSize(size)
	key := avatar.ImageKey(hash, size, opts)

	if b, ok, err := s.cache.Get(ctx, ports.CacheNamespaceImage, key); err == nil && ok {
		recordCacheHit(ports.CacheNamespaceImage)
		if bytes.Equal(b, negativeMarker) {
			return nil, avatar.ErrNotFound
		}
		return b, nil
	}
	recordCacheMiss(ports.CacheNamespaceImage)

	res, err, _ := s.sf.Do(key, func() (any, error) {
		if b, ok, err := s.cache.Get(ctx, ports.CacheNamespaceImage, key); err == nil && ok {
			if bytes.Equal(b, negativeMarker) {
				return nil, avatar.ErrNotFound
			}
			return b, nil
		}
		return s.produce(ctx, hash, size, opts, key)
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func (s *AvatarImageService) produce(ctx context.Context, hash string, size int, opts avatar.Options, key string) ([]byte, error) {
	sourceURL, err := s.resolver.ResolveImageURL(ctx, hash, opts)
	if err != nil {
		return nil, err
	}

	tmpPath, err := s.fetcher.FetchToFile(ctx, sourceURL)
	if err != nil {
		s.failProduction(ctx, hash, key, "download failed", err)
		return nil, avatar.ErrNotFound
	}
	defer os.Remove(tmpPath)

	img, err := imaging.Open(tmpPath)
	if err != nil {
		s.failProduction(ctx, hash, key, "decode failed", err)
		return nil, avatar.ErrNotFound
	}

	// Width is the constrained dimension; height follows the aspect ratio.
	resized := imaging.Resize(img, size, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(avatar.JPEGQuality)); err != nil {
		s.failProduction(ctx, hash, key, "encode failed", err)
		return nil, avatar.ErrNotFound
	}

	encoded := buf.Bytes()
	if err := s.cache.Set(ctx, ports.CacheNamespaceImage, key, encoded, s.ttl); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"hash": hash}).WithError(err).Warn("caching avatar image failed")
		}
	}
	return encoded, nil
}

// failProduction logs the failure and, when negative caching is on, records
// the miss so the pipeline is not re-run for every request during an outage.
func (s *AvatarImageService) failProduction(ctx context.Context, hash, key, msg string, err error) {
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"hash": hash}).WithError(err).Warn("avatar production: " + msg)
	}
	if s.negativeTTL > 0 {
		if err := s.cache.Set(ctx, ports.CacheNamespaceImage, key, negativeMarker, s.negativeTTL); err != nil && s.logger != nil {
			s.logger.WithFields(logrus.Fields{"hash": hash}).WithError(err).Warn("caching negative result failed")
		}
	}
}
