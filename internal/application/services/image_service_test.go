package services_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"sync"
	"testing"
	"time"

	_ "image/jpeg"

	impl "github.com/avatarctic/avatar-proxy/internal/application/services"
	"github.com/avatarctic/avatar-proxy/internal/core/domain/avatar"
	"github.com/avatarctic/avatar-proxy/internal/infrastructure/memcache"
	"github.com/stretchr/testify/require"
)

const testHash = "deadbeefdeadbeefdeadbeefdeadbeef"

// pngBytes encodes a w x h gray image as PNG.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGetImage_ProducesResizedJPEG(t *testing.T) {
	fetcher := &fetcherMock{data: pngBytes(t, 100, 50)}
	svc := impl.NewAvatarImageService(&resolverMock{url: "https://img/a.png"}, fetcher, memcache.NewMemoryCache(), time.Hour, 0, nil)

	out, err := svc.GetImage(context.Background(), testHash, 64, avatar.Options{})
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, 64, cfg.Width)
	require.Equal(t, 32, cfg.Height) // aspect ratio preserved

	// the temp file must be gone
	require.Len(t, fetcher.paths, 1)
	_, statErr := os.Stat(fetcher.paths[0])
	require.True(t, os.IsNotExist(statErr))
}

func TestGetImage_SecondRequestIsByteIdenticalAndCached(t *testing.T) {
	fetcher := &fetcherMock{data: pngBytes(t, 100, 50)}
	svc := impl.NewAvatarImageService(&resolverMock{url: "https://img/a.png"}, fetcher, memcache.NewMemoryCache(), time.Hour, 0, nil)

	first, err := svc.GetImage(context.Background(), testHash, 64, avatar.Options{})
	require.NoError(t, err)
	second, err := svc.GetImage(context.Background(), testHash, 64, avatar.Options{})
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, fetcher.calls)
}

func TestGetImage_SizeOutOfRangeNormalizesTo512(t *testing.T) {
	fetcher := &fetcherMock{data: pngBytes(t, 100, 50)}
	svc := impl.NewAvatarImageService(&resolverMock{url: "https://img/a.png"}, fetcher, memcache.NewMemoryCache(), time.Hour, 0, nil)

	for _, size := range []int{0, -1, 513} {
		out, err := svc.GetImage(context.Background(), testHash, size, avatar.Options{})
		require.NoError(t, err)
		cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		require.Equal(t, 512, cfg.Width)
	}
	// all three normalized to the same cache slot
	require.Equal(t, 1, fetcher.calls)
}

func TestGetImage_CorruptBytesAreNotFoundAndNotCached(t *testing.T) {
	fetcher := &fetcherMock{data: []byte("definitely not an image")}
	svc := impl.NewAvatarImageService(&resolverMock{url: "https://img/a.png"}, fetcher, memcache.NewMemoryCache(), time.Hour, 0, nil)

	_, err := svc.GetImage(context.Background(), testHash, 64, avatar.Options{})
	require.ErrorIs(t, err, avatar.ErrNotFound)

	// failure was not cached: the retry re-runs the pipeline
	_, err = svc.GetImage(context.Background(), testHash, 64, avatar.Options{})
	require.ErrorIs(t, err, avatar.ErrNotFound)
	require.Equal(t, 2, fetcher.calls)

	// temp files cleaned up on the failure path too
	for _, p := range fetcher.paths {
		_, statErr := os.Stat(p)
		require.True(t, os.IsNotExist(statErr))
	}
}

func TestGetImage_DownloadFailureIsNotFound(t *testing.T) {
	fetcher := &fetcherMock{err: errors.New("connection refused")}
	svc := impl.NewAvatarImageService(&resolverMock{url: "https://img/a.png"}, fetcher, memcache.NewMemoryCache(), time.Hour, 0, nil)

	_, err := svc.GetImage(context.Background(), testHash, 64, avatar.Options{})
	require.ErrorIs(t, err, avatar.ErrNotFound)
}

func TestGetImage_NegativeTTLCachesTheMiss(t *testing.T) {
	fetcher := &fetcherMock{err: errors.New("connection refused")}
	svc := impl.NewAvatarImageService(&resolverMock{url: "https://img/a.png"}, fetcher, memcache.NewMemoryCache(), time.Hour, time.Minute, nil)

	_, err := svc.GetImage(context.Background(), testHash, 64, avatar.Options{})
	require.ErrorIs(t, err, avatar.ErrNotFound)
	_, err = svc.GetImage(context.Background(), testHash, 64, avatar.Options{})
	require.ErrorIs(t, err, avatar.ErrNotFound)

	require.Equal(t, 1, fetcher.calls)
}

// slowFetcher blocks long enough for concurrent callers to pile up on the
// same key, and counts productions under a lock.
type slowFetcher struct {
	mu    sync.Mutex
	calls int
	inner fetcherMock
}

func (f *slowFetcher) FetchToFile(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	return f.inner.FetchToFile(ctx, url)
}

func TestGetImage_ConcurrentRequestsShareOneProduction(t *testing.T) {
	fetcher := &slowFetcher{inner: fetcherMock{data: pngBytes(t, 100, 50)}}
	svc := impl.NewAvatarImageService(&resolverMock{url: "https://img/a.png"}, fetcher, memcache.NewMemoryCache(), time.Hour, 0, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetImage(context.Background(), testHash, 64, avatar.Options{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, fetcher.calls)
}

func TestGetImage_ResolverErrorSurfacesAsError(t *testing.T) {
	svc := impl.NewAvatarImageService(&resolverMock{err: errors.New("boom")}, &fetcherMock{}, memcache.NewMemoryCache(), time.Hour, 0, nil)

	_, err := svc.GetImage(context.Background(), testHash, 64, avatar.Options{})
	require.Error(t, err)
	require.NotErrorIs(t, err, avatar.ErrNotFound)
}
