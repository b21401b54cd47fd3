package services_test

import (
	"context"
	"os"
	"time"

	"github.com/avatarctic/avatar-proxy/internal/core/domain/avatar"
	"github.com/avatarctic/avatar-proxy/internal/core/domain/directory"
)

// cacheMock is a func-field mock for ports.Cache; unset fields behave like an
// empty, always-succeeding store.
type cacheMock struct {
	getFn  func(ctx context.Context, namespace, key string) ([]byte, bool, error)
	setFn  func(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	listFn func(ctx context.Context, namespace string) ([][]byte, error)
}

func (m *cacheMock) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, namespace, key)
	}
	return nil, false, nil
}

func (m *cacheMock) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, namespace, key, value, ttl)
	}
	return nil
}

func (m *cacheMock) List(ctx context.Context, namespace string) ([][]byte, error) {
	if m.listFn != nil {
		return m.listFn(ctx, namespace)
	}
	return nil, nil
}

// directoryClientMock mocks the remote roster fetch and counts calls.
type directoryClientMock struct {
	listFn func(ctx context.Context) ([]directory.Member, error)
	calls  int
}

func (m *directoryClientMock) ListMembers(ctx context.Context) ([]directory.Member, error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// directoryServiceMock mocks the cached roster view.
type directoryServiceMock struct {
	listFn func(ctx context.Context) ([]directory.Member, error)
	calls  int
}

func (m *directoryServiceMock) ListMembers(ctx context.Context) ([]directory.Member, error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// resolverMock mocks URL resolution.
type resolverMock struct {
	url string
	err error
}

func (m *resolverMock) ResolveImageURL(ctx context.Context, hash string, opts avatar.Options) (string, error) {
	return m.url, m.err
}

// fetcherMock writes canned bytes to a real temp file, like the downloader.
type fetcherMock struct {
	data  []byte
	err   error
	calls int
	paths []string
}

func (m *fetcherMock) FetchToFile(ctx context.Context, url string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	f, err := os.CreateTemp("", "avatar-test-")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(m.data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	m.paths = append(m.paths, f.Name())
	return f.Name(), nil
}
