package ambimix

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// AssetResolver turns an asset URL into encoded bytes.
// Implementations report a missing asset with an error that wraps ErrAssetNotFound.
type AssetResolver interface {
	Resolve(ctx context.Context, url string) ([]byte, error)
}

// AssetResolverFunc adapts a function to an AssetResolver
type AssetResolverFunc func(ctx context.Context, url string) ([]byte, error)

// Resolve calls f
func (f AssetResolverFunc) Resolve(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// MapResolver is an in-memory AssetResolver
type MapResolver struct {
	mu     sync.RWMutex
	assets map[string][]byte
}

// NewMapResolver returns a resolver serving the given assets
func NewMapResolver(assets map[string][]byte) *MapResolver {
	m := &MapResolver{
		assets: make(map[string][]byte, len(assets)),
	}
	for k, v := range assets {
		m.assets[k] = v
	}
	return m
}

// Set adds or replaces an asset
func (m *MapResolver) Set(url string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[url] = data
}

// Resolve returns the bytes stored for url
func (m *MapResolver) Resolve(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.assets[url]
	if !ok {
		return nil, errors.Wrap(ErrAssetNotFound, url)
	}
	return data, nil
}
