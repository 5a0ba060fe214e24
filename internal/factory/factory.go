package factory

import (
	"context"
	"fmt"
	"time"

	"go-page-translator/internal/cache"
	"go-page-translator/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// CacheType represents the translation cache backends
type CacheType string

const (
	MemoryCache CacheType = "memory"
	RedisCache  CacheType = "redis"
)

// StorageConfig carries what the storage backends need
type StorageConfig struct {
	FetchTimeout time.Duration
	AzureAccount string
	AzureKey     string
}

// CacheConfig carries what the cache backends need
type CacheConfig struct {
	RedisURL   string
	TTL        time.Duration
	MaxEntries int
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// CacheFactory creates translation caches
type CacheFactory interface {
	CreateCache(ctx context.Context, cacheType CacheType) (cache.Store, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg StorageConfig
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg StorageConfig) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		opts := storage.DefaultHTTPFetcherOptions()
		if f.cfg.FetchTimeout > 0 {
			opts.Timeout = f.cfg.FetchTimeout
		}
		return storage.NewHTTPImageFetcherWithOptions(opts), nil
	case AzureStorage:
		if f.cfg.AzureAccount == "" || f.cfg.AzureKey == "" {
			return nil, fmt.Errorf("azure storage requires an account name and key")
		}
		return storage.NewAzureBlobFetcher(f.cfg.AzureAccount, f.cfg.AzureKey)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// cacheFactory implements CacheFactory
type cacheFactory struct {
	cfg CacheConfig
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg CacheConfig) CacheFactory {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	return &cacheFactory{cfg: cfg}
}

// CreateCache creates a cache based on the specified type
func (f *cacheFactory) CreateCache(ctx context.Context, cacheType CacheType) (cache.Store, error) {
	switch cacheType {
	case MemoryCache:
		return cache.NewMemoryStore(f.cfg.MaxEntries, f.cfg.TTL), nil
	case RedisCache:
		if f.cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis cache requires a URL")
		}
		return cache.NewRedisStore(ctx, f.cfg.RedisURL, f.cfg.TTL)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory StorageFactory
	CacheFactory   CacheFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(storageCfg StorageConfig, cacheCfg CacheConfig) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory: NewStorageFactory(storageCfg),
		CacheFactory:   NewCacheFactory(cacheCfg),
	}
}
