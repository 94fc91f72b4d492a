package cataloginfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/poacpm/api/pkg/asyncx"
	"github.com/poacpm/api/pkg/catalog"
	"github.com/poacpm/api/pkg/logx"
	"github.com/redis/go-redis/v9"
)

// CachedPackageRepository is a read-through cache in front of a
// catalog.Repository. Cache failures never fail a read: misses and Redis
// errors both fall through to the underlying repository.
//
// Listing with a filter is not cached; the filter space is unbounded.
type CachedPackageRepository struct {
	inner catalog.Repository
	cache *redis.Client
	ttl   time.Duration
}

// NewCachedPackageRepository wraps inner with a Redis cache.
func NewCachedPackageRepository(inner catalog.Repository, cache *redis.Client, ttl time.Duration) *CachedPackageRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedPackageRepository{inner: inner, cache: cache, ttl: ttl}
}

func (r *CachedPackageRepository) All(ctx context.Context, filter string) ([]catalog.Package, error) {
	return r.inner.All(ctx, filter)
}

func (r *CachedPackageRepository) Search(ctx context.Context, query string, perPage int64) ([]catalog.Package, error) {
	key := fmt.Sprintf("catalog:search:%s:%d", query, perPage)
	var cached []catalog.Package
	if r.lookup(ctx, key, &cached) {
		return cached, nil
	}

	packages, err := r.inner.Search(ctx, query, perPage)
	if err != nil {
		return nil, err
	}
	r.store(key, packages)
	return packages, nil
}

func (r *CachedPackageRepository) Versions(ctx context.Context, name string) ([]string, error) {
	key := "catalog:versions:" + name
	var cached []string
	if r.lookup(ctx, key, &cached) {
		return cached, nil
	}

	versions, err := r.inner.Versions(ctx, name)
	if err != nil {
		return nil, err
	}
	r.store(key, versions)
	return versions, nil
}

func (r *CachedPackageRepository) RepoInfo(ctx context.Context, name, version string) (*catalog.RepoInfo, error) {
	key := fmt.Sprintf("catalog:repoinfo:%s:%s", name, version)
	var cached catalog.RepoInfo
	if r.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	info, err := r.inner.RepoInfo(ctx, name, version)
	if err != nil {
		return nil, err
	}
	r.store(key, info)
	return info, nil
}

func (r *CachedPackageRepository) Deps(ctx context.Context, name, version string) (catalog.Dependencies, error) {
	key := fmt.Sprintf("catalog:deps:%s:%s", name, version)
	var cached catalog.Dependencies
	if r.lookup(ctx, key, &cached) {
		return cached, nil
	}

	deps, err := r.inner.Deps(ctx, name, version)
	if err != nil {
		return nil, err
	}
	r.store(key, deps)
	return deps, nil
}

// lookup reports whether key was found and decoded into out.
func (r *CachedPackageRepository) lookup(ctx context.Context, key string, out any) bool {
	raw, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logx.WithError(err).WithField("key", key).Debug("catalog cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logx.WithError(err).WithField("key", key).Debug("catalog cache entry corrupt")
		return false
	}
	return true
}

// store populates the cache off the request path.
func (r *CachedPackageRepository) store(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	asyncx.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.cache.Set(ctx, key, raw, r.ttl).Err(); err != nil {
			logx.WithError(err).WithField("key", key).Debug("catalog cache write failed")
		}
	})
}
