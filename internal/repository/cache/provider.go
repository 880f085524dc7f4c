// Package cache decorates the provider repository with an in-process
// read-through cache. Provider rows are first-write-wins and never
// updated, so a cached hit can never go stale; misses always fall through
// to the store.
package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pharmetra/careplan-api/internal/model"
	"github.com/pharmetra/careplan-api/internal/repository"
)

type providerRepository struct {
	inner repository.ProviderRepository
	cache *gocache.Cache
}

func NewProviderRepository(inner repository.ProviderRepository, ttl time.Duration) repository.ProviderRepository {
	return &providerRepository{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func npiKey(npi string) string   { return "npi:" + npi }
func nameKey(name string) string { return "name:" + strings.ToLower(name) }

func (r *providerRepository) FindByNPI(ctx context.Context, npi string) (*model.Provider, error) {
	if v, ok := r.cache.Get(npiKey(npi)); ok {
		return v.(*model.Provider), nil
	}

	provider, err := r.inner.FindByNPI(ctx, npi)
	if err != nil || provider == nil {
		return provider, err
	}
	r.put(provider)
	return provider, nil
}

func (r *providerRepository) FindByName(ctx context.Context, name string) (*model.Provider, error) {
	if v, ok := r.cache.Get(nameKey(name)); ok {
		return v.(*model.Provider), nil
	}

	provider, err := r.inner.FindByName(ctx, name)
	if err != nil || provider == nil {
		return provider, err
	}
	r.put(provider)
	return provider, nil
}

func (r *providerRepository) Insert(ctx context.Context, provider *model.Provider) (bool, error) {
	inserted, err := r.inner.Insert(ctx, provider)
	if err != nil {
		return false, err
	}
	if inserted {
		r.put(provider)
	}
	return inserted, nil
}

func (r *providerRepository) put(provider *model.Provider) {
	r.cache.SetDefault(npiKey(provider.NPI), provider)
	r.cache.SetDefault(nameKey(provider.Name), provider)
}
