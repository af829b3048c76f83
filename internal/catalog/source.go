package catalog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/praytees/storefront/pkg/logger"
)

const detailConcurrency = 4

// Fetcher reads the catalog from the fulfillment platform.
type Fetcher interface {
	ListProducts(ctx context.Context) ([]RawProduct, error)
	ProductVariants(ctx context.Context, id ProductID) ([]Variant, error)
}

// CacheObserver receives cache hit and refresh outcomes.
type CacheObserver interface {
	CatalogCacheHit()
	CatalogCacheMiss()
	CatalogRefreshFailed()
}

// Source serves the catalog from a TTL cache, refetching through the Fetcher
// when it expires. Fetch failures never reach callers of Products.
type Source struct {
	fetcher  Fetcher
	cache    *Cache
	observer CacheObserver
	logg     *logger.Logger
	group    singleflight.Group
}

// SourceParams groups the Source dependencies.
type SourceParams struct {
	Fetcher  Fetcher
	Cache    *Cache
	Observer CacheObserver
	Logger   *logger.Logger
}

// NewSource validates params and builds a Source.
func NewSource(params SourceParams) (*Source, error) {
	if params.Fetcher == nil {
		return nil, errors.New("catalog fetcher required")
	}
	cache := params.Cache
	if cache == nil {
		cache = NewCache(DefaultCacheTTL, nil)
	}
	return &Source{
		fetcher:  params.Fetcher,
		cache:    cache,
		observer: params.Observer,
		logg:     params.Logger,
	}, nil
}

// Products returns the catalog. On fetch failure it serves the stale cache,
// or an empty list when nothing was ever fetched.
func (s *Source) Products(ctx context.Context) []*Product {
	if products, fresh := s.cache.Get(); fresh {
		s.hit()
		return products
	}
	s.miss()

	products, err := s.Refresh(ctx)
	if err != nil {
		if s.observer != nil {
			s.observer.CatalogRefreshFailed()
		}
		stale, _ := s.cache.Get()
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"error":        err.Error(),
				"stale_served": stale != nil,
			}), "catalog.refresh_failed")
		}
		if stale == nil {
			return []*Product{}
		}
		return stale
	}
	return products
}

// Product finds one product by id.
func (s *Source) Product(ctx context.Context, id ProductID) (*Product, bool) {
	if _, fresh := s.cache.Get(); fresh {
		if p, ok := s.cache.Lookup(id); ok {
			s.hit()
			return p, true
		}
	}
	for _, p := range s.Products(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Refresh fetches the full catalog and stores it. Concurrent callers share one
// fetch.
func (s *Source) Refresh(ctx context.Context) ([]*Product, error) {
	v, err, _ := s.group.Do("catalog", func() (any, error) {
		products, err := s.fetchAll(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Put(products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Product), nil
}

func (s *Source) fetchAll(ctx context.Context) ([]*Product, error) {
	raws, err := s.fetcher.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog products: %w", err)
	}

	products := make([]*Product, len(raws))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(detailConcurrency)
	for i, raw := range raws {
		eg.Go(func() error {
			if raw.Variants.IsList() && len(raw.Variants.List()) > 0 {
				products[i] = Normalize(raw, nil)
				return nil
			}
			detail, err := s.fetcher.ProductVariants(egCtx, raw.ID)
			if err != nil && s.logg != nil {
				s.logg.Warn(s.logg.WithFields(egCtx, map[string]any{
					"product_id": raw.ID.String(),
					"error":      err.Error(),
				}), "catalog.variants_unavailable")
			}
			products[i] = Normalize(raw, detail)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Source) hit() {
	if s.observer != nil {
		s.observer.CatalogCacheHit()
	}
}

func (s *Source) miss() {
	if s.observer != nil {
		s.observer.CatalogCacheMiss()
	}
}
