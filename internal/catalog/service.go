package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"golang.org/x/sync/singleflight"
)

const defaultCacheTTL = 10 * time.Minute

// Lister is the upstream surface the service caches.
type Lister interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// Service exposes the catalog view: cached listing, title search and pagination.
type Service interface {
	List(ctx context.Context, q Query) (*Page, error)
	Get(ctx context.Context, id int) (Product, error)
}

// Query describes one catalog view request.
type Query struct {
	Search  string
	Page    int
	PerPage int
}

// Page is one resolved page of the filtered catalog.
type Page struct {
	Items  []Product
	Search string
	pagination.Window
}

// ServiceParams wires the catalog service.
type ServiceParams struct {
	Lister   Lister
	CacheTTL time.Duration
	PageSize int
	Logger   *logger.Logger
	Metrics  *metrics.CatalogMetrics
	Now      func() time.Time
}

type service struct {
	lister   Lister
	ttl      time.Duration
	pageSize int
	logg     *logger.Logger
	metrics  *metrics.CatalogMetrics
	now      func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	products  []Product
	byID      map[int]Product
	fetchedAt time.Time
}

// NewService builds a catalog service backed by the provided lister.
func NewService(params ServiceParams) (Service, error) {
	if params.Lister == nil {
		return nil, fmt.Errorf("catalog lister required")
	}
	svc := &service{
		lister:   params.Lister,
		ttl:      params.CacheTTL,
		pageSize: pagination.NormalizePerPage(params.PageSize),
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      params.Now,
	}
	if svc.ttl <= 0 {
		svc.ttl = defaultCacheTTL
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// List filters the cached catalog by title and returns the requested page. Pages past
// the end clamp to the last page.
func (s *service) List(ctx context.Context, q Query) (*Page, error) {
	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = s.pageSize
	}
	filtered := Filter(products, q.Search)
	window := pagination.Resolve(pagination.Params{Page: q.Page, PerPage: perPage}, len(filtered))

	items := make([]Product, window.End-window.Start)
	copy(items, filtered[window.Start:window.End])
	return &Page{Items: items, Search: q.Search, Window: window}, nil
}

// Get returns one product by id from the cached catalog.
func (s *service) Get(ctx context.Context, id int) (Product, error) {
	if id <= 0 {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	if _, err := s.load(ctx); err != nil {
		return Product{}, err
	}

	s.mu.RLock()
	product, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"product_id": id})
	}
	return product, nil
}

func (s *service) load(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	cached, fetchedAt := s.products, s.fetchedAt
	s.mu.RUnlock()
	if cached != nil && s.now().Sub(fetchedAt) < s.ttl {
		return cached, nil
	}

	result, err, _ := s.group.Do("products", func() (any, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		if cached != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog.refresh_failed_serving_stale")
			return cached, nil
		}
		return nil, err
	}
	return result.([]Product), nil
}

func (s *service) refresh(ctx context.Context) ([]Product, error) {
	start := s.now()
	products, err := s.lister.ListProducts(ctx)
	if err != nil {
		s.metrics.ObserveFetch("error", s.now().Sub(start))
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog unavailable")
		}
		return nil, err
	}
	s.metrics.ObserveFetch("ok", s.now().Sub(start))

	if products == nil {
		products = []Product{}
	}
	byID := make(map[int]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	s.mu.Lock()
	s.products = products
	s.byID = byID
	s.fetchedAt = s.now()
	s.mu.Unlock()

	s.logg.Info(s.logg.WithField(ctx, "product_count", len(products)), "catalog.refreshed")
	return products, nil
}
