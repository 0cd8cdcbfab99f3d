package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/storage"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
)

const lockStripes = 64

type productLoader interface {
	Get(ctx context.Context, id int) (catalog.Product, error)
}

// View is the cart as presented to consumers.
type View struct {
	Items    []LineItem
	Total    decimal.Decimal
	Quantity int
}

// Service is the cart surface handed to controllers and the CLI. scope identifies the
// durable storage scope of one session.
type Service interface {
	Items(ctx context.Context, scope string) (View, error)
	AddToCart(ctx context.Context, scope string, productID int) (View, error)
	RemoveFromCart(ctx context.Context, scope string, productID int) (View, error)
	ClearCart(ctx context.Context, scope string) (View, error)
	CartTotal(ctx context.Context, scope string) (decimal.Decimal, error)
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Backend storage.Backend
	Catalog productLoader
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
}

type service struct {
	backend storage.Backend
	catalog productLoader
	logg    *logger.Logger
	metrics *metrics.CartMetrics

	stripes [lockStripes]sync.Mutex
}

// NewService builds a cart service backed by the provided slot backend and catalog.
func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("slot backend required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		backend: params.Backend,
		catalog: params.Catalog,
		logg:    logg,
		metrics: params.Metrics,
	}, nil
}

func (s *service) Items(ctx context.Context, scope string) (View, error) {
	var view View
	err := s.withStore(ctx, scope, func(store *Store) error {
		view = viewOf(store)
		return nil
	})
	return view, err
}

func (s *service) AddToCart(ctx context.Context, scope string, productID int) (View, error) {
	if err := requireScope(scope); err != nil {
		return View{}, err
	}
	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return View{}, err
	}

	var view View
	err = s.withStore(ctx, scope, func(store *Store) error {
		if err := store.AddItem(ctx, product); err != nil {
			return err
		}
		view = viewOf(store)
		return nil
	})
	return view, err
}

func (s *service) RemoveFromCart(ctx context.Context, scope string, productID int) (View, error) {
	var view View
	err := s.withStore(ctx, scope, func(store *Store) error {
		if err := store.RemoveItem(ctx, productID); err != nil {
			return err
		}
		view = viewOf(store)
		return nil
	})
	return view, err
}

func (s *service) ClearCart(ctx context.Context, scope string) (View, error) {
	var view View
	err := s.withStore(ctx, scope, func(store *Store) error {
		if err := store.Clear(ctx); err != nil {
			return err
		}
		view = viewOf(store)
		return nil
	})
	return view, err
}

func (s *service) CartTotal(ctx context.Context, scope string) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.withStore(ctx, scope, func(store *Store) error {
		total = store.Total()
		return nil
	})
	return total, err
}

// withStore runs fn against a freshly opened store while holding the stripe lock of
// scope, so load-mutate-persist cycles of one scope never interleave in-process.
// Remote lookups happen before the lock is taken.
func (s *service) withStore(ctx context.Context, scope string, fn func(*Store) error) error {
	mu := &s.stripes[xxhash.Sum64String(scope)%lockStripes]
	mu.Lock()
	defer mu.Unlock()

	store, err := Open(ctx, s.backend, scope, Options{Logger: s.logg, Metrics: s.metrics})
	if err != nil {
		return err
	}
	return fn(store)
}

func requireScope(scope string) error {
	if strings.TrimSpace(scope) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session scope required")
	}
	return nil
}

func viewOf(store *Store) View {
	return View{
		Items:    store.Items(),
		Total:    store.Total(),
		Quantity: store.Quantity(),
	}
}
