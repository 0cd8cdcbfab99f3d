package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	mu       sync.Mutex
	products []Product
	err      error
	calls    int
}

func (s *stubLister) ListProducts(ctx context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func (s *stubLister) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func sampleProducts(n int) []Product {
	out := make([]Product, 0, n)
	for i := 1; i <= n; i++ {
		title := fmt.Sprintf("Shirt %d", i)
		if i%2 == 0 {
			title = fmt.Sprintf("Backpack %d", i)
		}
		out = append(out, Product{ID: i, Title: title, Price: float64(i) * 10})
	}
	return out
}

func newTestService(t *testing.T, lister Lister, clock *fakeClock) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Lister:   lister,
		CacheTTL: time.Minute,
		PageSize: 4,
		Now:      clock.Now,
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresLister(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestListPaginatesWithDefaultPageSize(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	svc := newTestService(t, &stubLister{products: sampleProducts(10)}, clock)

	page, err := svc.List(context.Background(), Query{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 10, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 9, page.Items[0].ID)
	assert.Equal(t, 10, page.Items[1].ID)
}

func TestListSearchIsCaseInsensitive(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	svc := newTestService(t, &stubLister{products: sampleProducts(10)}, clock)

	page, err := svc.List(context.Background(), Query{Search: "BACKPACK", Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	for _, item := range page.Items {
		assert.Contains(t, item.Title, "Backpack")
	}
}

func TestListClampsPageAndHandlesEmptyResults(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	svc := newTestService(t, &stubLister{products: sampleProducts(5)}, clock)

	page, err := svc.List(context.Background(), Query{Page: 99})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 1)

	empty, err := svc.List(context.Background(), Query{Search: "nothing matches"})
	require.NoError(t, err)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 0, empty.TotalPages)
	assert.Empty(t, empty.Items)
}

func TestCatalogIsCachedUntilTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	lister := &stubLister{products: sampleProducts(3)}
	svc := newTestService(t, lister, clock)

	_, err := svc.List(context.Background(), Query{})
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, lister.calls)

	clock.now = clock.now.Add(2 * time.Minute)
	_, err = svc.List(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, 2, lister.calls)
}

func TestStaleCatalogServedWhenRefreshFails(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	lister := &stubLister{products: sampleProducts(3)}
	svc := newTestService(t, lister, clock)

	_, err := svc.List(context.Background(), Query{})
	require.NoError(t, err)

	lister.setErr(errors.New("upstream down"))
	clock.now = clock.now.Add(2 * time.Minute)

	page, err := svc.List(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}

func TestListFailsWithoutCache(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	svc := newTestService(t, &stubLister{err: errors.New("dial tcp: refused")}, clock)

	_, err := svc.List(context.Background(), Query{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestGet(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	svc := newTestService(t, &stubLister{products: sampleProducts(3)}, clock)

	product, err := svc.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Shirt 3", product.Title)

	_, err = svc.Get(context.Background(), 42)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Get(context.Background(), 0)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
