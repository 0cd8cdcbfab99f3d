package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/storage"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

type stubLister struct{}

func (stubLister) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return []catalog.Product{
		{ID: 1, Title: "Mens Cotton Jacket", Price: 55.99},
		{ID: 2, Title: "Womens Rain Jacket", Price: 39.99},
	}, nil
}

func newTestRouter(t *testing.T, limit int) http.Handler {
	t.Helper()
	cfg := &config.Config{
		App:     config.AppConfig{Env: "dev"},
		Storage: config.StorageConfig{Backend: "memory"},
		Session: config.SessionConfig{
			Secret:     "secret",
			Issuer:     "storefront",
			TTL:        time.Hour,
			CookieName: "sf_session",
		},
		RateLimit: config.RateLimitConfig{Window: time.Minute, Limit: limit},
	}
	reg := prometheus.NewRegistry()
	logg := logger.Nop()

	catalogService, err := catalog.NewService(catalog.ServiceParams{Lister: stubLister{}, PageSize: 4, Logger: logg})
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	slots := storage.NewMemory()
	cartService, err := cart.NewService(cart.ServiceParams{
		Backend: slots,
		Catalog: catalogService,
		Logger:  logg,
		Metrics: metrics.NewCartMetrics(reg),
	})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}

	return NewRouter(cfg, logg, slots, reg, middleware.NewMemoryRateStore(), catalogService, cartService)
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, 0)
	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestCartSessionPersistsAcrossRequests(t *testing.T) {
	router := newTestRouter(t, 0)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":1}`)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	token := resp.Header().Get(middleware.SessionHeader)
	if token == "" {
		t.Fatal("expected session token on first request")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(middleware.SessionHeader, token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var envelope struct {
		Data struct {
			Items []struct {
				ID       int `json:"id"`
				Quantity int `json:"quantity"`
			} `json:"items"`
			Total string `json:"total"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Total != "55.99" {
		t.Fatalf("unexpected cart %+v", envelope.Data)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if strings.Contains(resp.Body.String(), "55.99") {
		t.Fatal("a new session must start with an empty cart")
	}
}

func TestProductRoutes(t *testing.T) {
	router := newTestRouter(t, 0)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products?q=rain", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "Womens Rain Jacket") {
		t.Fatalf("unexpected product list %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products/2", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCartMutationsAreRateLimited(t *testing.T) {
	router := newTestRouter(t, 1)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":1}`)))
	token := resp.Header().Get(middleware.SessionHeader)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":1}`))
		req.Header.Set(middleware.SessionHeader, token)
		resp = httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("request %d: expected %d got %d", i, want, resp.Code)
		}
	}
}

func TestCookielessMutationsShareClientLimit(t *testing.T) {
	router := newTestRouter(t, 2)

	accepted := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":1}`))
		req.RemoteAddr = "203.0.113.7:5555"
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		switch resp.Code {
		case http.StatusOK:
			accepted++
		case http.StatusTooManyRequests:
		default:
			t.Fatalf("unexpected status %d", resp.Code)
		}
	}
	if accepted != 2 {
		t.Fatalf("expected 2 of 10 cookieless mutations accepted, got %d", accepted)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, 0)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":2}`)))

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "cart_mutations_total") {
		t.Fatalf("expected cart metrics in exposition, got %s", resp.Body.String())
	}
}
