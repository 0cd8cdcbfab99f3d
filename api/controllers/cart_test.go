package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/middleware"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/storage"
)

type failingBackend struct {
	*storage.Memory
}

func (f failingBackend) Save(ctx context.Context, scope, name string, value []byte) error {
	return errors.New("write refused")
}

func newCartService(t *testing.T, backend storage.Backend) cartsvc.Service {
	t.Helper()
	svc, err := cartsvc.NewService(cartsvc.ServiceParams{
		Backend: backend,
		Catalog: newCatalogService(t, stubLister{products: catalogFixture(3)}),
	})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	return svc
}

func sessionRequest(method, target, body, sessionID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithSessionID(req.Context(), sessionID))
}

func decodeCart(t *testing.T, resp *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func TestCartAddRemoveFlow(t *testing.T) {
	svc := newCartService(t, storage.NewMemory())
	add := CartAddItem(svc, nil)

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		add.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`, "sess-1"))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
		}
	}

	resp := httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodGet, "/api/v1/cart", "", "sess-1"))
	cart := decodeCart(t, resp)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 || cart.Quantity != 2 {
		t.Fatalf("unexpected cart %+v", cart)
	}
	if cart.Total != "3.98" || cart.Items[0].Subtotal != "3.98" {
		t.Fatalf("unexpected totals %+v", cart)
	}

	resp = httptest.NewRecorder()
	CartRemoveItem(svc, nil).ServeHTTP(resp, withURLParam(sessionRequest(http.MethodDelete, "/api/v1/cart/items/1", "", "sess-1"), "productId", "1"))
	if cart := decodeCart(t, resp); cart.Items[0].Quantity != 1 || cart.Total != "1.99" {
		t.Fatalf("unexpected cart after remove %+v", cart)
	}

	resp = httptest.NewRecorder()
	CartTotal(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodGet, "/api/v1/cart/total", "", "sess-1"))
	var total struct {
		Data cartTotalResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&total); err != nil {
		t.Fatalf("decode total: %v", err)
	}
	if total.Data.Total != "1.99" {
		t.Fatalf("unexpected total %q", total.Data.Total)
	}

	resp = httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodDelete, "/api/v1/cart", "", "sess-1"))
	if cart := decodeCart(t, resp); len(cart.Items) != 0 || cart.Total != "0.00" {
		t.Fatalf("expected empty cart after clear, got %+v", cart)
	}
}

func TestCartRemoveAbsentItemReturnsNotFound(t *testing.T) {
	svc := newCartService(t, storage.NewMemory())

	resp := httptest.NewRecorder()
	CartRemoveItem(svc, nil).ServeHTTP(resp, withURLParam(sessionRequest(http.MethodDelete, "/api/v1/cart/items/2", "", "sess-1"), "productId", "2"))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartAddValidation(t *testing.T) {
	svc := newCartService(t, storage.NewMemory())
	add := CartAddItem(svc, nil)

	for _, body := range []string{`{}`, `{"product_id":0}`, `{"product_id":"1"}`, `not json`} {
		resp := httptest.NewRecorder()
		add.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/cart/items", body, "sess-1"))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	add.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":99}`, "sess-1"))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unknown product: expected 404 got %d", resp.Code)
	}
}

func TestCartPersistFailureReturnsServiceUnavailable(t *testing.T) {
	svc := newCartService(t, failingBackend{Memory: storage.NewMemory()})

	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`, "sess-1"))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestCartRequiresSession(t *testing.T) {
	svc := newCartService(t, storage.NewMemory())

	resp := httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestNewCartResponseFormatsMoney(t *testing.T) {
	view := cartsvc.View{
		Items:    []cartsvc.LineItem{{ID: 1, Title: "a", Price: 10, Quantity: 2}},
		Total:    decimal.NewFromInt(20),
		Quantity: 2,
	}
	got := newCartResponse(view)
	if got.Total != "20.00" || got.Items[0].Subtotal != "20.00" {
		t.Fatalf("unexpected formatting %+v", got)
	}
}
