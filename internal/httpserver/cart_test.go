package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/kv"
)

func decodeCartBody(t *testing.T, body string) domain.Cart {
	t.Helper()
	var c domain.Cart
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		t.Fatalf("decode response %q: %v", body, err)
	}
	return c
}

func TestCartEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t, kv.NewMemory(), "")

	// Empty cart to start.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get cart: expected 200, got %d", rec.Code)
	}
	if c := decodeCartBody(t, rec.Body.String()); len(c.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", c)
	}

	// Add two of product 7.
	body := `{"product":{"id":7,"name":"Mug","priceCents":1000,"stock":5},"quantity":2}`
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if c := decodeCartBody(t, rec.Body.String()); c.TotalItems != 2 || c.TotalAmountCents != 2000 {
		t.Fatalf("unexpected cart after add: %+v", c)
	}

	// Set quantity to 5.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/cart/items/7", strings.NewReader(`{"quantity":5}`)))
	if c := decodeCartBody(t, rec.Body.String()); c.TotalItems != 5 || c.TotalAmountCents != 5000 {
		t.Fatalf("unexpected cart after update: %+v", c)
	}

	// Badge projection.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart/count", nil))
	if !strings.Contains(rec.Body.String(), `"count":5`) {
		t.Fatalf("unexpected count body: %s", rec.Body.String())
	}

	// Remove the line.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/cart/items/7", nil))
	if c := decodeCartBody(t, rec.Body.String()); len(c.Items) != 0 || c.TotalItems != 0 {
		t.Fatalf("unexpected cart after remove: %+v", c)
	}

	// Clear is idempotent on an already-empty cart.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/cart", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("clear: expected 200, got %d", rec.Code)
	}
}

func TestCartEndpointValidation(t *testing.T) {
	router, _, _ := newTestRouter(t, kv.NewMemory(), "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader("{broken")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"quantity":1}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing product, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/cart/items/abc", strings.NewReader(`{"quantity":1}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad product id, got %d", rec.Code)
	}
}

func TestSessionEndpointsMergeGuestCart(t *testing.T) {
	router, _, _ := newTestRouter(t, kv.NewMemory(), "")

	// Guest adds an item.
	body := `{"product":{"id":3,"name":"Cap","priceCents":500},"quantity":1}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d", rec.Code)
	}

	// Login: guest cart follows into the user slot.
	login := `{"user":{"id":1,"email":"u@example.com","role":"USER"},"token":"tok"}`
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(login)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if c := decodeCartBody(t, rec.Body.String()); c.TotalItems != 1 || c.Find(3) < 0 {
		t.Fatalf("guest cart not merged after login: %+v", c)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	if !strings.Contains(rec.Body.String(), `"id":1`) {
		t.Fatalf("unexpected session body: %s", rec.Body.String())
	}

	// Logout returns to an empty guest cart.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/session", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if c := decodeCartBody(t, rec.Body.String()); c.TotalItems != 0 {
		t.Fatalf("expected empty guest cart after logout: %+v", c)
	}
}

func TestSessionEndpointValidation(t *testing.T) {
	router, _, _ := newTestRouter(t, kv.NewMemory(), "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"user":{"id":0}}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing user id, got %d", rec.Code)
	}
}

func TestCartEventsStream(t *testing.T) {
	router, _, _ := newTestRouter(t, kv.NewMemory(), "")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/cart/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	// The replayed first event is written immediately; end the stream
	// shortly after so ServeHTTP returns.
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	router.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "event:cart") && !strings.Contains(body, "event: cart") {
		t.Fatalf("expected an SSE cart event, got %q", body)
	}
	if !strings.Contains(body, `"totalItems":0`) {
		t.Fatalf("expected replayed empty cart in stream, got %q", body)
	}
}
