package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"manware/pos/internal/cache"
	"manware/pos/internal/domain"
	"manware/pos/internal/service"
	"manware/pos/internal/store"
)

// newTestAPI builds a full API with a noop repository, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	svc := service.New(store.Noop{}, cache.NoopCatalogCache{}, time.Minute)
	auth := NewAuthManager("test-secret-key-for-unit-tests!!", 8*time.Hour, time.Hour, []SeedUser{
		{Username: "admin", Password: "admin-pass-123", Role: RoleAdmin},
		{Username: "cashier", Password: "cashier-pass-123", Role: RoleCashier},
	})

	return New(svc, auth, "*")
}

func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d (%s)", username, rec.Code, rec.Body.String())
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	return body.AccessToken
}

func doJSON(t *testing.T, api *API, handler http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", api.generateCSRFToken())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_RateLimit(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	// The loginLimiter allows 5 attempts per minute from one address.
	payload, _ := json.Marshal(map[string]string{"username": "admin", "password": "badpass"})
	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on sixth attempt, got %d", last)
	}
}

func TestProductsRequireAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin-pass-123")

	payload, _ := json.Marshal(domain.ProductCreateRequest{Brand: "Levi's", Type: domain.ProductTypeJeans})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without CSRF token, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestCheckoutForbiddenForCashier(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "cashier", "cashier-pass-123")

	rec := doJSON(t, api, handler, http.MethodPost, "/api/v1/checkout", token, domain.CheckoutRequest{})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier checkout, got %d", rec.Code)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin-pass-123")

	rec := doJSON(t, api, handler, http.MethodPost, "/api/v1/products", token, domain.ProductCreateRequest{
		Brand:        "Levi's",
		Type:         domain.ProductTypeJeans,
		Color:        "Black",
		Size:         "34",
		ProfitMargin: 100,
		TaxRatePct:   10,
		InitialStock: 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: %d (%s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Product domain.Product `json:"product"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode product: %v", err)
	}

	rec = doJSON(t, api, handler, http.MethodPost, "/api/v1/checkout", token, domain.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: created.Product.ID, Quantity: 2}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: %d (%s)", rec.Code, rec.Body.String())
	}
	var receipt domain.CheckoutResponse
	if err := json.NewDecoder(rec.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}

	rec = doJSON(t, api, handler, http.MethodGet, "/api/v1/orders?view=pending", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending orders: %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), receipt.TransactionID) {
		t.Fatalf("expected order %s in pending view", receipt.TransactionID)
	}

	rec = doJSON(t, api, handler, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/pay", receipt.TransactionID), token, domain.PaymentRequest{Method: domain.PayCash})
	if rec.Code != http.StatusOK {
		t.Fatalf("pay: %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, handler, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/pay", receipt.TransactionID), token, domain.PaymentRequest{Method: domain.PayCash})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double pay, got %d", rec.Code)
	}

	rec = doJSON(t, api, handler, http.MethodGet, "/api/v1/reports/daily?format=csv", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("daily report: %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("expected csv content type, got %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "gross_sales") {
		t.Fatalf("expected csv body, got %q", rec.Body.String())
	}
}

func TestShopCatalogIsPublic(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shop/catalog", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestShopBookingSkipsCSRF(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin-pass-123")

	rec := doJSON(t, api, handler, http.MethodPost, "/api/v1/products", token, domain.ProductCreateRequest{
		Brand:        "Levi's",
		Type:         domain.ProductTypeChinos,
		ProfitMargin: 50,
		InitialStock: 4,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: %d (%s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Product domain.Product `json:"product"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode product: %v", err)
	}

	// Booking is CSRF-exempt: no X-CSRF-Token header at all.
	payload, _ := json.Marshal(domain.BookingRequest{
		Lines: []domain.CartLine{{ProductID: created.Product.ID, Quantity: 1}},
		Name:  "Abena Osei",
		Phone: "0209876543",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shop/bookings", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRegisterCustomerEndpoint(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(domain.RegisterCustomerRequest{
		Name:     "Kofi Mensah",
		Phone:    "0551234567",
		Password: "secret-pass",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	token := loginAs(t, handler, "0551234567", "secret-pass")
	if token == "" {
		t.Fatalf("expected customer token")
	}
}
