package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"warungmadura/internal/auth"
	"warungmadura/internal/domain"
	"warungmadura/internal/events"
	"warungmadura/internal/repository"
	"warungmadura/internal/service"
)

type testEnv struct {
	srv   *Server
	keys  *auth.Keys
	repos repository.Repositories
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	keys := auth.NewKeys("handler-test-secret-123", time.Hour)
	pub := &events.RecordingPublisher{}
	svc := Services{
		Sessions: auth.NewManager(keys, repos.Roles),
		Catalog:  service.NewCatalogService(repos.Categories, repos.Products),
		Cart:     service.NewCartService(repos.Carts, repos.Products, repos.Tx),
		Checkout: service.NewCheckoutService(repos.Carts, repos.Products, repos.Orders, repos.Tx, pub),
		Orders:   service.NewOrderService(repos.Orders),
		Admin:    service.NewAdminService(repos.Products, repos.Categories, repos.Orders, pub),
		Profiles: service.NewProfileService(repos.Profiles),
	}
	return &testEnv{srv: NewServer(svc, []string{"*"}), keys: keys, repos: repos}
}

func (e *testEnv) token(t *testing.T, admin bool) string {
	t.Helper()
	id := uuid.New()
	if admin {
		if err := e.repos.Roles.Grant(context.Background(), id, domain.RoleAdmin); err != nil {
			t.Fatal(err)
		}
	}
	tok, err := e.keys.Issue(id, id.String()+"@warung.test")
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func doJSON(t *testing.T, e *testEnv, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.srv.Engine().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthAndTraceID(t *testing.T) {
	e := setupServer(t)
	w := doJSON(t, e, http.MethodGet, "/health", "", nil, "X-Request-ID", "trace-42")
	if w.Code != http.StatusOK {
		t.Fatalf("health %v", w.Code)
	}
	if w.Header().Get("X-Request-ID") != "trace-42" {
		t.Fatalf("trace id not echoed")
	}
}

func TestAuthAndAdminGates(t *testing.T) {
	e := setupServer(t)
	if w := doJSON(t, e, http.MethodGet, "/api/v1/cart", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %v", w.Code)
	}
	user := e.token(t, false)
	if w := doJSON(t, e, http.MethodGet, "/api/v1/admin/orders", user, nil); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin: %v", w.Code)
	}
	admin := e.token(t, true)
	if w := doJSON(t, e, http.MethodGet, "/api/v1/admin/orders", admin, nil); w.Code != http.StatusOK {
		t.Fatalf("admin: %v", w.Code)
	}

	if w := doJSON(t, e, http.MethodPost, "/api/v1/auth/logout", user, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout: %v", w.Code)
	}
	if w := doJSON(t, e, http.MethodGet, "/api/v1/me", user, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token: %v", w.Code)
	}
}

type brokenRoles struct{}

func (brokenRoles) Roles(context.Context, uuid.UUID) ([]domain.Role, error) {
	return nil, errors.New("connection refused")
}

func (brokenRoles) Grant(context.Context, uuid.UUID, domain.Role) error {
	return errors.New("connection refused")
}

func TestAuthRoleLookupFailureIsServerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keys := auth.NewKeys("handler-test-secret-123", time.Hour)
	e := &testEnv{srv: NewServer(Services{Sessions: auth.NewManager(keys, brokenRoles{})}, []string{"*"}), keys: keys}

	id := uuid.New()
	tok, err := keys.Issue(id, "budi@warung.test")
	if err != nil {
		t.Fatal(err)
	}
	w := doJSON(t, e, http.MethodGet, "/api/v1/me", tok, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", w.Code)
	}
	if body := decode[map[string]string](t, w); body["error"] != "internal error" {
		t.Fatalf("backend error leaked: %v", body)
	}
	if w := doJSON(t, e, http.MethodGet, "/api/v1/me", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %v", w.Code)
	}
}

func TestStorefrontFlow(t *testing.T) {
	e := setupServer(t)
	admin := e.token(t, true)
	user := e.token(t, false)

	// каталог
	w := doJSON(t, e, http.MethodPost, "/api/v1/admin/categories", admin, map[string]any{"name": "Obat Bebas"})
	if w.Code != http.StatusCreated {
		t.Fatalf("category %v %s", w.Code, w.Body)
	}
	cat := decode[domain.Category](t, w)

	w = doJSON(t, e, http.MethodPost, "/api/v1/admin/products", admin, map[string]any{
		"name": "Paracetamol 500mg", "price": 8000, "stock": 10, "category_id": cat.ID, "is_popular": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("product %v %s", w.Code, w.Body)
	}
	prod := decode[domain.Product](t, w)
	if prod.Slug != "paracetamol-500mg" {
		t.Fatalf("slug %q", prod.Slug)
	}
	w = doJSON(t, e, http.MethodPost, "/api/v1/admin/products", admin, map[string]any{"name": "Paracetamol 500MG", "price": 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate slug %v", w.Code)
	}

	w = doJSON(t, e, http.MethodGet, "/api/v1/products?category=obat-bebas&q=para", "", nil)
	if list := decode[[]domain.Product](t, w); len(list) != 1 {
		t.Fatalf("catalog list %d", len(list))
	}
	if w = doJSON(t, e, http.MethodGet, "/api/v1/products/paracetamol-500mg", "", nil); w.Code != http.StatusOK {
		t.Fatalf("product detail %v", w.Code)
	}

	// корзина
	w = doJSON(t, e, http.MethodPost, "/api/v1/cart/items", user, map[string]any{"product_id": prod.ID, "quantity": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("add %v %s", w.Code, w.Body)
	}
	cart := decode[service.CartView](t, w)
	itemID := cart.Items[0].ID
	if w = doJSON(t, e, http.MethodPut, "/api/v1/cart/items/"+itemID.String(), user, map[string]any{"quantity": 0}); w.Code != http.StatusBadRequest {
		t.Fatalf("qty 0: %v", w.Code)
	}
	if w = doJSON(t, e, http.MethodPut, "/api/v1/cart/items/"+itemID.String(), user, map[string]any{"quantity": 99}); w.Code != http.StatusConflict {
		t.Fatalf("qty over stock: %v", w.Code)
	}

	// оформление
	if w = doJSON(t, e, http.MethodPost, "/api/v1/checkout", user, map[string]any{"shipping_address": " "}); w.Code != http.StatusBadRequest {
		t.Fatalf("empty address: %v", w.Code)
	}
	w = doJSON(t, e, http.MethodPost, "/api/v1/checkout", user, map[string]any{"shipping_address": "Jl. Merdeka 1"}, "Idempotency-Key", "k-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout %v %s", w.Code, w.Body)
	}
	order := decode[domain.Order](t, w)
	if order.TotalAmount.String() != "16000" || order.Status != domain.OrderStatusPending {
		t.Fatalf("order %+v", order)
	}
	w = doJSON(t, e, http.MethodPost, "/api/v1/checkout", user, map[string]any{"shipping_address": "Jl. Merdeka 1"}, "Idempotency-Key", "k-1")
	if again := decode[domain.Order](t, w); again.ID != order.ID {
		t.Fatalf("replay returned a new order")
	}
	if w = doJSON(t, e, http.MethodPost, "/api/v1/checkout", user, map[string]any{"shipping_address": "Jl. Merdeka 1"}); w.Code != http.StatusBadRequest {
		t.Fatalf("empty cart: %v", w.Code)
	}

	// история и счёт
	w = doJSON(t, e, http.MethodGet, "/api/v1/orders", user, nil)
	if list := decode[[]domain.Order](t, w); len(list) != 1 || len(list[0].Items) != 1 {
		t.Fatalf("history %+v", list)
	}
	w = doJSON(t, e, http.MethodGet, "/api/v1/orders/"+order.ID.String()+"/invoice", user, nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("invoice %v %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "invoice-"+order.OrderNumber+".txt") {
		t.Fatalf("disposition %q", w.Header().Get("Content-Disposition"))
	}
	stranger := e.token(t, false)
	if w = doJSON(t, e, http.MethodGet, "/api/v1/orders/"+order.ID.String(), stranger, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign order: %v", w.Code)
	}

	// админка
	w = doJSON(t, e, http.MethodPut, "/api/v1/admin/orders/"+order.ID.String()+"/status", admin, map[string]any{"status": "shipped"})
	if w.Code != http.StatusOK || decode[domain.Order](t, w).Status != domain.OrderStatusShipped {
		t.Fatalf("status update %v %s", w.Code, w.Body)
	}
	if w = doJSON(t, e, http.MethodPut, "/api/v1/admin/orders/"+order.ID.String()+"/status", admin, map[string]any{"status": "lost"}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad status: %v", w.Code)
	}
	w = doJSON(t, e, http.MethodGet, "/api/v1/admin/products/export", admin, nil)
	if w.Code != http.StatusOK || !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("export %v", w.Code)
	}
	if w = doJSON(t, e, http.MethodDelete, "/api/v1/admin/products/"+prod.ID.String(), admin, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete %v", w.Code)
	}
	if w = doJSON(t, e, http.MethodGet, "/api/v1/orders/not-a-uuid", user, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %v", w.Code)
	}
}

func TestProfileFlow(t *testing.T) {
	e := setupServer(t)
	user := e.token(t, false)

	w := doJSON(t, e, http.MethodPut, "/api/v1/me/profile", user, map[string]any{"full_name": "Siti", "phone": "0813", "address": "Jl. Anggrek 7"})
	if w.Code != http.StatusOK {
		t.Fatalf("update %v %s", w.Code, w.Body)
	}
	w = doJSON(t, e, http.MethodGet, "/api/v1/me", user, nil)
	me := decode[map[string]any](t, w)
	profile, _ := me["profile"].(map[string]any)
	if me["is_admin"] != false || profile["full_name"] != "Siti" {
		t.Fatalf("me %v", me)
	}
}
