package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	authsvc "github.com/pricepilot/pricepilot-backend/internal/auth"
	"github.com/pricepilot/pricepilot-backend/internal/entity"
	listsvc "github.com/pricepilot/pricepilot-backend/internal/lists"
	pricesvc "github.com/pricepilot/pricepilot-backend/internal/prices"
	productsvc "github.com/pricepilot/pricepilot-backend/internal/products"
	"github.com/pricepilot/pricepilot-backend/internal/storage/memstore"
	storesvc "github.com/pricepilot/pricepilot-backend/internal/stores"
	usersvc "github.com/pricepilot/pricepilot-backend/internal/users"
	"github.com/pricepilot/pricepilot-backend/pkg/config"
	"github.com/pricepilot/pricepilot-backend/pkg/openfoodfacts"
)

type routerSessions struct {
	tokens map[string]string
	serial int
}

func (s *routerSessions) Generate(ctx context.Context, accessID string) (string, error) {
	s.serial++
	token := fmt.Sprintf("refresh-%d", s.serial)
	s.tokens[accessID] = token
	return token, nil
}

func (s *routerSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", fmt.Errorf("invalid refresh token")
	}
	delete(s.tokens, oldAccessID)
	newAccessID := fmt.Sprintf("access-%d", s.serial)
	token, _ := s.Generate(ctx, newAccessID)
	return newAccessID, token, nil
}

func (s *routerSessions) Revoke(ctx context.Context, accessID string) error {
	delete(s.tokens, accessID)
	return nil
}

func (s *routerSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	_, ok := s.tokens[accessID]
	return ok, nil
}

type noLookup struct{}

func (noLookup) Lookup(ctx context.Context, barcode string) (*openfoodfacts.Product, error) {
	return nil, fmt.Errorf("lookup not wired in tests")
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{
		Secret:            "router-test-secret",
		Issuer:            "pricepilot",
		ExpirationMinutes: 30,
		RefreshTTLHours:   336,
	}
	cfg.Password = config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	backend := memstore.New()
	clients := entity.NewClients(backend, nil)
	sessions := &routerSessions{tokens: map[string]string{}}

	authService, err := authsvc.NewService(clients.Users, sessions, cfg.JWT, cfg.Password)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	productService, err := productsvc.NewService(clients.Products, noLookup{})
	if err != nil {
		t.Fatalf("product service: %v", err)
	}
	priceService, err := pricesvc.NewService(clients.Prices)
	if err != nil {
		t.Fatalf("price service: %v", err)
	}
	storeService, err := storesvc.NewService(clients.Stores, clients.Prices, nil)
	if err != nil {
		t.Fatalf("store service: %v", err)
	}
	listService, err := listsvc.NewService(clients.Lists)
	if err != nil {
		t.Fatalf("list service: %v", err)
	}
	userService, err := usersvc.NewService(clients.Users)
	if err != nil {
		t.Fatalf("user service: %v", err)
	}

	return NewRouter(cfg, nil, backend, nil, sessions, Services{
		Auth:     authService,
		Products: productService,
		Prices:   priceService,
		Stores:   storeService,
		Lists:    listService,
		Users:    userService,
	})
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func registerUser(t *testing.T, handler http.Handler) string {
	t.Helper()
	w := doJSON(t, handler, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":     "alice@example.com",
		"password":  "hunter2hunter2",
		"full_name": "Alice",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", w.Code, w.Body.String())
	}
	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if envelope.Data.AccessToken == "" {
		t.Fatal("register returned no access token")
	}
	return envelope.Data.AccessToken
}

func TestHealthLive(t *testing.T) {
	handler := newTestRouter(t)
	w := doJSON(t, handler, http.MethodGet, "/health/live", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	handler := newTestRouter(t)
	w := doJSON(t, handler, http.MethodGet, "/api/v1/products/", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body %s", w.Code, w.Body.String())
	}
}

func TestProductLifecycleThroughRouter(t *testing.T) {
	handler := newTestRouter(t)
	token := registerUser(t, handler)

	w := doJSON(t, handler, http.MethodPost, "/api/v1/products/", token, map[string]string{
		"name":     "Whole Milk 1L",
		"brand":    "Acme Dairy",
		"category": "dairy",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Write-Durability"); got != "durable" {
		t.Fatalf("unexpected durability header %q", got)
	}

	var created struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	id, _ := created.Data["id"].(string)
	if id == "" {
		t.Fatalf("created product has no id: %v", created.Data)
	}

	w = doJSON(t, handler, http.MethodGet, "/api/v1/products/"+id+"/", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, handler, http.MethodPost, "/api/v1/products/"+id+"/like", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("like failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, handler, http.MethodDelete, "/api/v1/products/"+id+"/", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, handler, http.MethodGet, "/api/v1/products/"+id+"/", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestFastListEndpoint(t *testing.T) {
	handler := newTestRouter(t)
	token := registerUser(t, handler)

	w := doJSON(t, handler, http.MethodPost, "/api/v1/lists/fast", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fast list failed: %d %s", w.Code, w.Body.String())
	}
	var first struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&first); err != nil {
		t.Fatalf("decode fast list: %v", err)
	}

	w = doJSON(t, handler, http.MethodPost, "/api/v1/lists/fast", token, nil)
	var second struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&second); err != nil {
		t.Fatalf("decode fast list: %v", err)
	}
	if first.Data["id"] != second.Data["id"] {
		t.Fatalf("fast list not reused: %v vs %v", first.Data["id"], second.Data["id"])
	}
}
