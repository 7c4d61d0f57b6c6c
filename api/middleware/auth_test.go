package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgauth "github.com/pricepilot/pricepilot-backend/pkg/auth"
	"github.com/pricepilot/pricepilot-backend/pkg/config"
)

var authTestCfg = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "pricepilot",
	ExpirationMinutes: 30,
	RefreshTTLHours:   336,
}

type stubChecker struct {
	known map[string]bool
	err   error
}

func (s *stubChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.known[accessID], nil
}

func mintToken(t *testing.T, userID, displayName, jti string) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(authTestCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID:      userID,
		DisplayName: displayName,
		JTI:         jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthSeedsActor(t *testing.T) {
	checker := &stubChecker{known: map[string]bool{"jti-1": true}}

	var seen bool
	handler := Auth(authTestCfg, checker, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = true
		actor := ActorFromContext(r.Context())
		if actor.ID != "user-1" || actor.DisplayName != "Alice" {
			t.Fatalf("unexpected actor %+v", actor)
		}
		if got := AccessIDFromContext(r.Context()); got != "jti-1" {
			t.Fatalf("unexpected access id %q", got)
		}
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+mintToken(t, "user-1", "Alice", "jti-1"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if !seen {
		t.Fatalf("handler not reached, status %d body %s", w.Code, w.Body.String())
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handler := Auth(authTestCfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	checker := &stubChecker{known: map[string]bool{}}
	handler := Auth(authTestCfg, checker, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+mintToken(t, "user-1", "Alice", "jti-gone"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	handler := Auth(authTestCfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
