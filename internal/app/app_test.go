package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"storiofy/pkg/apiclient"
	"storiofy/pkg/domain"
	"storiofy/pkg/storage"
)

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": time.Now().Add(ttl).Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newBackend(t *testing.T, accessToken string, refreshes, logouts *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	respond := func(w http.ResponseWriter, access, refresh string) {
		_ = json.NewEncoder(w).Encode(apiclient.AuthResponse{
			User:         domain.User{ID: "u-1", Email: "parent@example.com", FirstName: "Alex"},
			AccessToken:  access,
			RefreshToken: refresh,
		})
	}
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		respond(w, accessToken, "refresh-1")
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if refreshes != nil {
			refreshes.Add(1)
		}
		respond(w, "access-2", "refresh-2")
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if logouts != nil {
			logouts.Add(1)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, backendURL string, st storage.DurableStorage, refreshWindow time.Duration) *App {
	t.Helper()
	a, err := New(Config{
		Storage:       st,
		API:           apiclient.NewClient(backendURL),
		RefreshWindow: refreshWindow,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a
}

func TestLoginStoresSession(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	backend := newBackend(t, "access-1", nil, nil)
	a := newTestApp(t, backend.URL, st, 0)

	b := a.Bundle(ctx, "dev-1")
	snap, err := a.Login(ctx, b, "parent@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !snap.Authenticated || snap.User == nil || snap.User.ID != "u-1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// A new app over the same storage rehydrates the session (reload).
	reloaded := newTestApp(t, backend.URL, st, 0)
	snap2 := reloaded.Bundle(ctx, "dev-1").Session.Snapshot()
	if !snap2.Authenticated || snap2.AccessToken != "access-1" {
		t.Fatalf("expected rehydrated session, got %+v", snap2)
	}
}

func TestBundlesAreScopedPerDevice(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t, "access-1", nil, nil)
	a := newTestApp(t, backend.URL, storage.NewMemoryStorage(), 0)

	b1 := a.Bundle(ctx, "dev-1")
	b2 := a.Bundle(ctx, "dev-2")
	if b1 == b2 {
		t.Fatalf("distinct devices must get distinct bundles")
	}
	if a.Bundle(ctx, "dev-1") != b1 {
		t.Fatalf("same device must get the cached bundle")
	}

	if _, err := a.Login(ctx, b1, "parent@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if b2.Session.Authenticated() {
		t.Fatalf("login on one device must not leak to another")
	}
}

func TestLogoutClearsLocalAndNotifiesBackend(t *testing.T) {
	ctx := context.Background()
	var logouts atomic.Int32
	backend := newBackend(t, "access-1", nil, &logouts)
	a := newTestApp(t, backend.URL, storage.NewMemoryStorage(), 0)

	b := a.Bundle(ctx, "dev-1")
	if _, err := a.Login(ctx, b, "parent@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := a.Logout(ctx, b); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if b.Session.Authenticated() {
		t.Fatalf("expected unauthenticated after logout")
	}
	if logouts.Load() != 1 {
		t.Fatalf("expected backend logout call, got %d", logouts.Load())
	}
	// Idempotent, and no second backend call without tokens.
	if err := a.Logout(ctx, b); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if logouts.Load() != 1 {
		t.Fatalf("logout without session must not call backend")
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	ctx := context.Background()
	var refreshes atomic.Int32
	backend := newBackend(t, "access-1", &refreshes, nil)
	a := newTestApp(t, backend.URL, storage.NewMemoryStorage(), 0)

	b := a.Bundle(ctx, "dev-1")
	if _, err := a.Refresh(ctx, b); err != ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := a.Login(ctx, b, "parent@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	snap, err := a.Refresh(ctx, b)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if snap.AccessToken != "access-2" || snap.RefreshToken != "refresh-2" {
		t.Fatalf("expected rotated tokens, got %+v", snap)
	}
	if refreshes.Load() != 1 {
		t.Fatalf("expected one refresh call, got %d", refreshes.Load())
	}
}

func TestEnsureFreshSessionRefreshesExpiringJWT(t *testing.T) {
	ctx := context.Background()
	var refreshes atomic.Int32
	backend := newBackend(t, signedToken(t, 30*time.Second), &refreshes, nil)
	a := newTestApp(t, backend.URL, storage.NewMemoryStorage(), 2*time.Minute)

	b := a.Bundle(ctx, "dev-1")
	if _, err := a.Login(ctx, b, "parent@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := a.EnsureFreshSession(ctx, b); err != nil {
		t.Fatalf("ensure fresh: %v", err)
	}
	if refreshes.Load() != 1 {
		t.Fatalf("expected refresh for expiring token, got %d", refreshes.Load())
	}
}

func TestEnsureFreshSessionLeavesOpaqueTokensAlone(t *testing.T) {
	ctx := context.Background()
	var refreshes atomic.Int32
	backend := newBackend(t, "opaque-access", &refreshes, nil)
	a := newTestApp(t, backend.URL, storage.NewMemoryStorage(), 2*time.Minute)

	b := a.Bundle(ctx, "dev-1")
	if _, err := a.Login(ctx, b, "parent@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := a.EnsureFreshSession(ctx, b); err != nil {
		t.Fatalf("ensure fresh: %v", err)
	}
	if refreshes.Load() != 0 {
		t.Fatalf("opaque token must not trigger refresh, got %d", refreshes.Load())
	}
}
