// Package app wires the storefront state layer: one durable storage backend
// for the process and one store bundle per device, plus the session
// operations the view layer triggers.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storiofy/pkg/apiclient"
	"storiofy/pkg/domain"
	"storiofy/pkg/storage"
	"storiofy/pkg/store"
)

// ErrNotAuthenticated indicates an operation that needs a session was called
// without one.
var ErrNotAuthenticated = errors.New("not authenticated")

// Config holds runtime configuration for the core application.
type Config struct {
	APIBaseURL     string
	StorageBackend string
	RedisAddr      string
	RedisPassword  string
	DatabaseURL    string
	RefreshWindow  time.Duration

	// Storage and API override the configured backends, used by tests.
	Storage storage.DurableStorage
	API     *apiclient.Client
}

// Bundle is the set of client-side stores scoped to one device, the Go
// equivalent of one browser profile's state layer.
type Bundle struct {
	Session  *store.SessionStore
	Cart     *store.CartStore
	Currency *store.CurrencyStore
}

// App owns the storage backend and the per-device bundles.
type App struct {
	api           *apiclient.Client
	storage       storage.DurableStorage
	refreshWindow time.Duration

	mu      sync.Mutex
	bundles map[string]*Bundle
}

// New constructs the application, opening the configured storage backend.
func New(cfg Config) (*App, error) {
	api := cfg.API
	if api == nil {
		if cfg.APIBaseURL == "" {
			return nil, fmt.Errorf("api base URL required")
		}
		api = apiclient.NewClient(cfg.APIBaseURL)
	}

	backing := cfg.Storage
	if backing == nil {
		switch cfg.StorageBackend {
		case "", "memory":
			backing = storage.NewMemoryStorage()
		case "redis":
			backing = storage.NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword)
		case "postgres":
			var err error
			backing, err = storage.NewGormStorage(cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("init postgres storage: %w", err)
			}
		default:
			return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
		}
	}

	return &App{
		api:           api,
		storage:       backing,
		refreshWindow: cfg.RefreshWindow,
		bundles:       make(map[string]*Bundle),
	}, nil
}

// Bundle returns the store bundle for a device, building and rehydrating it
// on first use. Rehydration runs exactly once per bundle, before any caller
// can observe its state.
func (a *App) Bundle(ctx context.Context, deviceID string) *Bundle {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.bundles[deviceID]; ok {
		return b
	}
	scoped := storage.Namespaced(a.storage, "device:"+deviceID)
	b := &Bundle{
		Session:  store.NewSessionStore(scoped),
		Cart:     store.NewCartStore(),
		Currency: store.NewCurrencyStore(ctx, scoped),
	}
	b.Session.InitializeFromStorage(ctx)
	a.bundles[deviceID] = b
	return b
}

// Login authenticates against the backend and stores the resulting session.
func (a *App) Login(ctx context.Context, b *Bundle, email, password string) (domain.AuthSnapshot, error) {
	resp, err := a.api.Login(email, password)
	if err != nil {
		return domain.AuthSnapshot{}, err
	}
	if err := b.Session.SetAuth(ctx, resp.User, resp.AccessToken, resp.RefreshToken); err != nil {
		return domain.AuthSnapshot{}, fmt.Errorf("store session: %w", err)
	}
	return b.Session.Snapshot(), nil
}

// Register creates an account and stores the resulting session.
func (a *App) Register(ctx context.Context, b *Bundle, req apiclient.RegisterRequest) (domain.AuthSnapshot, error) {
	resp, err := a.api.Register(req)
	if err != nil {
		return domain.AuthSnapshot{}, err
	}
	if err := b.Session.SetAuth(ctx, resp.User, resp.AccessToken, resp.RefreshToken); err != nil {
		return domain.AuthSnapshot{}, fmt.Errorf("store session: %w", err)
	}
	return b.Session.Snapshot(), nil
}

// Logout ends the session locally and tells the backend. Backend failures do
// not keep the local session alive: local state is cleared first, so logout
// always succeeds from the visitor's perspective.
func (a *App) Logout(ctx context.Context, b *Bundle) error {
	accessToken := b.Session.AccessToken()
	refreshToken := b.Session.RefreshToken()
	if err := b.Session.Logout(ctx); err != nil {
		return err
	}
	if accessToken != "" {
		// Best-effort server-side invalidation.
		_ = a.api.Logout(accessToken, refreshToken)
	}
	return nil
}

// Refresh rotates the credential pair via the backend.
func (a *App) Refresh(ctx context.Context, b *Bundle) (domain.AuthSnapshot, error) {
	refreshToken := b.Session.RefreshToken()
	if refreshToken == "" {
		return domain.AuthSnapshot{}, ErrNotAuthenticated
	}
	resp, err := a.api.Refresh(refreshToken)
	if err != nil {
		return domain.AuthSnapshot{}, err
	}
	if err := b.Session.SetAuth(ctx, resp.User, resp.AccessToken, resp.RefreshToken); err != nil {
		return domain.AuthSnapshot{}, fmt.Errorf("store session: %w", err)
	}
	return b.Session.Snapshot(), nil
}

// EnsureFreshSession refreshes the credential pair when the access token is
// a JWT about to expire. Opaque tokens are left alone.
func (a *App) EnsureFreshSession(ctx context.Context, b *Bundle) error {
	if a.refreshWindow <= 0 || !b.Session.Authenticated() {
		return nil
	}
	if !apiclient.AccessTokenExpiringWithin(b.Session.AccessToken(), a.refreshWindow) {
		return nil
	}
	_, err := a.Refresh(ctx, b)
	return err
}

// ListBooks proxies the paginated catalog listing.
func (a *App) ListBooks(params apiclient.ListBooksParams) (domain.BookPage, error) {
	return a.api.ListBooks(params)
}

// GetBook proxies a single catalog lookup.
func (a *App) GetBook(slug string) (domain.Book, error) {
	return a.api.GetBook(slug)
}
