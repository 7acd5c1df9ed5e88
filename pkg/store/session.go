package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"storiofy/pkg/domain"
	"storiofy/pkg/storage"
)

// Durable storage keys owned by the session store. No other store reads or
// writes them.
const (
	keyAccessToken  = "accessToken"
	keyRefreshToken = "refreshToken"
	keyUser         = "user"
)

// SessionStore holds the authenticated identity and its credential pair.
// The three values (user, access token, refresh token) are set and cleared
// together: Authenticated is true exactly when all three are present.
// Mutations persist to durable storage first, then update memory, then notify
// subscribers, so a subscriber never observes unpersisted state.
type SessionStore struct {
	mu      sync.RWMutex
	storage storage.DurableStorage

	user         *domain.User
	accessToken  string
	refreshToken string

	subs []func(domain.AuthSnapshot)
}

// NewSessionStore builds an empty (unauthenticated) session store over st.
// Call InitializeFromStorage once before first use to rehydrate a prior
// session.
func NewSessionStore(st storage.DurableStorage) *SessionStore {
	return &SessionStore{storage: st}
}

// Subscribe registers fn to run synchronously after every state change.
func (s *SessionStore) Subscribe(fn func(domain.AuthSnapshot)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// SetAuth persists the user and token pair, then marks the session
// authenticated. This is the only path that writes authentication data to
// storage. Token strings are treated as opaque; no format validation happens
// here.
func (s *SessionStore) SetAuth(ctx context.Context, user domain.User, accessToken, refreshToken string) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.storage.Set(ctx, keyAccessToken, accessToken); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := s.storage.Set(ctx, keyRefreshToken, refreshToken); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	if err := s.storage.Set(ctx, keyUser, string(userJSON)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}

	s.mu.Lock()
	u := user
	s.user = &u
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	snap := s.snapshotLocked()
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return nil
}

// Logout purges the persisted session and resets memory to the
// unauthenticated state. Calling it when already logged out is a no-op.
func (s *SessionStore) Logout(ctx context.Context) error {
	if err := s.purge(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = nil
	s.accessToken = ""
	s.refreshToken = ""
	snap := s.snapshotLocked()
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return nil
}

// InitializeFromStorage rehydrates the session from a prior persisted
// snapshot. Called once at startup. It never fails: a corrupt snapshot is
// purged and treated as "no session", and storage read errors leave the
// store unauthenticated. Storage is not re-written on success.
func (s *SessionStore) InitializeFromStorage(ctx context.Context) {
	accessToken, okAccess, err := s.storage.Get(ctx, keyAccessToken)
	if err != nil {
		slog.Warn("session rehydrate skipped", "err", err)
		return
	}
	refreshToken, okRefresh, err := s.storage.Get(ctx, keyRefreshToken)
	if err != nil {
		slog.Warn("session rehydrate skipped", "err", err)
		return
	}
	userJSON, okUser, err := s.storage.Get(ctx, keyUser)
	if err != nil {
		slog.Warn("session rehydrate skipped", "err", err)
		return
	}
	if !okAccess || !okRefresh || !okUser {
		// Normal state for a first-time visitor.
		return
	}

	var user domain.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		// Corrupt local session data must never fail startup.
		slog.Warn("purging corrupt session snapshot", "err", err)
		if purgeErr := s.purge(ctx); purgeErr != nil {
			slog.Warn("purge corrupt session", "err", purgeErr)
		}
		return
	}

	s.mu.Lock()
	s.user = &user
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.mu.Unlock()
}

// Snapshot returns the current authentication state.
func (s *SessionStore) Snapshot() domain.AuthSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Authenticated reports whether a full session is present.
func (s *SessionStore) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.accessToken != "" && s.refreshToken != ""
}

// AccessToken returns the current access token, empty when logged out.
func (s *SessionStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token, empty when logged out.
func (s *SessionStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *SessionStore) snapshotLocked() domain.AuthSnapshot {
	snap := domain.AuthSnapshot{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	snap.Authenticated = snap.User != nil && snap.AccessToken != "" && snap.RefreshToken != ""
	return snap
}

func (s *SessionStore) purge(ctx context.Context) error {
	for _, key := range []string{keyAccessToken, keyRefreshToken, keyUser} {
		if err := s.storage.Remove(ctx, key); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return nil
}
