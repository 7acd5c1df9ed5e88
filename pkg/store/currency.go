package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"storiofy/pkg/domain"
	"storiofy/pkg/storage"
)

// Durable storage key owned by the currency store. The value is a versioned
// envelope so the persisted shape can evolve without breaking old snapshots.
const currencySettingsKey = "Storiofy_currency_settings"

const currencyEnvelopeVersion = 1

type currencyEnvelope struct {
	Version int           `json:"version"`
	State   currencyState `json:"state"`
}

type currencyState struct {
	Currency domain.Currency `json:"currency"`
}

// CurrencyStore holds the visitor's display currency preference. The active
// preference persists across restarts, independent of authentication state.
type CurrencyStore struct {
	mu       sync.RWMutex
	storage  storage.DurableStorage
	currency domain.Currency

	subs []func(domain.Currency)
}

// NewCurrencyStore builds a currency store over st, rehydrating the persisted
// preference. A missing or malformed envelope yields the default currency.
func NewCurrencyStore(ctx context.Context, st storage.DurableStorage) *CurrencyStore {
	s := &CurrencyStore{storage: st, currency: domain.DefaultCurrency}

	raw, ok, err := st.Get(ctx, currencySettingsKey)
	if err != nil {
		slog.Warn("currency rehydrate skipped", "err", err)
		return s
	}
	if !ok {
		return s
	}
	var env currencyEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.State.Currency == "" {
		slog.Warn("ignoring malformed currency settings", "err", err)
		return s
	}
	s.currency = env.State.Currency
	return s
}

// Subscribe registers fn to run synchronously after every preference change.
func (s *CurrencyStore) Subscribe(fn func(domain.Currency)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// SetCurrency persists code and makes it the active preference. The code is
// stored as given; callers are expected to supply values from the supported
// set, and formatting degrades to the default symbol for anything else.
func (s *CurrencyStore) SetCurrency(ctx context.Context, code domain.Currency) error {
	env := currencyEnvelope{
		Version: currencyEnvelopeVersion,
		State:   currencyState{Currency: code},
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, currencySettingsKey, string(raw)); err != nil {
		return err
	}

	s.mu.Lock()
	s.currency = code
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(code)
	}
	return nil
}

// Currency returns the active preference.
func (s *CurrencyStore) Currency() domain.Currency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currency
}
