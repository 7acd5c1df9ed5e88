// Package server exposes the state layer over HTTP for the storefront view
// layer. Every request is scoped to a device via the X-Device-Id header; the
// handlers only dispatch store operations and render their results.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storiofy/internal/app"
	"storiofy/internal/util"
	"storiofy/pkg/apiclient"
	"storiofy/pkg/currency"
	"storiofy/pkg/domain"

	"github.com/google/uuid"
)

const deviceIDHeader = "X-Device-Id"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
}

// Server exposes HTTP endpoints for the storefront state layer.
type Server struct {
	app *app.App
	mux *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app: cfg.App,
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// session
	s.mux.Handle("/api/session", s.withDevice(s.handleSession))
	s.mux.Handle("/api/session/login", s.withDevice(s.handleLogin))
	s.mux.Handle("/api/session/register", s.withDevice(s.handleRegister))
	s.mux.Handle("/api/session/refresh", s.withDevice(s.handleRefresh))

	// cart
	s.mux.Handle("/api/cart", s.withDevice(s.handleCart))
	s.mux.Handle("/api/cart/items", s.withDevice(s.handleCartItems))
	s.mux.Handle("/api/cart/items/", s.withDevice(s.handleCartItemByID))

	// currency
	s.mux.Handle("/api/currency", s.withDevice(s.handleCurrency))

	// catalog
	s.mux.Handle("/api/books", s.withDevice(s.handleBooks))
	s.mux.Handle("/api/books/", s.withDevice(s.handleBookBySlug))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// deviceHandler receives the device's store bundle alongside the request.
type deviceHandler func(http.ResponseWriter, *http.Request, *app.Bundle)

// withDevice resolves the store bundle for the calling device. A missing
// device id gets a generated one, echoed back so the client can keep it.
func (s *Server) withDevice(next deviceHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := strings.TrimSpace(r.Header.Get(deviceIDHeader))
		if deviceID == "" {
			deviceID = util.NewID()
		}
		w.Header().Set(deviceIDHeader, deviceID)
		next(w, r, s.app.Bundle(r.Context(), deviceID))
	})
}

// session handlers

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request, b *app.Bundle) {
	switch r.Method {
	case http.MethodGet:
		if err := s.app.EnsureFreshSession(r.Context(), b); err != nil {
			util.LoggerFromContext(r.Context()).Warn("session refresh failed", "err", err)
		}
		writeJSON(w, http.StatusOK, b.Session.Snapshot())
	case http.MethodDelete:
		if err := s.app.Logout(r.Context(), b); err != nil {
			writeError(w, http.StatusInternalServerError, "logout failed")
			return
		}
		writeJSON(w, http.StatusOK, b.Session.Snapshot())
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, b *app.Bundle) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	snap, err := s.app.Login(r.Context(), b, body.Email, body.Password)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, b *app.Bundle) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body apiclient.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	snap, err := s.app.Register(r.Context(), b, body)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, b *app.Bundle) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snap, err := s.app.Refresh(r.Context(), b)
	if err != nil {
		if errors.Is(err, app.ErrNotAuthenticated) {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// cart handlers

type cartView struct {
	Items     []domain.CartItem `json:"items"`
	ItemCount int               `json:"itemCount"`
}

func cartViewOf(b *app.Bundle) cartView {
	items := b.Cart.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartView{Items: items, ItemCount: b.Cart.ItemCount()}
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request, b *app.Bundle) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, cartViewOf(b))
	case http.MethodDelete:
		b.Cart.Clear()
		writeJSON(w, http.StatusOK, cartViewOf(b))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCartItems(w http.ResponseWriter, r *http.Request, b *app.Bundle) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var item domain.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if item.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}
	if strings.TrimSpace(item.ID) == "" {
		item.ID = uuid.NewString()
	}
	b.Cart.AddItem(item)
	writeJSON(w, http.StatusCreated, cartViewOf(b))
}

func (s *Server) handleCartItemByID(w http.ResponseWriter, r *http.Request, b *app.Bundle) {
	id := strings.TrimPrefix(r.URL.Path, "/api/cart/items/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var body struct {
			Quantity int `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		b.Cart.UpdateQuantity(id, body.Quantity)
		writeJSON(w, http.StatusOK, cartViewOf(b))
	case http.MethodDelete:
		b.Cart.RemoveItem(id)
		writeJSON(w, http.StatusOK, cartViewOf(b))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// currency handlers

type currencyView struct {
	Currency  domain.Currency `json:"currency"`
	Symbol    string          `json:"symbol"`
	Supported []currency.Info `json:"supported"`
}

func currencyViewOf(b *app.Bundle) currencyView {
	code := b.Currency.Currency()
	return currencyView{
		Currency:  code,
		Symbol:    currency.Symbol(code),
		Supported: currency.Supported(),
	}
}

func (s *Server) handleCurrency(w http.ResponseWriter, r *http.Request, b *app.Bundle) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, currencyViewOf(b))
	case http.MethodPut:
		var body struct {
			Currency domain.Currency `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Currency == "" {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := b.Currency.SetCurrency(r.Context(), body.Currency); err != nil {
			writeError(w, http.StatusInternalServerError, "persist currency failed")
			return
		}
		writeJSON(w, http.StatusOK, currencyViewOf(b))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// catalog handlers

type bookView struct {
	domain.Book
	FormattedPrice string `json:"formattedPrice"`
}

func (s *Server) bookViewsOf(b *app.Bundle, books []domain.Book) []bookView {
	code := b.Currency.Currency()
	out := make([]bookView, 0, len(books))
	for _, book := range books {
		out = append(out, bookView{
			Book:           book,
			FormattedPrice: currency.FormatPrice(book.Price, code),
		})
	}
	return out
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request, b *app.Bundle) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	params := apiclient.ListBooksParams{
		Featured: q.Get("featured") == "true",
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		params.Limit = limit
	}
	pageResp, err := s.app.ListBooks(params)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":      s.bookViewsOf(b, pageResp.Items),
		"pagination": pageResp.Pagination,
	})
}

func (s *Server) handleBookBySlug(w http.ResponseWriter, r *http.Request, b *app.Bundle) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	slug := strings.TrimPrefix(r.URL.Path, "/api/books/")
	if slug == "" || strings.Contains(slug, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	book, err := s.app.GetBook(slug)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookView{
		Book:           book,
		FormattedPrice: currency.FormatPrice(book.Price, b.Currency.Currency()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeAPIError(w http.ResponseWriter, err error) {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		writeError(w, apiErr.Status, apiErr.Message)
		return
	}
	writeError(w, http.StatusBadGateway, "storefront backend unavailable")
}
