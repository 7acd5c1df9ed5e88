// Package apiclient calls the storefront backend over HTTP. It is the only
// boundary between the state layer and the remote API: login and registration
// responses feed the session store, and the catalog listing resolves the weak
// book references held by the cart.
package apiclient

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storiofy/pkg/domain"
)

// Client calls the storefront backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a backend error response.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a backend client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthResponse is the payload of a successful login, registration or refresh.
type AuthResponse struct {
	User         domain.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// RegisterRequest carries the registration form fields.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (c *Client) Login(email, password string) (AuthResponse, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp AuthResponse
	if err := c.doJSON(http.MethodPost, "/auth/login", "", payload, &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

func (c *Client) Register(req RegisterRequest) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(http.MethodPost, "/auth/register", "", req, &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// Refresh exchanges a refresh token for a fresh credential pair. The tokens
// are opaque to this client; the backend decides validity.
func (c *Client) Refresh(refreshToken string) (AuthResponse, error) {
	payload := map[string]string{"refreshToken": refreshToken}
	var resp AuthResponse
	if err := c.doJSON(http.MethodPost, "/auth/refresh", "", payload, &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// Logout invalidates the session server-side. Local state cleanup is the
// session store's job, not this client's.
func (c *Client) Logout(accessToken, refreshToken string) error {
	var payload any
	if strings.TrimSpace(refreshToken) != "" {
		payload = map[string]string{"refreshToken": refreshToken}
	}
	return c.doJSON(http.MethodPost, "/auth/logout", accessToken, payload, nil)
}

// ListBooksParams filters the paginated catalog listing.
type ListBooksParams struct {
	Featured bool
	Page     int
	Limit    int
}

// ListBooks fetches one page of the catalog.
func (c *Client) ListBooks(params ListBooksParams) (domain.BookPage, error) {
	q := url.Values{}
	if params.Featured {
		q.Set("featured", "true")
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	path := "/books"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var page domain.BookPage
	if err := c.doJSON(http.MethodGet, path, "", nil, &page); err != nil {
		return domain.BookPage{}, err
	}
	return page, nil
}

// GetBook fetches a single catalog entry by slug.
func (c *Client) GetBook(slug string) (domain.Book, error) {
	var book domain.Book
	if err := c.doJSON(http.MethodGet, "/books/"+url.PathEscape(slug), "", nil, &book); err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

func (c *Client) doJSON(method, path, token string, payload any, out any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Code: strings.TrimSpace(errResp.Code)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
