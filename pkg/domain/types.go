package domain

import "time"

// Currency is an ISO 4217 currency code from the supported set.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
	CurrencyTHB Currency = "THB"
	CurrencyAUD Currency = "AUD"
	CurrencyCAD Currency = "CAD"
	CurrencySGD Currency = "SGD"
	CurrencyAED Currency = "AED"
)

// DefaultCurrency is the process-wide default display currency.
const DefaultCurrency = CurrencyUSD

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsAdmin   bool   `json:"isAdmin"`
}

// TokenPair carries the opaque credential strings issued at login.
// The client never inspects or validates them beyond non-emptiness.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthSnapshot is the read-only view of the session store state.
// Authenticated is true exactly when user and both tokens are present.
type AuthSnapshot struct {
	User          *User  `json:"user,omitempty"`
	AccessToken   string `json:"accessToken,omitempty"`
	RefreshToken  string `json:"refreshToken,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// CartItem is a single line item. ID identifies the line itself; BookID is a
// weak reference into the catalog and is never validated by the cart.
type CartItem struct {
	ID       string `json:"id"`
	BookID   string `json:"bookId,omitempty"`
	Quantity int    `json:"quantity"`
}

// Book is a catalog entry as returned by the storefront backend.
type Book struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	Price         float64   `json:"price"`
	DiscountPrice float64   `json:"discountPrice,omitempty"`
	Currency      Currency  `json:"currency,omitempty"`
	AgeMin        int       `json:"ageMin,omitempty"`
	AgeMax        int       `json:"ageMax,omitempty"`
	Featured      bool      `json:"featured"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// Pagination describes the page window of a listing response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// BookPage is one page of the catalog listing.
type BookPage struct {
	Items      []Book     `json:"items"`
	Pagination Pagination `json:"pagination"`
}
