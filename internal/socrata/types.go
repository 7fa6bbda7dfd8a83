// Package socrata provides a client for Socrata Open Data API (SODA) dataset
// endpoints, with a predicate builder for $where expressions and tolerant
// scalar types for the API's stringly-typed numeric columns.
package socrata

import (
	"net/http"
	"time"
)

// Config holds configuration for the SODA client
type Config struct {
	BaseURL   string        `json:"base_url"`
	AppToken  string        `json:"-"` // Never serialized
	Timeout   time.Duration `json:"timeout"`
	CacheTTL  time.Duration `json:"cache_ttl"`
	RateLimit float64       `json:"rate_limit"` // Requests per second

	// Transport overrides the HTTP transport when non-nil.
	// Mainly useful for tests that stub network traffic.
	Transport http.RoundTripper `json:"-"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://data.cityofnewyork.us",
		Timeout:   30 * time.Second,
		CacheTTL:  15 * time.Minute, // Registry extracts refresh daily
		RateLimit: 5,
	}
}

// Query describes a single dataset read. Where is composed with the
// predicate constructors in this package; raw $where strings are not
// accepted anywhere in the client.
type Query struct {
	Where  Predicate
	Order  string
	Limit  int
	Select []string
}

// Error represents a SODA API error response
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}
