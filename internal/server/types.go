// Package server provides the HTTP server for the job feed API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// SourceRequest is the HTTP request body for adding or updating a job source.
type SourceRequest struct {
	// Name is the human-readable source name shown on listings.
	Name string `json:"name" validate:"required,max=200"`
	// URL is the portal endpoint to fetch.
	URL string `json:"url" validate:"required,url,max=2048"`
	// FetchType is the wire format of the portal: "rss" or "json".
	FetchType string `json:"fetchType" validate:"required,oneof=rss json"`
}

// ToggleRequest is the HTTP request body for enabling or disabling a source.
type ToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// CreateSourceResponse is the HTTP response after adding a source.
type CreateSourceResponse struct {
	ID int64 `json:"id"`
}

// SourceResponse is one job source.
type SourceResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	FetchType string `json:"fetchType"`
	Enabled   bool   `json:"enabled"`
}

// SourcesResponse is the HTTP response for listing sources.
type SourcesResponse struct {
	Sources []SourceResponse `json:"sources"`
}

// FilterRequest refines a search.
type FilterRequest struct {
	// Keywords must all appear in the title, company or location.
	Keywords []string `json:"keywords" validate:"max=20,dive,max=100"`
	// Location must appear in the listing location.
	Location string `json:"location" validate:"max=200"`
}

// SearchRequest is the HTTP request body for searching jobs.
type SearchRequest struct {
	// Keyword is matched against title and company.
	Keyword string `json:"keyword" validate:"max=200"`
	// Location is matched against the listing location.
	Location string `json:"location" validate:"max=200"`
	// Filter is optional.
	Filter *FilterRequest `json:"filter,omitempty"`
}

// ListingResponse is one job listing.
type ListingResponse struct {
	Title    string `json:"title"`
	ApplyURL string `json:"applyUrl"`
	Source   string `json:"source"`
	Date     string `json:"date"`
	Company  string `json:"company"`
	Location string `json:"location"`
}

// SearchResponse is the HTTP response for a search.
type SearchResponse struct {
	Listings []ListingResponse `json:"listings"`
	Count    int               `json:"count"`
}

// RoleResponse reports the caller's role.
type RoleResponse struct {
	Role string `json:"role"`
}

// AdminResponse reports whether the caller is an admin.
type AdminResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
