package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/jobfeed-api/internal/access"
	"github.com/maauso/jobfeed-api/internal/aggregator"
	"github.com/maauso/jobfeed-api/internal/listing"
	"github.com/maauso/jobfeed-api/internal/search"
	"github.com/maauso/jobfeed-api/internal/source"
)

const maxBodyBytes = 1 << 20

// SourceService manages the job source registry.
type SourceService interface {
	Authorize(ctx context.Context) error
	Add(ctx context.Context, d source.Draft) (int64, error)
	Update(ctx context.Context, id int64, d source.Draft) error
	Toggle(ctx context.Context, id int64, enabled bool) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]source.JobSource, error)
	ListEnabled(ctx context.Context) ([]source.JobSource, error)
}

// Searcher answers job searches.
type Searcher interface {
	Search(ctx context.Context, keyword, location string, filter *search.Filter) ([]listing.JobListing, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	sources   SourceService
	searcher  Searcher
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sources SourceService, searcher Searcher, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		sources:   sources,
		searcher:  searcher,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// AddSource handles POST /sources requests.
func (h *Handlers) AddSource(w http.ResponseWriter, r *http.Request) {
	if err := h.sources.Authorize(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	var req SourceRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.sources.Add(r.Context(), req.draft())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateSourceResponse{ID: id})
}

// UpdateSource handles PUT /sources/{id} requests.
func (h *Handlers) UpdateSource(w http.ResponseWriter, r *http.Request) {
	if err := h.sources.Authorize(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	id, ok := sourceID(w, r)
	if !ok {
		return
	}

	var req SourceRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.sources.Update(r.Context(), id, req.draft()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleSource handles PUT /sources/{id}/enabled requests.
func (h *Handlers) ToggleSource(w http.ResponseWriter, r *http.Request) {
	if err := h.sources.Authorize(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	id, ok := sourceID(w, r)
	if !ok {
		return
	}

	var req ToggleRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.sources.Toggle(r.Context(), id, *req.Enabled); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteSource handles DELETE /sources/{id} requests.
func (h *Handlers) DeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := h.sources.Authorize(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	id, ok := sourceID(w, r)
	if !ok {
		return
	}

	if err := h.sources.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSources handles GET /sources requests.
func (h *Handlers) ListSources(w http.ResponseWriter, r *http.Request) {
	if err := h.sources.Authorize(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	sources, err := h.sources.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSourcesResponse(sources))
}

// ListEnabledSources handles GET /sources/enabled requests.
func (h *Handlers) ListEnabledSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.sources.ListEnabled(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSourcesResponse(sources))
}

// Search handles POST /search requests.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.search(w, r, req)
}

// SearchQuery handles GET /search requests. Filter keywords are passed as
// repeated "kw" parameters and the filter location as "filter_location".
func (h *Handlers) SearchQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := SearchRequest{
		Keyword:  q.Get("keyword"),
		Location: q.Get("location"),
	}
	if q.Has("kw") || q.Has("filter_location") {
		req.Filter = &FilterRequest{
			Keywords: q["kw"],
			Location: q.Get("filter_location"),
		}
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	h.search(w, r, req)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	var filter *search.Filter
	if req.Filter != nil {
		filter = &search.Filter{Keywords: req.Filter.Keywords, Location: req.Filter.Location}
	}

	listings, err := h.searcher.Search(r.Context(), req.Keyword, req.Location, filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := SearchResponse{Listings: make([]ListingResponse, 0, len(listings)), Count: len(listings)}
	for _, l := range listings {
		resp.Listings = append(resp.Listings, ListingResponse{
			Title:    l.Title,
			ApplyURL: l.ApplyURL,
			Source:   l.Source,
			Date:     l.Date,
			Company:  l.Company,
			Location: l.Location,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// CallerRole handles GET /me/role requests.
func (h *Handlers) CallerRole(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RoleResponse{Role: string(access.RoleFromContext(r.Context()))})
}

// CallerIsAdmin handles GET /me/admin requests.
func (h *Handlers) CallerIsAdmin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AdminResponse{IsAdmin: access.IsAdmin(r.Context())})
}

// decode reads and validates a JSON body. It writes the error response and
// returns false on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}
	return true
}

// writeDomainError maps service errors to HTTP responses.
func (h *Handlers) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, access.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "admin role required", "UNAUTHORIZED")
	case errors.Is(err, source.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, source.ErrNotFound):
		writeError(w, http.StatusNotFound, "job source not found", "SOURCE_NOT_FOUND")
	case errors.Is(err, aggregator.ErrAllSourcesFailed):
		h.logger.Warn("search failed: all sources failed",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "all job sources failed", "AGGREGATE_FETCH_ERROR")
	default:
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

func (req SourceRequest) draft() source.Draft {
	return source.Draft{
		Name:      req.Name,
		URL:       req.URL,
		FetchType: source.FetchType(req.FetchType),
	}
}

func toSourcesResponse(sources []source.JobSource) SourcesResponse {
	resp := SourcesResponse{Sources: make([]SourceResponse, 0, len(sources))}
	for _, s := range sources {
		resp.Sources = append(resp.Sources, SourceResponse{
			ID:        s.ID,
			Name:      s.Name,
			URL:       s.URL,
			FetchType: string(s.FetchType),
			Enabled:   s.Enabled,
		})
	}
	return resp
}

// sourceID parses the {id} path value. It writes the error response and
// returns false when the value is not a positive integer.
func sourceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "source ID is required", "MISSING_SOURCE_ID")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "source ID must be a positive integer", "INVALID_SOURCE_ID")
		return 0, false
	}
	return id, true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
