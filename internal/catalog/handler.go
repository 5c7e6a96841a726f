package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/switchdeck/switchdeck/internal/server"
	"github.com/switchdeck/switchdeck/internal/services"
	pkgcatalog "github.com/switchdeck/switchdeck/pkg/catalog"
)

// maxUploadBytes caps the size of an uploaded catalogue document.
const maxUploadBytes = 8 << 20

// EntriesResponse is the response for GET /api/v1/catalog/entries.
type EntriesResponse struct {
	Count   int                       `json:"count"`
	Entries []pkgcatalog.SwitchRecord `json:"entries"`
}

// RecommendationResponse is the response for GET /api/v1/catalog/recommendations.
type RecommendationResponse struct {
	Query   string  `json:"query"`
	Count   int     `json:"count"`
	Matches []Match `json:"matches"`
}

// Handler serves the catalogue API.
type Handler struct {
	repo     services.CatalogRepository
	defaults *pkgcatalog.Defaults
	logger   *zap.Logger
	uploads  *rate.Limiter
}

// NewHandler creates a catalogue API handler.
func NewHandler(repo services.CatalogRepository, defaults *pkgcatalog.Defaults, logger *zap.Logger) *Handler {
	return &Handler{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
		// Uploads rewrite the whole catalogue; one per second sustained is plenty.
		uploads: rate.NewLimiter(rate.Limit(1), 5),
	}
}

// RegisterRoutes registers catalogue routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/catalog/entries", h.handleEntries)
	mux.HandleFunc("GET /api/v1/catalog/vendors", h.handleVendors)
	mux.HandleFunc("GET /api/v1/catalog/table", h.handleTable)
	mux.HandleFunc("GET /api/v1/catalog/recommendations", h.handleRecommendations)
	mux.HandleFunc("GET /api/v1/catalog/status", h.handleStatus)
	mux.HandleFunc("POST /api/v1/catalog/upload", h.handleUpload)
	mux.HandleFunc("POST /api/v1/catalog/reset", h.handleReset)
}

// handleEntries returns the filtered catalogue.
//
//	@Summary		List catalogue entries
//	@Description	Returns catalogue entries matching the given filter parameters, in catalogue order.
//	@Tags			catalog
//	@Produce		json
//	@Param			vendor query string false "Exact vendor match (case-insensitive)"
//	@Param			model query string false "Substring match on model name"
//	@Param			keyword query string false "Substring match across all record text"
//	@Param			layer query string false "Layer capability (L2, L3, L2/L3)"
//	@Param			min_ports query int false "Minimum port count (inclusive)"
//	@Param			max_ports query int false "Maximum port count (inclusive)"
//	@Param			poe query string false "PoE filter (yes/no)"
//	@Param			managed query string false "Managed filter (yes/no)"
//	@Param			stackable query string false "Stackable filter (yes/no)"
//	@Param			limit query int false "Cap on the number of results"
//	@Success		200 {object} EntriesResponse
//	@Failure		400 {object} map[string]any
//	@Router			/catalog/entries [get]
func (h *Handler) handleEntries(w http.ResponseWriter, r *http.Request) {
	criteria, limit, err := criteriaFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.repo.Active(r.Context())
	if err != nil {
		h.logger.Error("failed to load catalogue", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to load catalogue")
		return
	}

	matched := Apply(records, criteria)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	writeJSON(w, http.StatusOK, EntriesResponse{Count: len(matched), Entries: matched})
}

// handleVendors returns the distinct vendors of the active catalogue.
func (h *Handler) handleVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.repo.Vendors(r.Context())
	if err != nil {
		h.logger.Error("failed to list vendors", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to list vendors")
		return
	}
	if vendors == nil {
		vendors = []string{}
	}
	writeJSON(w, http.StatusOK, vendors)
}

// handleTable renders the filtered catalogue as a plain-text table.
//
//	@Summary		Render catalogue table
//	@Description	Returns the filtered catalogue as an aligned plain-text table, optionally grouped by vendor and with per-device CLI snippets.
//	@Tags			catalog
//	@Produce		plain
//	@Param			include_cli query string false "Append CLI snippets (yes/no)"
//	@Param			group_by_vendor query string false "Group rows by vendor (yes/no)"
//	@Success		200 {string} string
//	@Failure		400 {object} map[string]any
//	@Router			/catalog/table [get]
func (h *Handler) handleTable(w http.ResponseWriter, r *http.Request) {
	criteria, limit, err := criteriaFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	includeCLI, err := parseTriState(r.URL.Query().Get("include_cli"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "include_cli: "+err.Error())
		return
	}
	groupByVendor, err := parseTriState(r.URL.Query().Get("group_by_vendor"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "group_by_vendor: "+err.Error())
		return
	}

	records, err := h.repo.Active(r.Context())
	if err != nil {
		h.logger.Error("failed to load catalogue", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to load catalogue")
		return
	}

	matched := Apply(records, criteria)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	opts := RenderOptions{
		IncludeCLI:    includeCLI != nil && *includeCLI,
		GroupByVendor: groupByVendor != nil && *groupByVendor,
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, RenderTable(matched, opts))
}

// handleRecommendations ranks the catalogue against a free-text query.
//
//	@Summary		Recommend switches
//	@Description	Scores catalogue entries by keyword matches against the query text and returns the best matches.
//	@Tags			catalog
//	@Produce		json
//	@Param			q query string true "Free-text query (e.g. '48 port poe stackable cisco')"
//	@Param			top_n query int false "Maximum matches to return" default(5)
//	@Success		200 {object} RecommendationResponse
//	@Failure		400 {object} map[string]any
//	@Router			/catalog/recommendations [get]
func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	topN := DefaultTopN
	if s := r.URL.Query().Get("top_n"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			writeError(w, r, http.StatusBadRequest, "top_n must be a positive integer")
			return
		}
		topN = parsed
	}

	records, err := h.repo.Active(r.Context())
	if err != nil {
		h.logger.Error("failed to load catalogue", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to load catalogue")
		return
	}

	matches := Recommend(records, query, topN)

	writeJSON(w, http.StatusOK, RecommendationResponse{
		Query:   query,
		Count:   len(matches),
		Matches: matches,
	})
}

// handleStatus returns the active catalogue's status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.repo.Status(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "no catalogue loaded")
			return
		}
		h.logger.Error("failed to get catalogue status", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to get catalogue status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleUpload replaces the active catalogue with an uploaded JSON document.
// The upload is validated in full before anything is replaced; on any
// failure the previous catalogue stays active.
//
//	@Summary		Upload a catalogue
//	@Description	Replaces the active catalogue wholesale with the uploaded JSON array of switch records. Rejected uploads leave the active catalogue untouched.
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Success		200 {object} services.CatalogStatus
//	@Failure		400 {object} map[string]any
//	@Failure		429 {object} map[string]any
//	@Router			/catalog/upload [post]
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !h.uploads.Allow() {
		writeError(w, r, http.StatusTooManyRequests, "too many uploads, retry shortly")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read upload body")
		return
	}

	records, err := pkgcatalog.ParseUpload(body)
	if err != nil {
		var verr *pkgcatalog.ValidationError
		if errors.As(err, &verr) {
			writeError(w, r, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.repo.Replace(r.Context(), records, services.SourceUpload)
	if err != nil {
		h.logger.Error("failed to replace catalogue", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to replace catalogue")
		return
	}

	h.logger.Info("catalogue replaced by upload",
		zap.Int("count", status.Count),
		zap.String("revision", status.Revision),
	)
	writeJSON(w, http.StatusOK, status)
}

// handleReset restores the built-in catalogue.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	entries, err := h.defaults.Entries()
	if err != nil {
		h.logger.Error("failed to load built-in catalogue", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to load built-in catalogue")
		return
	}

	status, err := h.repo.Replace(r.Context(), entries, services.SourceBuiltin)
	if err != nil {
		h.logger.Error("failed to reset catalogue", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to reset catalogue")
		return
	}

	h.logger.Info("catalogue reset to built-in defaults", zap.String("revision", status.Revision))
	writeJSON(w, http.StatusOK, status)
}

// -- query parsing --

// criteriaFromQuery builds filter criteria from request query parameters.
// It also returns the result limit (0 = unlimited).
func criteriaFromQuery(r *http.Request) (Criteria, int, error) {
	q := r.URL.Query()
	var c Criteria

	c.Vendor = q.Get("vendor")
	c.Model = q.Get("model")
	c.Keyword = q.Get("keyword")

	if s := q.Get("layer"); s != "" {
		layer, ok := pkgcatalog.ParseLayer(s)
		if !ok {
			return Criteria{}, 0, fmt.Errorf("layer must be one of L2, L3, L2/L3, got %q", s)
		}
		c.Layer = layer
	}

	var err error
	if c.MinPorts, err = parseIntParam(q.Get("min_ports"), "min_ports"); err != nil {
		return Criteria{}, 0, err
	}
	if c.MaxPorts, err = parseIntParam(q.Get("max_ports"), "max_ports"); err != nil {
		return Criteria{}, 0, err
	}
	if c.PoE, err = parseTriState(q.Get("poe")); err != nil {
		return Criteria{}, 0, fmt.Errorf("poe: %w", err)
	}
	if c.Managed, err = parseTriState(q.Get("managed")); err != nil {
		return Criteria{}, 0, fmt.Errorf("managed: %w", err)
	}
	if c.Stackable, err = parseTriState(q.Get("stackable")); err != nil {
		return Criteria{}, 0, fmt.Errorf("stackable: %w", err)
	}

	limit := 0
	if s := q.Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 {
			return Criteria{}, 0, fmt.Errorf("limit must be a non-negative integer, got %q", s)
		}
		limit = parsed
	}

	return c, limit, nil
}

// parseIntParam parses an optional non-negative integer query parameter.
func parseIntParam(s, name string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(s)
	if err != nil || parsed < 0 {
		return nil, fmt.Errorf("%s must be a non-negative integer, got %q", name, s)
	}
	return &parsed, nil
}

// parseTriState parses an optional yes/no query parameter. Empty means the
// predicate is absent.
func parseTriState(s string) (*bool, error) {
	switch strings.ToLower(s) {
	case "":
		return nil, nil
	case "yes", "true":
		v := true
		return &v, nil
	case "no", "false":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("must be yes or no, got %q", s)
}

// -- helpers --

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	switch status {
	case http.StatusBadRequest:
		server.BadRequest(w, detail, r.URL.Path)
	case http.StatusNotFound:
		server.NotFound(w, detail, r.URL.Path)
	case http.StatusTooManyRequests:
		server.RateLimited(w, detail, r.URL.Path)
	default:
		server.InternalError(w, detail, r.URL.Path)
	}
}
