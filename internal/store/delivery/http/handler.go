package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/internal/store/usecase/command"
	"github.com/tair/hiking-store/internal/store/usecase/query"
	"github.com/tair/hiking-store/pkg/logger"
)

const basePath = "/api/store"

// StoreHandler handles HTTP requests for the store using CQRS pattern
type StoreHandler struct {
	// Command handlers
	recordViewHandler     *command.RecordViewHandler
	toggleFavoriteHandler *command.ToggleFavoriteHandler
	reindexHandler        *command.ReindexHandler
	backfillHandler       *command.BackfillThumbnailsHandler

	// Query handlers
	listCategoryHandler  *query.ListCategoryHandler
	listRecentHandler    *query.ListRecentHandler
	listFavoritesHandler *query.ListFavoritesHandler
	searchHandler        *query.SearchProductsHandler

	metrics *Metrics
}

// NewStoreHandler creates a new store handler. Used by Wire.
func NewStoreHandler(
	recordViewHandler *command.RecordViewHandler,
	toggleFavoriteHandler *command.ToggleFavoriteHandler,
	reindexHandler *command.ReindexHandler,
	backfillHandler *command.BackfillThumbnailsHandler,
	listCategoryHandler *query.ListCategoryHandler,
	listRecentHandler *query.ListRecentHandler,
	listFavoritesHandler *query.ListFavoritesHandler,
	searchHandler *query.SearchProductsHandler,
	metrics *Metrics,
) *StoreHandler {
	return &StoreHandler{
		recordViewHandler:     recordViewHandler,
		toggleFavoriteHandler: toggleFavoriteHandler,
		reindexHandler:        reindexHandler,
		backfillHandler:       backfillHandler,
		listCategoryHandler:   listCategoryHandler,
		listRecentHandler:     listRecentHandler,
		listFavoritesHandler:  listFavoritesHandler,
		searchHandler:         searchHandler,
		metrics:               metrics,
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// ProductsResponse wraps a product list
type ProductsResponse struct {
	Products []domain.Product `json:"products"`
	Count    *int             `json:"count,omitempty"`
}

// RecordViewResponse reports whether the view was tracked
type RecordViewResponse struct {
	Success bool   `json:"success"`
	Tracked bool   `json:"tracked"`
	Message string `json:"message"`
}

// RegisterRoutes registers the store routes. Fixed paths come before the
// /{category} catch-all.
func (h *StoreHandler) RegisterRoutes(router *mux.Router, mw MiddlewareConfig) {
	r := router.PathPrefix(basePath).Subrouter()

	optional := mw.GetOptionalAuthMiddleware()
	authed := mw.GetAuthMiddleware()
	admin := mw.GetAdminMiddleware()

	// Recently viewed (anonymous callers get the degraded behavior)
	r.HandleFunc("/recent", h.metrics.Middleware(basePath+"/recent", optional(h.ListRecent))).Methods("GET")
	r.HandleFunc("/recent/{productId}", h.metrics.Middleware(basePath+"/recent/{productId}", optional(h.RecordView))).Methods("POST")

	// Favorites
	r.HandleFunc("/favorites/my", h.metrics.Middleware(basePath+"/favorites/my", authed(h.ListFavorites))).Methods("GET")
	r.HandleFunc("/{productId}/favorite", h.metrics.Middleware(basePath+"/{productId}/favorite", authed(h.ToggleFavorite))).Methods("POST")

	// Search
	r.HandleFunc("/search", h.metrics.Middleware(basePath+"/search", h.Search)).Methods("GET")

	// Admin
	r.HandleFunc("/index/init", h.metrics.Middleware(basePath+"/index/init", admin(h.Reindex))).Methods("POST")
	r.HandleFunc("/thumbnails/backfill", h.metrics.Middleware(basePath+"/thumbnails/backfill", admin(h.BackfillThumbnails))).Methods("POST")

	// Category listing
	r.HandleFunc("/{category}", h.metrics.Middleware(basePath+"/{category}", h.ListCategory)).Methods("GET")
}

// ListCategory handles GET /api/store/{category}
func (h *StoreHandler) ListCategory(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.listCategoryHandler.Handle(r.Context(), query.ListCategoryQuery{
		Category: mux.Vars(r)["category"],
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.fail(w, r, err, "Failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListRecent handles GET /api/store/recent
func (h *StoreHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	products := h.listRecentHandler.Handle(r.Context(), query.ListRecentQuery{
		UserID: UserIDFromContext(r.Context()),
	})
	respondJSON(w, http.StatusOK, ProductsResponse{Products: products})
}

// RecordView handles POST /api/store/recent/{productId}
func (h *StoreHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	tracked, err := h.recordViewHandler.Handle(r.Context(), command.RecordViewCommand{
		UserID:    UserIDFromContext(r.Context()),
		ProductID: mux.Vars(r)["productId"],
	})
	if err != nil {
		h.fail(w, r, err, "Failed to record view")
		return
	}

	message := "View recorded"
	if !tracked {
		message = "View not tracked"
	}
	respondJSON(w, http.StatusOK, RecordViewResponse{Success: true, Tracked: tracked, Message: message})
}

// ListFavorites handles GET /api/store/favorites/my
func (h *StoreHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	products, err := h.listFavoritesHandler.Handle(r.Context(), query.ListFavoritesQuery{
		UserID: UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err, "Failed to list favorites")
		return
	}

	count := len(products)
	respondJSON(w, http.StatusOK, ProductsResponse{Products: products, Count: &count})
}

// ToggleFavorite handles POST /api/store/{productId}/favorite
func (h *StoreHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	result, err := h.toggleFavoriteHandler.Handle(r.Context(), command.ToggleFavoriteCommand{
		UserID:    UserIDFromContext(r.Context()),
		ProductID: mux.Vars(r)["productId"],
	})
	if err != nil {
		h.fail(w, r, err, "Failed to toggle favorite")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Search handles GET /api/store/search
func (h *StoreHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	page, _ := strconv.Atoi(params.Get("page"))
	limit, _ := strconv.Atoi(params.Get("limit"))

	result, err := h.searchHandler.Handle(r.Context(), query.SearchProductsQuery{
		Query:    params.Get("q"),
		Category: params.Get("category"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.fail(w, r, err, "Search failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Reindex handles POST /api/store/index/init
func (h *StoreHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	result, err := h.reindexHandler.Handle(r.Context(), command.ReindexCommand{})
	if err != nil {
		h.fail(w, r, err, "Failed to rebuild search index")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// BackfillThumbnails handles POST /api/store/thumbnails/backfill
func (h *StoreHandler) BackfillThumbnails(w http.ResponseWriter, r *http.Request) {
	result, err := h.backfillHandler.Handle(r.Context(), command.BackfillThumbnailsCommand{
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		h.fail(w, r, err, "Failed to backfill thumbnails")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": result.Updated,
		"total":   result.Total,
	})
}

// fail maps use-case errors to status codes. Unexpected errors are logged
// and reported with a generic message.
func (h *StoreHandler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidProductID),
		errors.Is(err, domain.ErrInvalidPage):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrSearchUnavailable):
		logger.Warn(r.Context()).Err(err).Msg(message)
		respondError(w, http.StatusServiceUnavailable, "Search service unavailable")
	default:
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg(message)
		respondError(w, http.StatusInternalServerError, message)
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
