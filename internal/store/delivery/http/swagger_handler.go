package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// ListCategory godoc
// @Summary List a category
// @Description Paginated listing of one category. A category with no collection yet returns an empty page.
// @Tags Products
// @Produce json
// @Param category path string true "Category" Enums(shoes, top, bottom, goods)
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 1000)"
// @Success 200 {object} object{products=array,total=int,page=int,totalPages=int}
// @Failure 400 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /api/store/{category} [get]
func (h *StoreHandler) ListCategoryDoc() {}

// ListRecent godoc
// @Summary List recently viewed products
// @Description Up to five products, newest first. Anonymous callers receive an empty list.
// @Tags Recent
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{products=array}
// @Router /api/store/recent [get]
func (h *StoreHandler) ListRecentDoc() {}

// RecordView godoc
// @Summary Record a product view
// @Description Best-effort; anonymous callers and cache outages report success with tracked=false.
// @Tags Recent
// @Security BearerAuth
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} object{success=bool,tracked=bool,message=string}
// @Failure 400 {object} object{error=string}
// @Router /api/store/recent/{productId} [post]
func (h *StoreHandler) RecordViewDoc() {}

// ListFavorites godoc
// @Summary List my favorites
// @Tags Favorites
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{products=array,count=int}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /api/store/favorites/my [get]
func (h *StoreHandler) ListFavoritesDoc() {}

// ToggleFavorite godoc
// @Summary Toggle a favorite
// @Tags Favorites
// @Security BearerAuth
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} object{isFavorited=bool,message=string}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /api/store/{productId}/favorite [post]
func (h *StoreHandler) ToggleFavoriteDoc() {}

// Search godoc
// @Summary Search products
// @Description Ranked search over the search index; falls back to a collection scan when the index is missing or failing.
// @Tags Search
// @Produce json
// @Param q query string true "Query"
// @Param category query string false "Category filter" Enums(shoes, top, bottom, goods)
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 20)"
// @Success 200 {object} object{products=array,total=int,page=int,totalPages=int}
// @Failure 400 {object} object{error=string}
// @Router /api/store/search [get]
func (h *StoreHandler) SearchDoc() {}

// Reindex godoc
// @Summary Rebuild the search index
// @Description Drops and rebuilds the index from all category collections (Admin only)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,message=string,totalIndexed=int}
// @Failure 401 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Failure 503 {object} object{error=string}
// @Router /api/store/index/init [post]
func (h *StoreHandler) ReindexDoc() {}

// BackfillThumbnails godoc
// @Summary Backfill product thumbnails
// @Description Copies legacy side-table thumbnails onto products lacking one (Admin only)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param category query string false "Category (default all)"
// @Success 200 {object} object{success=bool,updated=object,total=int}
// @Failure 403 {object} object{error=string}
// @Router /api/store/thumbnails/backfill [post]
func (h *StoreHandler) BackfillThumbnailsDoc() {}

// HealthCheck godoc
// @Summary Readiness check
// @Description Checks MongoDB, Redis and Elasticsearch
// @Tags Health
// @Produce json
// @Success 200 {object} object{service=string,status=string,dependencies=object}
// @Failure 503 {object} object{service=string,status=string,dependencies=object}
// @Router /health/ready [get]
func (h *StoreHandler) HealthCheckDoc() {}
