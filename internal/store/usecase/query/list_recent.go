package query

import (
	"context"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/pkg/logger"
)

// ListRecentQuery represents the query to list a user's recent views
type ListRecentQuery struct {
	UserID string
}

// ListRecentHandler handles list recent query. It never fails: an anonymous
// caller or an unavailable backend yields an empty list.
type ListRecentHandler struct {
	recent   domain.RecentStore
	products domain.ProductRepository
	metrics  domain.Recorder
}

// NewListRecentHandler creates a new list recent handler
func NewListRecentHandler(recent domain.RecentStore, products domain.ProductRepository, metrics domain.Recorder) *ListRecentHandler {
	return &ListRecentHandler{recent: recent, products: products, metrics: metrics}
}

// Handle returns the recent products newest first
func (h *ListRecentHandler) Handle(ctx context.Context, q ListRecentQuery) []domain.Product {
	if q.UserID == "" {
		return []domain.Product{}
	}

	ids, err := h.recent.List(ctx, q.UserID)
	if err != nil {
		h.metrics.RecentDegraded("list")
		logger.Warn(ctx).Err(err).Str("user_id", q.UserID).Msg("Recent views unavailable, returning empty list")
		return []domain.Product{}
	}
	if len(ids) == 0 {
		return []domain.Product{}
	}

	products, err := h.products.FindByIDs(ctx, domain.Categories, ids)
	if err != nil {
		logger.Error(ctx).Err(err).Str("user_id", q.UserID).Msg("Failed to hydrate recent views")
		return []domain.Product{}
	}

	return orderByIDs(ids, products)
}
