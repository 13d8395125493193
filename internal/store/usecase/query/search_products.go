package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/pkg/logger"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 1000
	// MaxSearchSize caps the page requested from the search index
	MaxSearchSize = 50
)

// SearchProductsQuery represents a free-text product search
type SearchProductsQuery struct {
	Query    string
	Category string
	Page     int
	Limit    int
}

// SearchProductsHandler searches the index and falls back to a collection
// scan when the index is missing or failing
type SearchProductsHandler struct {
	index    domain.SearchIndex
	products domain.ProductRepository
	metrics  domain.Recorder
}

// NewSearchProductsHandler creates a new search products handler
func NewSearchProductsHandler(index domain.SearchIndex, products domain.ProductRepository, metrics domain.Recorder) *SearchProductsHandler {
	return &SearchProductsHandler{index: index, products: products, metrics: metrics}
}

// ParseCategoryFilter maps the optional category parameter; "" and "null"
// mean no filter
func ParseCategoryFilter(s string) (*domain.Category, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, nil
	}
	c, err := domain.ParseCategory(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Handle executes the search
func (h *SearchProductsHandler) Handle(ctx context.Context, q SearchProductsQuery) (*domain.ProductPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	category, err := ParseCategoryFilter(q.Category)
	if err != nil {
		return nil, err
	}
	if page > MaxPage {
		return nil, domain.ErrInvalidPage
	}

	text := strings.TrimSpace(q.Query)
	if text == "" {
		return &domain.ProductPage{Products: []domain.Product{}, Page: page}, nil
	}

	categories := domain.Categories
	if category != nil {
		categories = []domain.Category{*category}
	}

	size := limit
	if size > MaxSearchSize {
		size = MaxSearchSize
	}

	result, err := h.index.Search(ctx, domain.SearchRequest{
		Query:    text,
		Category: category,
		From:     (page - 1) * limit,
		Size:     size,
	})
	if err != nil {
		reason := fallbackReason(err)
		h.metrics.SearchFallback(reason)
		logger.Warn(ctx).Err(err).
			Str("query", text).
			Str("reason", reason).
			Msg("Search index unusable, falling back to collection scan")
		return h.fallback(ctx, text, categories, page, limit)
	}

	ids := make([]string, len(result.Hits))
	for i, hit := range result.Hits {
		ids[i] = hit.ID
	}

	products := []domain.Product{}
	if len(ids) > 0 {
		found, err := h.products.FindByIDs(ctx, categories, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to hydrate search hits: %w", err)
		}
		products = orderByIDs(ids, found)
	}

	return &domain.ProductPage{
		Products:   products,
		Total:      result.Total,
		Page:       page,
		TotalPages: domain.TotalPages(result.Total, limit),
	}, nil
}

func (h *SearchProductsHandler) fallback(ctx context.Context, text string, categories []domain.Category, page, limit int) (*domain.ProductPage, error) {
	matches, err := h.products.MatchSubstring(ctx, categories, text, limit*2)
	if err != nil {
		return nil, fmt.Errorf("fallback search failed: %w", err)
	}

	total := int64(len(matches))
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return &domain.ProductPage{
		Products:   matches,
		Total:      total,
		Page:       page,
		TotalPages: domain.TotalPages(total, limit),
	}, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrIndexNotFound):
		return domain.FallbackIndexMissing
	case errors.Is(err, domain.ErrSearchUnavailable):
		return domain.FallbackUnavailable
	default:
		return domain.FallbackError
	}
}
