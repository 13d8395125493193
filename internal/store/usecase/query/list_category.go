package query

import (
	"context"
	"fmt"

	"github.com/tair/hiking-store/internal/store/domain"
)

const (
	DefaultListLimit = 1000
	MaxListLimit     = 1000
	// MaxPage bounds page numbers so offsets stay well inside int range
	MaxPage = 100000
)

// ListCategoryQuery represents the query to list one category page
type ListCategoryQuery struct {
	Category string
	Page     int
	Limit    int
}

// ListCategoryHandler handles list category query
type ListCategoryHandler struct {
	repo domain.ProductRepository
}

// NewListCategoryHandler creates a new list category handler
func NewListCategoryHandler(repo domain.ProductRepository) *ListCategoryHandler {
	return &ListCategoryHandler{repo: repo}
}

// Handle executes the list category query
func (h *ListCategoryHandler) Handle(ctx context.Context, q ListCategoryQuery) (*domain.ProductPage, error) {
	category, err := domain.ParseCategory(q.Category)
	if err != nil {
		return nil, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		return nil, domain.ErrInvalidPage
	}
	limit := q.Limit
	if limit < 1 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	result, err := h.repo.ListCategory(ctx, category, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", category, err)
	}
	return result, nil
}
