package query

import (
	"context"
	"fmt"

	"github.com/tair/hiking-store/internal/store/domain"
)

// ListFavoritesQuery represents the query to list a user's favorites
type ListFavoritesQuery struct {
	UserID string
}

// ListFavoritesHandler handles list favorites query
type ListFavoritesHandler struct {
	users    domain.UserRepository
	products domain.ProductRepository
}

// NewListFavoritesHandler creates a new list favorites handler
func NewListFavoritesHandler(users domain.UserRepository, products domain.ProductRepository) *ListFavoritesHandler {
	return &ListFavoritesHandler{users: users, products: products}
}

// Handle returns the favorited products in the order they were added
func (h *ListFavoritesHandler) Handle(ctx context.Context, q ListFavoritesQuery) ([]domain.Product, error) {
	user, err := h.users.FindByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	if len(user.FavoriteStores) == 0 {
		return []domain.Product{}, nil
	}

	products, err := h.products.FindByIDs(ctx, domain.Categories, user.FavoriteStores)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	return orderByIDs(user.FavoriteStores, products), nil
}
