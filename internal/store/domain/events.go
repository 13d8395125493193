package domain

import (
	"context"
	"time"
)

// ProductViewedEvent is emitted after a view is recorded
type ProductViewedEvent struct {
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// FavoriteToggledEvent is emitted after a favorite toggle
type FavoriteToggledEvent struct {
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	IsFavorited bool      `json:"is_favorited"`
	ToggledAt   time.Time `json:"toggled_at"`
}

// CatalogUpdatedEvent is emitted after product documents change. An empty
// Category means the change may span every category.
type CatalogUpdatedEvent struct {
	Category  Category  `json:"category,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventPublisher emits store events. Publishing is best-effort; callers log
// failures and carry on.
type EventPublisher interface {
	PublishProductViewed(ctx context.Context, event ProductViewedEvent) error
	PublishFavoriteToggled(ctx context.Context, event FavoriteToggledEvent) error
	PublishCatalogUpdated(ctx context.Context, event CatalogUpdatedEvent) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishProductViewed(context.Context, ProductViewedEvent) error     { return nil }
func (NopPublisher) PublishFavoriteToggled(context.Context, FavoriteToggledEvent) error { return nil }
func (NopPublisher) PublishCatalogUpdated(context.Context, CatalogUpdatedEvent) error   { return nil }
