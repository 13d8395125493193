package kafka

import "time"

// ProductViewedEvent is published after a view lands in the recent list
type ProductViewedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}

// FavoriteToggledEvent is published after a favorite is added or removed
type FavoriteToggledEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	IsFavorited bool      `json:"is_favorited"`
	Timestamp   time.Time `json:"timestamp"`
}

// CatalogUpdatedEvent is produced by the catalog writers when category
// collections change. Category is empty for a change spanning all of them.
type CatalogUpdatedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeProductViewed   = "product.viewed"
	EventTypeFavoriteToggled = "favorite.toggled"
	EventTypeCatalogUpdated  = "catalog.updated"
)

// Kafka topics
const (
	TopicProductViewed   = "store.product.viewed"
	TopicFavoriteToggled = "store.favorite.toggled"
	TopicCatalogUpdated  = "store.catalog.updated"
)
