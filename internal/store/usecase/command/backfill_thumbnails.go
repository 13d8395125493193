package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/pkg/logger"
)

// BackfillThumbnailsCommand copies side-table thumbnails onto products.
// An empty Category means every category.
type BackfillThumbnailsCommand struct {
	Category string
}

// BackfillThumbnailsResult reports updated products per category
type BackfillThumbnailsResult struct {
	Updated map[domain.Category]int `json:"updated"`
	Total   int                     `json:"total"`
}

// BackfillThumbnailsHandler handles backfill thumbnails command. A run that
// changes products announces a catalog update so the indexer rebuilds.
type BackfillThumbnailsHandler struct {
	products  domain.ProductRepository
	publisher domain.EventPublisher
}

// NewBackfillThumbnailsHandler creates a new backfill thumbnails handler
func NewBackfillThumbnailsHandler(products domain.ProductRepository, publisher domain.EventPublisher) *BackfillThumbnailsHandler {
	return &BackfillThumbnailsHandler{products: products, publisher: publisher}
}

// Handle executes the backfill
func (h *BackfillThumbnailsHandler) Handle(ctx context.Context, cmd BackfillThumbnailsCommand) (*BackfillThumbnailsResult, error) {
	categories := domain.Categories
	var scope domain.Category
	if cmd.Category != "" {
		c, err := domain.ParseCategory(cmd.Category)
		if err != nil {
			return nil, err
		}
		categories = []domain.Category{c}
		scope = c
	}

	result := &BackfillThumbnailsResult{Updated: make(map[domain.Category]int, len(categories))}
	for _, c := range categories {
		n, err := h.products.BackfillThumbnails(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("failed to backfill %s: %w", c, err)
		}
		result.Updated[c] = n
		result.Total += n
	}

	if result.Total > 0 {
		event := domain.CatalogUpdatedEvent{Category: scope, UpdatedAt: time.Now().UTC()}
		if err := h.publisher.PublishCatalogUpdated(ctx, event); err != nil {
			logger.Warn(ctx).Err(err).Int("updated", result.Total).Msg("Failed to publish catalog updated event")
		}
	}
	return result, nil
}
