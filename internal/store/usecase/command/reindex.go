package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/pkg/logger"
)

// ReindexCommand rebuilds the search index from the category collections
type ReindexCommand struct{}

// ReindexResult summarizes a rebuild
type ReindexResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	TotalIndexed int    `json:"totalIndexed"`
}

// ReindexHandler handles reindex command. Rebuilds are serialized; running
// one twice leaves the same index.
type ReindexHandler struct {
	index    domain.SearchIndex
	products domain.ProductRepository
	mu       sync.Mutex
}

// NewReindexHandler creates a new reindex handler
func NewReindexHandler(index domain.SearchIndex, products domain.ProductRepository) *ReindexHandler {
	return &ReindexHandler{index: index, products: products}
}

// Handle reads every category, then drops and recreates the index and
// bulk-loads it. A read failure leaves the current index untouched; a load
// failure drops the partial index so search falls back to collection scans.
func (h *ReindexHandler) Handle(ctx context.Context, _ ReindexCommand) (*ReindexResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Collect documents before touching the index
	var docs []domain.IndexDocument
	for _, category := range domain.Categories {
		products, err := h.products.All(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", category, err)
		}
		for _, p := range products {
			docs = append(docs, domain.NewIndexDocument(p))
		}
		logger.Debug(ctx).Str("category", string(category)).Int("count", len(products)).Msg("Collected products for indexing")
	}

	if err := h.index.Recreate(ctx); err != nil {
		return nil, fmt.Errorf("failed to recreate index: %w", err)
	}

	indexed, err := h.index.BulkIndex(ctx, docs)
	if err != nil {
		if dropErr := h.index.Drop(ctx); dropErr != nil {
			logger.Error(ctx).Err(dropErr).Msg("Failed to drop partially built search index")
		}
		return nil, fmt.Errorf("failed to index products: %w", err)
	}

	logger.Info(ctx).Int("total_indexed", indexed).Int("total_products", len(docs)).Msg("Search index rebuilt")

	return &ReindexResult{
		Success:      true,
		Message:      fmt.Sprintf("Indexed %d products", indexed),
		TotalIndexed: indexed,
	}, nil
}
