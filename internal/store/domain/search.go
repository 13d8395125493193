package domain

import (
	"context"
	"time"
)

// SearchRequest is a ranked full-text query against the search index
type SearchRequest struct {
	Query    string
	Category *Category
	From     int
	Size     int
}

// SearchHit is one ranked document id
type SearchHit struct {
	ID    string
	Score float64
}

// SearchResult holds hits ordered by relevance then recency
type SearchResult struct {
	Hits  []SearchHit
	Total int64
}

// IndexDocument is the projection of a product kept in the search index.
// The index is a rebuildable cache of the category collections.
type IndexDocument struct {
	ID          string    `json:"-"`
	Title       string    `json:"title"`
	Brand       string    `json:"brand"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Price       int64     `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewIndexDocument projects a product into its index document
func NewIndexDocument(p Product) IndexDocument {
	doc := IndexDocument{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
	}
	if p.Brand != nil {
		doc.Brand = *p.Brand
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	return doc
}

// SearchIndex is the external text-search engine
type SearchIndex interface {
	// Search returns ErrIndexNotFound when the index is absent
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
	// Recreate drops the index if present and creates it with its mapping
	Recreate(ctx context.Context) error
	// BulkIndex writes documents and refreshes, returning the indexed count
	BulkIndex(ctx context.Context, docs []IndexDocument) (int, error)
	// Drop deletes the index; a missing index is not an error
	Drop(ctx context.Context) error
	Ping(ctx context.Context) error
}
