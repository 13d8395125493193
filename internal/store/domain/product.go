package domain

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is one of the fixed store categories. Each category is backed by
// a MongoDB collection of the same name.
type Category string

const (
	CategoryShoes  Category = "shoes"
	CategoryTop    Category = "top"
	CategoryBottom Category = "bottom"
	CategoryGoods  Category = "goods"
)

// Categories lists every category in catalog order
var Categories = []Category{CategoryShoes, CategoryTop, CategoryBottom, CategoryGoods}

// ParseCategory validates a category name
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Collection is the product collection backing the category
func (c Category) Collection() string {
	return string(c)
}

// ThumbnailCollection is the legacy side table holding thumbnails by title
func (c Category) ThumbnailCollection() string {
	return string(c) + "_thumbnails"
}

// Product is the normalized product record returned by every read path.
// Optional attributes are pointers so they serialize as null when absent.
type Product struct {
	ObjectID      string    `json:"_id"`
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Brand         *string   `json:"brand"`
	Price         int64     `json:"price"`
	OriginalPrice *int64    `json:"original_price"`
	DiscountRate  *float64  `json:"discount_rate"`
	Thumbnail     *string   `json:"thumbnails"`
	URL           *string   `json:"url"`
	Category      Category  `json:"category"`
	Description   string    `json:"-"`
	CreatedAt     time.Time `json:"-"`
}

// ProductPage is one page of a category listing
type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

// IsValidProductID reports whether id is a well-formed store identifier
func IsValidProductID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// TotalPages is ceil(total/limit), 0 for an empty result
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// ProductRepository reads the category collections
type ProductRepository interface {
	// ListCategory returns one page of a category. A category whose
	// collection does not exist yields an empty page, not an error.
	ListCategory(ctx context.Context, category Category, page, limit int) (*ProductPage, error)
	// FindByIDs hydrates ids from the given categories. Malformed and unknown
	// ids are dropped; result order is unspecified.
	FindByIDs(ctx context.Context, categories []Category, ids []string) ([]Product, error)
	// MatchSubstring scans categories for a case-insensitive substring of
	// query in title, brand or name, returning at most perCategory per category.
	MatchSubstring(ctx context.Context, categories []Category, query string, perCategory int) ([]Product, error)
	// All returns every product of a category
	All(ctx context.Context, category Category) ([]Product, error)
	// BackfillThumbnails copies side-table thumbnails onto products lacking one
	BackfillThumbnails(ctx context.Context, category Category) (int, error)
	Ping(ctx context.Context) error
}
