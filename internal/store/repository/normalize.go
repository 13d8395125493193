package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tair/hiking-store/internal/store/domain"
)

// Catalog documents come from several crawlers and disagree on field names;
// each attribute lists its aliases in priority order.
var (
	titleFields         = []string{"title", "name"}
	brandFields         = []string{"brand", "brandName", "manufacturer"}
	originalPriceFields = []string{"original_price", "originalPrice"}
	discountRateFields  = []string{"discount_rate", "discountRate"}
	thumbnailFields     = []string{"thumbnails", "thumbnail", "image"}
	urlFields           = []string{"url", "link", "productUrl", "product_link"}

	sideThumbnailFields = []string{"thumbnails", "thumbnail", "image", "url"}
)

// normalizeProduct maps a raw catalog document to a Product
func normalizeProduct(doc bson.M, category domain.Category) domain.Product {
	id := idString(doc["_id"])
	title := ""
	if t := firstString(doc, titleFields...); t != nil {
		title = *t
	}

	p := domain.Product{
		ObjectID:  id,
		ID:        id,
		Title:     title,
		Brand:     firstString(doc, brandFields...),
		Thumbnail: firstString(doc, thumbnailFields...),
		URL:       firstString(doc, urlFields...),
		Category:  category,
		CreatedAt: toTime(doc["createdAt"]),
	}
	if d := firstString(doc, "description"); d != nil {
		p.Description = *d
	}
	if price, ok := toInt64(doc["price"]); ok {
		p.Price = price
	}
	for _, f := range originalPriceFields {
		if v, ok := toInt64(doc[f]); ok && v != 0 {
			p.OriginalPrice = &v
			break
		}
	}
	for _, f := range discountRateFields {
		if v, ok := toFloat64(doc[f]); ok && v != 0 {
			p.DiscountRate = &v
			break
		}
	}
	return p
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// firstString returns the first non-empty string among fields. Array values
// (some crawlers store a thumbnail list) yield their first string element.
func firstString(doc bson.M, fields ...string) *string {
	for _, f := range fields {
		if s := asString(doc[f]); s != "" {
			return &s
		}
	}
	return nil
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case bson.A:
		for _, item := range s {
			if str := asString(item); str != "" {
				return str
			}
		}
	case []interface{}:
		return asString(bson.A(s))
	}
	return ""
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(n.String(), 64)
		return int64(f), err == nil
	case string:
		cleaned := strings.NewReplacer(",", "", "원", "", " ", "").Replace(n)
		i, err := strconv.ParseInt(cleaned, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(n), "%"), 64)
		return f, err == nil
	}
	return 0, false
}

func toTime(v interface{}) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
