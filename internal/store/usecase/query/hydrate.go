package query

import "github.com/tair/hiking-store/internal/store/domain"

// orderByIDs arranges products in the order of ids, dropping ids with no
// product. A product found in more than one category is kept once.
func orderByIDs(ids []string, products []domain.Product) []domain.Product {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		if _, dup := byID[p.ID]; !dup {
			byID[p.ID] = p
		}
	}

	ordered := make([]domain.Product, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, done := seen[id]; done {
			continue
		}
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
			seen[id] = struct{}{}
		}
	}
	return ordered
}
