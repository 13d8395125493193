package query_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/internal/store/storetest"
	"github.com/tair/hiking-store/internal/store/usecase/query"
)

func productID(n int) string {
	return fmt.Sprintf("65f0c0ffee%014d", n)
}

func product(n int, c domain.Category, title string) domain.Product {
	return domain.Product{ID: productID(n), Title: title, Price: int64(1000 * n), Category: c}
}

func TestListCategory(t *testing.T) {
	repo := storetest.NewProductRepository()
	for i := 1; i <= 3; i++ {
		repo.Add(product(i, domain.CategoryShoes, fmt.Sprintf("Shoe %d", i)))
	}
	h := query.NewListCategoryHandler(repo)
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		page, err := h.Handle(ctx, query.ListCategoryQuery{Category: "shoes"})
		require.NoError(t, err)
		assert.Len(t, page.Products, 3)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("paged", func(t *testing.T) {
		page, err := h.Handle(ctx, query.ListCategoryQuery{Category: "shoes", Page: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, page.Products, 1)
		assert.Equal(t, productID(3), page.Products[0].ID)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("invalid category", func(t *testing.T) {
		_, err := h.Handle(ctx, query.ListCategoryQuery{Category: "hats"})
		assert.ErrorIs(t, err, domain.ErrInvalidCategory)
	})

	t.Run("page out of range", func(t *testing.T) {
		_, err := h.Handle(ctx, query.ListCategoryQuery{Category: "shoes", Page: math.MaxInt, Limit: 1000})
		assert.ErrorIs(t, err, domain.ErrInvalidPage)
	})

	t.Run("missing collection", func(t *testing.T) {
		repo.DropCollection(domain.CategoryTop)
		page, err := h.Handle(ctx, query.ListCategoryQuery{Category: "top"})
		require.NoError(t, err)
		assert.Empty(t, page.Products)
		assert.Equal(t, 0, page.TotalPages)
	})

	t.Run("store error surfaces", func(t *testing.T) {
		failing := storetest.NewProductRepository()
		failing.Err = errors.New("connection refused")
		_, err := query.NewListCategoryHandler(failing).Handle(ctx, query.ListCategoryQuery{Category: "goods"})
		assert.Error(t, err)
	})
}

func TestListRecent(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewProductRepository()
	categories := []domain.Category{domain.CategoryShoes, domain.CategoryTop, domain.CategoryBottom, domain.CategoryGoods}
	for i := 1; i <= 6; i++ {
		repo.Add(product(i, categories[i%4], fmt.Sprintf("P%d", i)))
	}

	recent := storetest.NewRecentStore(5)
	base := time.Now()
	for i := 1; i <= 6; i++ {
		require.NoError(t, recent.Add(ctx, "u1", productID(i), base.Add(time.Duration(i)*time.Second)))
	}

	metrics := storetest.NewRecorder()
	h := query.NewListRecentHandler(recent, repo, metrics)

	t.Run("newest first across categories", func(t *testing.T) {
		products := h.Handle(ctx, query.ListRecentQuery{UserID: "u1"})
		require.Len(t, products, 5)
		for i, p := range products {
			assert.Equal(t, productID(6-i), p.ID)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		assert.Empty(t, h.Handle(ctx, query.ListRecentQuery{}))
	})

	t.Run("deleted products are dropped", func(t *testing.T) {
		require.NoError(t, recent.Add(ctx, "u2", productID(99), base))
		require.NoError(t, recent.Add(ctx, "u2", productID(1), base.Add(time.Second)))

		products := h.Handle(ctx, query.ListRecentQuery{UserID: "u2"})
		require.Len(t, products, 1)
		assert.Equal(t, productID(1), products[0].ID)
	})

	t.Run("store down yields empty list", func(t *testing.T) {
		down := storetest.NewRecentStore(5)
		down.Err = errors.New("dial tcp: connection refused")

		products := query.NewListRecentHandler(down, repo, metrics).Handle(ctx, query.ListRecentQuery{UserID: "u1"})
		assert.Empty(t, products)
		assert.Equal(t, 1, metrics.Degraded["list"])
	})
}

func TestListFavorites(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewProductRepository()
	repo.Add(product(1, domain.CategoryGoods, "Poles"), product(2, domain.CategoryShoes, "Boots"))

	users := storetest.NewUserRepository(domain.User{ID: "u1", FavoriteStores: []string{productID(2), productID(1), productID(7)}})
	h := query.NewListFavoritesHandler(users, repo)

	products, err := h.Handle(ctx, query.ListFavoritesQuery{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, productID(2), products[0].ID)
	assert.Equal(t, productID(1), products[1].ID)

	_, err = h.Handle(ctx, query.ListFavoritesQuery{UserID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSearchProducts(t *testing.T) {
	ctx := context.Background()
	brand := "Salomon"

	newRepo := func() *storetest.ProductRepository {
		repo := storetest.NewProductRepository()
		repo.Add(
			domain.Product{ID: productID(1), Title: "Trail Runner", Brand: &brand, Category: domain.CategoryShoes},
			domain.Product{ID: productID(2), Title: "Road Shoe", Category: domain.CategoryShoes},
			domain.Product{ID: productID(3), Title: "Trail Poles", Category: domain.CategoryGoods},
			domain.Product{ID: productID(4), Title: "TRAIL Shorts", Category: domain.CategoryBottom},
		)
		return repo
	}

	t.Run("blank query", func(t *testing.T) {
		index := storetest.NewSearchIndex(true)
		h := query.NewSearchProductsHandler(index, newRepo(), storetest.NewRecorder())

		page, err := h.Handle(ctx, query.SearchProductsQuery{Query: "   ", Page: 3})
		require.NoError(t, err)
		assert.Empty(t, page.Products)
		assert.Equal(t, int64(0), page.Total)
		assert.Equal(t, 3, page.Page)
		assert.Equal(t, 0, page.TotalPages)
		assert.Empty(t, index.Requests)
	})

	t.Run("index hits keep rank order", func(t *testing.T) {
		index := storetest.NewSearchIndex(true)
		index.Put(
			domain.IndexDocument{ID: productID(3), Title: "Trail Poles", Category: domain.CategoryGoods},
			domain.IndexDocument{ID: productID(1), Title: "Trail Runner", Category: domain.CategoryShoes},
			domain.IndexDocument{ID: productID(42), Title: "Trail Ghost", Category: domain.CategoryTop},
		)
		metrics := storetest.NewRecorder()
		h := query.NewSearchProductsHandler(index, newRepo(), metrics)

		page, err := h.Handle(ctx, query.SearchProductsQuery{Query: "trail"})
		require.NoError(t, err)
		require.Len(t, page.Products, 2)
		assert.Equal(t, productID(3), page.Products[0].ID)
		assert.Equal(t, productID(1), page.Products[1].ID)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 1, page.TotalPages)
		assert.Empty(t, metrics.Fallbacks)

		require.Len(t, index.Requests, 1)
		assert.Equal(t, 0, index.Requests[0].From)
		assert.Equal(t, query.DefaultSearchLimit, index.Requests[0].Size)
	})

	t.Run("pagination and size cap", func(t *testing.T) {
		index := storetest.NewSearchIndex(true)
		h := query.NewSearchProductsHandler(index, newRepo(), storetest.NewRecorder())

		_, err := h.Handle(ctx, query.SearchProductsQuery{Query: "trail", Page: 3, Limit: 80})
		require.NoError(t, err)
		require.Len(t, index.Requests, 1)
		assert.Equal(t, 160, index.Requests[0].From)
		assert.Equal(t, query.MaxSearchSize, index.Requests[0].Size)
	})

	t.Run("category filter", func(t *testing.T) {
		index := storetest.NewSearchIndex(true)
		index.Put(
			domain.IndexDocument{ID: productID(3), Title: "Trail Poles", Category: domain.CategoryGoods},
			domain.IndexDocument{ID: productID(1), Title: "Trail Runner", Category: domain.CategoryShoes},
		)
		h := query.NewSearchProductsHandler(index, newRepo(), storetest.NewRecorder())

		page, err := h.Handle(ctx, query.SearchProductsQuery{Query: "trail", Category: "shoes"})
		require.NoError(t, err)
		require.Len(t, page.Products, 1)
		assert.Equal(t, productID(1), page.Products[0].ID)
		require.NotNil(t, index.Requests[0].Category)
		assert.Equal(t, domain.CategoryShoes, *index.Requests[0].Category)
	})

	t.Run("null category means no filter", func(t *testing.T) {
		index := storetest.NewSearchIndex(true)
		h := query.NewSearchProductsHandler(index, newRepo(), storetest.NewRecorder())

		_, err := h.Handle(ctx, query.SearchProductsQuery{Query: "trail", Category: "null"})
		require.NoError(t, err)
		assert.Nil(t, index.Requests[0].Category)
	})

	t.Run("invalid category", func(t *testing.T) {
		h := query.NewSearchProductsHandler(storetest.NewSearchIndex(true), newRepo(), storetest.NewRecorder())
		_, err := h.Handle(ctx, query.SearchProductsQuery{Query: "trail", Category: "hats"})
		assert.ErrorIs(t, err, domain.ErrInvalidCategory)
	})

	t.Run("fallback when index missing", func(t *testing.T) {
		metrics := storetest.NewRecorder()
		h := query.NewSearchProductsHandler(storetest.NewSearchIndex(false), newRepo(), metrics)

		page, err := h.Handle(ctx, query.SearchProductsQuery{Query: "trail", Limit: 20})
		require.NoError(t, err)
		require.Len(t, page.Products, 3)
		for _, p := range page.Products {
			assert.Contains(t, []string{productID(1), productID(3), productID(4)}, p.ID)
		}
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 1, metrics.Fallbacks[domain.FallbackIndexMissing])
	})

	t.Run("fallback caps at limit", func(t *testing.T) {
		h := query.NewSearchProductsHandler(storetest.NewSearchIndex(false), newRepo(), storetest.NewRecorder())

		page, err := h.Handle(ctx, query.SearchProductsQuery{Query: "trail", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, page.Products, 2)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("fallback with oversized limit", func(t *testing.T) {
		index := storetest.NewSearchIndex(false)
		h := query.NewSearchProductsHandler(index, newRepo(), storetest.NewRecorder())

		page, err := h.Handle(ctx, query.SearchProductsQuery{Query: "trail", Limit: math.MaxInt})
		require.NoError(t, err)
		assert.Len(t, page.Products, 3)
		require.Len(t, index.Requests, 1)
		assert.Equal(t, query.MaxSearchSize, index.Requests[0].Size)
	})

	t.Run("page out of range", func(t *testing.T) {
		index := storetest.NewSearchIndex(true)
		h := query.NewSearchProductsHandler(index, newRepo(), storetest.NewRecorder())

		_, err := h.Handle(ctx, query.SearchProductsQuery{Query: "trail", Page: math.MaxInt, Limit: math.MaxInt})
		assert.ErrorIs(t, err, domain.ErrInvalidPage)
		assert.Empty(t, index.Requests)
	})

	t.Run("fallback on backend error", func(t *testing.T) {
		index := storetest.NewSearchIndex(true)
		index.Err = errors.New("search_phase_execution_exception")
		metrics := storetest.NewRecorder()
		h := query.NewSearchProductsHandler(index, newRepo(), metrics)

		page, err := h.Handle(ctx, query.SearchProductsQuery{Query: "salomon"})
		require.NoError(t, err)
		require.Len(t, page.Products, 1)
		assert.Equal(t, productID(1), page.Products[0].ID)
		assert.Equal(t, 1, metrics.Fallbacks[domain.FallbackError])
	})

	t.Run("fallback store failure surfaces", func(t *testing.T) {
		repo := newRepo()
		repo.Err = errors.New("mongo down")
		h := query.NewSearchProductsHandler(storetest.NewSearchIndex(false), repo, storetest.NewRecorder())

		_, err := h.Handle(ctx, query.SearchProductsQuery{Query: "trail"})
		assert.Error(t, err)
	})
}

func TestParseCategoryFilter(t *testing.T) {
	c, err := query.ParseCategoryFilter("")
	assert.NoError(t, err)
	assert.Nil(t, c)

	c, err = query.ParseCategoryFilter("goods")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryGoods, *c)
}
