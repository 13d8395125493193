package http_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storehttp "github.com/tair/hiking-store/internal/store/delivery/http"
	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/internal/store/storetest"
	"github.com/tair/hiking-store/internal/store/usecase/command"
	"github.com/tair/hiking-store/internal/store/usecase/query"
	"github.com/tair/hiking-store/pkg/auth"
)

const testSecret = "test-secret"

type testServer struct {
	router   *mux.Router
	products *storetest.ProductRepository
	users    *storetest.UserRepository
	index    *storetest.SearchIndex
	tokens   *auth.TokenValidator
}

func productID(n int) string {
	return fmt.Sprintf("65f0c0ffee%014d", n)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	products := storetest.NewProductRepository()
	users := storetest.NewUserRepository(
		domain.User{ID: "u1", Role: "user"},
		domain.User{ID: "boss", Role: domain.RoleAdmin},
	)
	recent := storetest.NewRecentStore(5)
	index := storetest.NewSearchIndex(false)
	tokens := auth.NewTokenValidator(testSecret, time.Hour)
	metrics := storehttp.NewMetrics(prometheus.NewRegistry())
	publisher := &storetest.Publisher{}

	handler := storehttp.NewStoreHandler(
		command.NewRecordViewHandler(recent, publisher, metrics),
		command.NewToggleFavoriteHandler(users, publisher, metrics),
		command.NewReindexHandler(index, products),
		command.NewBackfillThumbnailsHandler(products, publisher),
		query.NewListCategoryHandler(products),
		query.NewListRecentHandler(recent, products, metrics),
		query.NewListFavoritesHandler(users, products),
		query.NewSearchProductsHandler(index, products, metrics),
		metrics,
	)

	router := mux.NewRouter()
	mw := storehttp.DefaultMiddlewareConfig(tokens, users, nil)
	mw.EnableTracing = false
	storehttp.RegisterMiddlewares(router, mw)
	handler.RegisterRoutes(router, mw)

	return &testServer{router: router, products: products, users: users, index: index, tokens: tokens}
}

func (s *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := s.tokens.GenerateToken(userID, userID, role)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func productIDs(t *testing.T, body map[string]interface{}) []string {
	t.Helper()
	raw, ok := body["products"].([]interface{})
	require.True(t, ok, "products missing: %v", body)
	ids := make([]string, len(raw))
	for i, p := range raw {
		ids[i] = p.(map[string]interface{})["id"].(string)
	}
	return ids
}

func TestListCategoryEndpoint(t *testing.T) {
	s := newTestServer(t)
	brand := "Salomon"
	s.products.Add(
		domain.Product{ID: productID(1), Title: "Trail Runner", Brand: &brand, Price: 129000, Category: domain.CategoryShoes},
		domain.Product{ID: productID(2), Title: "Hiking Boot", Price: 189000, Category: domain.CategoryShoes},
	)

	t.Run("lists with normalized fields", func(t *testing.T) {
		rec, body := s.do(t, "GET", "/api/store/shoes?page=1&limit=20", "")
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, []string{productID(1), productID(2)}, productIDs(t, body))
		assert.EqualValues(t, 2, body["total"])
		assert.EqualValues(t, 1, body["page"])
		assert.EqualValues(t, 1, body["totalPages"])

		first := body["products"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, productID(1), first["_id"])
		assert.Equal(t, "Salomon", first["brand"])
		assert.Equal(t, "shoes", first["category"])
		assert.Contains(t, first, "thumbnails")
		assert.Nil(t, first["thumbnails"])
	})

	t.Run("unknown category", func(t *testing.T) {
		rec, body := s.do(t, "GET", "/api/store/hats", "")
		assert.Equal(t, 400, rec.Code)
		assert.NotEmpty(t, body["error"])
	})

	t.Run("page out of range", func(t *testing.T) {
		rec, body := s.do(t, "GET", "/api/store/shoes?page=9223372036854775807&limit=1000", "")
		assert.Equal(t, 400, rec.Code)
		assert.Equal(t, "page out of range", body["error"])
	})

	t.Run("missing collection", func(t *testing.T) {
		s.products.DropCollection(domain.CategoryTop)
		rec, body := s.do(t, "GET", "/api/store/top", "")
		assert.Equal(t, 200, rec.Code)
		assert.Empty(t, productIDs(t, body))
		assert.EqualValues(t, 0, body["total"])
		assert.EqualValues(t, 1, body["page"])
		assert.EqualValues(t, 0, body["totalPages"])
	})
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.products.Add(
		domain.Product{ID: productID(1), Title: "Trail Runner", Category: domain.CategoryShoes},
		domain.Product{ID: productID(2), Title: "Trail Poles", Category: domain.CategoryGoods},
		domain.Product{ID: productID(3), Title: "Rain Jacket", Category: domain.CategoryTop},
	)

	t.Run("fallback without index", func(t *testing.T) {
		rec, body := s.do(t, "GET", "/api/store/search?q=trail", "")
		assert.Equal(t, 200, rec.Code)
		assert.ElementsMatch(t, []string{productID(1), productID(2)}, productIDs(t, body))
		assert.EqualValues(t, 2, body["total"])
	})

	t.Run("blank query", func(t *testing.T) {
		rec, body := s.do(t, "GET", "/api/store/search?q=%20%20&page=2", "")
		assert.Equal(t, 200, rec.Code)
		assert.Empty(t, productIDs(t, body))
		assert.EqualValues(t, 0, body["total"])
		assert.EqualValues(t, 2, body["page"])
		assert.EqualValues(t, 0, body["totalPages"])
	})

	t.Run("invalid category", func(t *testing.T) {
		rec, _ := s.do(t, "GET", "/api/store/search?q=trail&category=hats", "")
		assert.Equal(t, 400, rec.Code)
	})

	t.Run("after reindex uses the index", func(t *testing.T) {
		rec, body := s.do(t, "POST", "/api/store/index/init", s.token(t, "boss", auth.RoleAdmin))
		require.Equal(t, 200, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.EqualValues(t, 3, body["totalIndexed"])

		rec, body = s.do(t, "GET", "/api/store/search?q=trail&category=goods", "")
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, []string{productID(2)}, productIDs(t, body))
		require.NotEmpty(t, s.index.Requests)
	})
}

func TestFavoritesEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.products.Add(domain.Product{ID: productID(7), Title: "Poles", Category: domain.CategoryGoods})
	token := s.token(t, "u1", auth.RoleUser)
	path := "/api/store/" + productID(7) + "/favorite"

	rec, body := s.do(t, "POST", path, token)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, true, body["isFavorited"])

	rec, body = s.do(t, "GET", "/api/store/favorites/my", token)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, []string{productID(7)}, productIDs(t, body))
	assert.EqualValues(t, 1, body["count"])

	rec, body = s.do(t, "POST", path, token)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, false, body["isFavorited"])

	rec, body = s.do(t, "GET", "/api/store/favorites/my", token)
	require.Equal(t, 200, rec.Code)
	assert.Empty(t, productIDs(t, body))
	assert.EqualValues(t, 0, body["count"])

	t.Run("requires auth", func(t *testing.T) {
		rec, _ := s.do(t, "POST", path, "")
		assert.Equal(t, 401, rec.Code)

		rec, _ = s.do(t, "GET", "/api/store/favorites/my", "not-a-jwt")
		assert.Equal(t, 401, rec.Code)
	})

	t.Run("malformed product id", func(t *testing.T) {
		rec, _ := s.do(t, "POST", "/api/store/b/favorite", token)
		assert.Equal(t, 400, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec, _ := s.do(t, "POST", path, s.token(t, "ghost", auth.RoleUser))
		assert.Equal(t, 404, rec.Code)
	})
}

func TestRecentEndpoints(t *testing.T) {
	s := newTestServer(t)
	for i := 1; i <= 6; i++ {
		s.products.Add(domain.Product{ID: productID(i), Title: fmt.Sprintf("P%d", i), Category: domain.Categories[i%4]})
	}
	token := s.token(t, "u1", auth.RoleUser)

	for i := 1; i <= 6; i++ {
		rec, body := s.do(t, "POST", "/api/store/recent/"+productID(i), token)
		require.Equal(t, 200, rec.Code)
		assert.Equal(t, true, body["tracked"])
	}

	rec, body := s.do(t, "GET", "/api/store/recent", token)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, []string{productID(6), productID(5), productID(4), productID(3), productID(2)}, productIDs(t, body))

	t.Run("anonymous", func(t *testing.T) {
		rec, body := s.do(t, "POST", "/api/store/recent/"+productID(1), "")
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, false, body["tracked"])

		rec, body = s.do(t, "GET", "/api/store/recent", "")
		assert.Equal(t, 200, rec.Code)
		assert.Empty(t, productIDs(t, body))

		rec, body = s.do(t, "POST", "/api/store/recent/not-an-id", "")
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, false, body["tracked"])
	})
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)

	t.Run("non-admin is forbidden", func(t *testing.T) {
		rec, _ := s.do(t, "POST", "/api/store/index/init", s.token(t, "u1", auth.RoleUser))
		assert.Equal(t, 403, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec, _ := s.do(t, "POST", "/api/store/index/init", "")
		assert.Equal(t, 401, rec.Code)
	})

	t.Run("admin role from user record", func(t *testing.T) {
		rec, _ := s.do(t, "POST", "/api/store/thumbnails/backfill", s.token(t, "boss", ""))
		assert.Equal(t, 200, rec.Code)
	})

	t.Run("search backend unavailable", func(t *testing.T) {
		s.index.Err = domain.ErrSearchUnavailable
		defer func() { s.index.Err = nil }()

		rec, body := s.do(t, "POST", "/api/store/index/init", s.token(t, "boss", auth.RoleAdmin))
		assert.Equal(t, 503, rec.Code)
		assert.NotEmpty(t, body["error"])
	})

	t.Run("store failure", func(t *testing.T) {
		s.products.Err = errors.New("mongo down")
		defer func() { s.products.Err = nil }()

		rec, _ := s.do(t, "POST", "/api/store/index/init", s.token(t, "boss", auth.RoleAdmin))
		assert.Equal(t, 500, rec.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := storehttp.NewRateLimiter(client, 2, time.Minute)
	ok := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest("GET", "/api/store/shoes", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		ok.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	t.Run("other clients are unaffected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/store/shoes", nil)
		req.RemoteAddr = "10.0.0.2:5555"
		rec := httptest.NewRecorder()
		ok.ServeHTTP(rec, req)
		assert.Equal(t, 200, rec.Code)
	})

	t.Run("redis down lets requests through", func(t *testing.T) {
		mr.Close()
		req := httptest.NewRequest("GET", "/api/store/shoes", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		ok.ServeHTTP(rec, req)
		assert.Equal(t, 200, rec.Code)
	})
}
