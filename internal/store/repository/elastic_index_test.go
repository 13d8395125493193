package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/hiking-store/internal/store/domain"
)

// stubCluster answers the handful of endpoints the adapter calls
type stubCluster struct {
	mu          sync.Mutex
	indexExists bool
	requests    []string
	lastSearch  map[string]interface{}
	bulkDocs    int
	searchReply string
}

func (c *stubCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, r.Method+" "+r.URL.Path)
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/products":
		if !c.indexExists {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodDelete && r.URL.Path == "/products":
		c.indexExists = false
		fmt.Fprint(w, `{"acknowledged":true}`)
	case r.Method == http.MethodPut && r.URL.Path == "/products":
		c.indexExists = true
		fmt.Fprint(w, `{"acknowledged":true,"index":"products"}`)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		if !c.indexExists {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"type":"index_not_found_exception"},"status":404}`)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&c.lastSearch)
		fmt.Fprint(w, c.searchReply)
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		var items []string
		scanner := bufio.NewScanner(r.Body)
		line := 0
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) == "" {
				continue
			}
			if line%2 == 0 {
				items = append(items, `{"index":{"_index":"products","status":201,"result":"created"}}`)
			}
			line++
		}
		c.bulkDocs += len(items)
		fmt.Fprintf(w, `{"took":1,"errors":false,"items":[%s]}`, strings.Join(items, ","))
	case strings.HasSuffix(r.URL.Path, "/_refresh"):
		fmt.Fprint(w, `{"_shards":{"total":1,"successful":1,"failed":0}}`)
	case r.URL.Path == "/_cluster/health":
		fmt.Fprint(w, `{"status":"green"}`)
	default:
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newTestSearchIndex(t *testing.T, cluster *stubCluster) *ElasticSearchIndex {
	t.Helper()

	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)

	return NewElasticSearchIndex(client, "products")
}

func TestElasticSearchIndex_SearchMissingIndex(t *testing.T) {
	idx := newTestSearchIndex(t, &stubCluster{})

	_, err := idx.Search(context.Background(), domain.SearchRequest{Query: "trail", Size: 20})
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestElasticSearchIndex_Search(t *testing.T) {
	cluster := &stubCluster{
		indexExists: true,
		searchReply: `{"hits":{"total":{"value":42,"relation":"eq"},"hits":[
			{"_id":"b","_score":3.5},
			{"_id":"a","_score":1.25}
		]}}`,
	}
	idx := newTestSearchIndex(t, cluster)

	res, err := idx.Search(context.Background(), domain.SearchRequest{Query: "trail", From: 20, Size: 20})
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.Total)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "b", res.Hits[0].ID)
	assert.Equal(t, 3.5, res.Hits[0].Score)

	assert.EqualValues(t, 20, cluster.lastSearch["from"])
	assert.EqualValues(t, 20, cluster.lastSearch["size"])
}

func TestElasticSearchIndex_RecreateAndBulkIndex(t *testing.T) {
	cluster := &stubCluster{indexExists: true}
	idx := newTestSearchIndex(t, cluster)
	ctx := context.Background()

	require.NoError(t, idx.Recreate(ctx))
	assert.Contains(t, cluster.requests, "DELETE /products")
	assert.Contains(t, cluster.requests, "PUT /products")

	docs := make([]domain.IndexDocument, 3)
	for i := range docs {
		docs[i] = domain.IndexDocument{
			ID:        fmt.Sprintf("65f0c0ffee000000000000%02d", i),
			Title:     fmt.Sprintf("Product %d", i),
			Category:  domain.CategoryGoods,
			CreatedAt: time.Now(),
		}
	}

	n, err := idx.BulkIndex(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, cluster.bulkDocs)
	assert.Contains(t, cluster.requests, "POST /products/_refresh")
}

func TestElasticSearchIndex_NilClient(t *testing.T) {
	idx := NewElasticSearchIndex(nil, "products")
	ctx := context.Background()

	_, err := idx.Search(ctx, domain.SearchRequest{Query: "x"})
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
	assert.ErrorIs(t, idx.Recreate(ctx), domain.ErrSearchUnavailable)
	assert.ErrorIs(t, idx.Ping(ctx), domain.ErrSearchUnavailable)
	assert.ErrorIs(t, idx.Drop(ctx), domain.ErrSearchUnavailable)
}

func TestElasticSearchIndex_Drop(t *testing.T) {
	cluster := &stubCluster{indexExists: true, searchReply: `{"hits":{"total":{"value":0},"hits":[]}}`}
	idx := newTestSearchIndex(t, cluster)
	ctx := context.Background()

	require.NoError(t, idx.Drop(ctx))
	assert.Contains(t, cluster.requests, "DELETE /products")

	_, err := idx.Search(ctx, domain.SearchRequest{Query: "trail", Size: 10})
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}
