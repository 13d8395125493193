package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/pkg/logger"
)

const searchTimeout = 5 * time.Second

// ElasticSearchIndex implements SearchIndex on a single Elasticsearch index.
// A nil client makes every call fail with ErrSearchUnavailable.
type ElasticSearchIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticSearchIndex creates a search index adapter
func NewElasticSearchIndex(client *elasticsearch.Client, index string) *ElasticSearchIndex {
	return &ElasticSearchIndex{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID    string   `json:"_id"`
			Score *float64 `json:"_score"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticSearchIndex) Search(ctx context.Context, req domain.SearchRequest) (_ *domain.SearchResult, err error) {
	ctx, span := startSpan(ctx, "repository.Search", "elasticsearch",
		attribute.String("query.text", req.Query),
		attribute.Int("query.from", req.From),
		attribute.Int("query.size", req.Size),
	)
	defer func() { endSpan(span, err) }()

	if s.client == nil {
		return nil, domain.ErrSearchUnavailable
	}

	body, err := json.Marshal(BuildSearchBody(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, domain.ErrIndexNotFound
	}
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &domain.SearchResult{
		Hits:  make([]domain.SearchHit, 0, len(parsed.Hits.Hits)),
		Total: parsed.Hits.Total.Value,
	}
	for _, h := range parsed.Hits.Hits {
		hit := domain.SearchHit{ID: h.ID}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits = append(result.Hits, hit)
	}

	span.SetAttributes(attribute.Int64("result.total", result.Total))
	return result, nil
}

func (s *ElasticSearchIndex) Recreate(ctx context.Context) (err error) {
	ctx, span := startSpan(ctx, "repository.RecreateIndex", "elasticsearch", attribute.String("es.index", s.index))
	defer func() { endSpan(span, err) }()

	if s.client == nil {
		return domain.ErrSearchUnavailable
	}

	exists, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists request failed: %w", err)
	}
	exists.Body.Close()

	if exists.StatusCode == http.StatusOK {
		res, err := s.client.Indices.Delete([]string{s.index}, s.client.Indices.Delete.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("index delete request failed: %w", err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return responseError("delete index", res)
		}
		logger.Info(ctx).Str("index", s.index).Msg("Dropped existing search index")
	}

	body, err := json.Marshal(jsonMap{"settings": indexSettings, "mappings": indexMappings})
	if err != nil {
		return fmt.Errorf("failed to encode index definition: %w", err)
	}

	res, err := s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("index create request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}

	logger.Info(ctx).Str("index", s.index).Msg("Created search index")
	return nil
}

func (s *ElasticSearchIndex) BulkIndex(ctx context.Context, docs []domain.IndexDocument) (_ int, err error) {
	ctx, span := startSpan(ctx, "repository.BulkIndex", "elasticsearch",
		attribute.String("es.index", s.index),
		attribute.Int("bulk.documents", len(docs)),
	)
	defer func() { endSpan(span, err) }()

	if s.client == nil {
		return 0, domain.ErrSearchUnavailable
	}
	if len(docs) == 0 {
		return 0, nil
	}

	var failed atomic.Int64
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     s.client,
		Index:      s.index,
		NumWorkers: 2,
		FlushBytes: 5 << 20,
		OnError: func(ctx context.Context, err error) {
			logger.Error(ctx).Err(err).Msg("Bulk indexer error")
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	for _, doc := range docs {
		payload, err := json.Marshal(doc)
		if err != nil {
			_ = bi.Close(ctx)
			return 0, fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
		}

		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.ID,
			Body:       bytes.NewReader(payload),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				ev := logger.Warn(ctx).Str("document_id", item.DocumentID)
				if err != nil {
					ev = ev.Err(err)
				} else {
					ev = ev.Str("reason", res.Error.Reason)
				}
				ev.Msg("Document failed to index")
			},
		})
		if err != nil {
			_ = bi.Close(ctx)
			return 0, fmt.Errorf("failed to queue document %s: %w", doc.ID, err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return 0, fmt.Errorf("bulk indexing failed: %w", err)
	}

	res, err := s.client.Indices.Refresh(
		s.client.Indices.Refresh.WithContext(ctx),
		s.client.Indices.Refresh.WithIndex(s.index),
	)
	if err != nil {
		return 0, fmt.Errorf("index refresh request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, responseError("refresh index", res)
	}

	stats := bi.Stats()
	indexed := int(stats.NumIndexed)
	span.SetAttributes(
		attribute.Int("bulk.indexed", indexed),
		attribute.Int64("bulk.failed", failed.Load()),
	)
	return indexed, nil
}

func (s *ElasticSearchIndex) Drop(ctx context.Context) (err error) {
	ctx, span := startSpan(ctx, "repository.DropIndex", "elasticsearch", attribute.String("es.index", s.index))
	defer func() { endSpan(span, err) }()

	if s.client == nil {
		return domain.ErrSearchUnavailable
	}

	res, err := s.client.Indices.Delete([]string{s.index},
		s.client.Indices.Delete.WithContext(ctx),
		s.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("index delete request failed: %w", err)
	}
	defer res.Body.Close()

	// Already gone
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete index", res)
	}

	logger.Warn(ctx).Str("index", s.index).Msg("Dropped search index")
	return nil
}

func (s *ElasticSearchIndex) Ping(ctx context.Context) error {
	if s.client == nil {
		return domain.ErrSearchUnavailable
	}
	res, err := s.client.Cluster.Health(s.client.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("cluster health", res)
	}
	return nil
}

func responseError(op string, res *esapi.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	if len(raw) == 0 {
		return errors.New(op + " failed: " + res.Status())
	}
	return fmt.Errorf("%s failed: %s: %s", op, res.Status(), bytes.TrimSpace(raw))
}
