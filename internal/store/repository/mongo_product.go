package repository

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/pkg/logger"
)

// MongoProductRepository reads the per-category product collections
type MongoProductRepository struct {
	db *mongo.Database
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{db: db}
}

func (r *MongoProductRepository) collectionExists(ctx context.Context, name string) (bool, error) {
	names, err := r.db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

func (r *MongoProductRepository) ListCategory(ctx context.Context, category domain.Category, page, limit int) (_ *domain.ProductPage, err error) {
	ctx, span := startSpan(ctx, "repository.ListCategory", "mongodb",
		attribute.String("store.category", string(category)),
		attribute.Int("query.page", page),
		attribute.Int("query.limit", limit),
	)
	defer func() { endSpan(span, err) }()

	exists, err := r.collectionExists(ctx, category.Collection())
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	if !exists {
		logger.Debug(ctx).
			Str("collection", category.Collection()).
			Msg("Category collection does not exist")
		return &domain.ProductPage{Products: []domain.Product{}, Page: 1}, nil
	}

	coll := r.db.Collection(category.Collection())

	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", category, err)
	}

	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	products, err := r.find(ctx, category, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(products)))
	return &domain.ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		TotalPages: domain.TotalPages(total, limit),
	}, nil
}

func (r *MongoProductRepository) FindByIDs(ctx context.Context, categories []domain.Category, ids []string) (_ []domain.Product, err error) {
	ctx, span := startSpan(ctx, "repository.FindByIDs", "mongodb",
		categoryAttrs(categories),
		attribute.Int("query.ids", len(ids)),
	)
	defer func() { endSpan(span, err) }()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			objectIDs = append(objectIDs, oid)
		}
	}
	if len(objectIDs) == 0 {
		return []domain.Product{}, nil
	}

	filter := bson.M{"_id": bson.M{"$in": objectIDs}}
	return r.fanOut(ctx, categories, func(ctx context.Context, c domain.Category) ([]domain.Product, error) {
		return r.find(ctx, c, filter, options.Find())
	})
}

func (r *MongoProductRepository) MatchSubstring(ctx context.Context, categories []domain.Category, query string, perCategory int) (_ []domain.Product, err error) {
	ctx, span := startSpan(ctx, "repository.MatchSubstring", "mongodb",
		categoryAttrs(categories),
		attribute.String("query.text", query),
		attribute.Int("query.per_category", perCategory),
	)
	defer func() { endSpan(span, err) }()

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"brand": pattern},
		bson.M{"name": pattern},
	}}

	return r.fanOut(ctx, categories, func(ctx context.Context, c domain.Category) ([]domain.Product, error) {
		return r.find(ctx, c, filter, options.Find().SetLimit(int64(perCategory)))
	})
}

func (r *MongoProductRepository) All(ctx context.Context, category domain.Category) (_ []domain.Product, err error) {
	ctx, span := startSpan(ctx, "repository.All", "mongodb",
		attribute.String("store.category", string(category)),
	)
	defer func() { endSpan(span, err) }()

	return r.find(ctx, category, bson.M{}, options.Find())
}

// BackfillThumbnails resolves the legacy side table once, at ingestion time,
// so the read path never joins by title. Side-table rows keyed by productId
// win over rows matched by title.
func (r *MongoProductRepository) BackfillThumbnails(ctx context.Context, category domain.Category) (_ int, err error) {
	ctx, span := startSpan(ctx, "repository.BackfillThumbnails", "mongodb",
		attribute.String("store.category", string(category)),
	)
	defer func() { endSpan(span, err) }()

	byID, byTitle, err := r.loadSideThumbnails(ctx, category)
	if err != nil {
		return 0, err
	}
	if len(byID) == 0 && len(byTitle) == 0 {
		return 0, nil
	}

	products, err := r.All(ctx, category)
	if err != nil {
		return 0, err
	}

	coll := r.db.Collection(category.Collection())
	updated := 0
	for _, p := range products {
		if p.Thumbnail != nil {
			continue
		}
		thumb, ok := byID[p.ID]
		if !ok {
			thumb, ok = byTitle[p.Title]
		}
		if !ok {
			continue
		}

		oid, err := primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			continue
		}
		res, err := coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"thumbnails": thumb}})
		if err != nil {
			return updated, fmt.Errorf("failed to update thumbnail of %s: %w", p.ID, err)
		}
		updated += int(res.ModifiedCount)
	}

	span.SetAttributes(attribute.Int("result.updated", updated))
	return updated, nil
}

func (r *MongoProductRepository) loadSideThumbnails(ctx context.Context, category domain.Category) (map[string]string, map[string]string, error) {
	cursor, err := r.db.Collection(category.ThumbnailCollection()).Find(ctx, bson.M{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", category.ThumbnailCollection(), err)
	}
	defer cursor.Close(ctx)

	byID := make(map[string]string)
	byTitle := make(map[string]string)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, nil, fmt.Errorf("failed to decode thumbnail: %w", err)
		}
		thumb := firstString(doc, sideThumbnailFields...)
		if thumb == nil {
			continue
		}
		if pid := idString(doc["productId"]); pid != "" {
			byID[pid] = *thumb
			continue
		}
		if title := firstString(doc, titleFields...); title != nil {
			byTitle[*title] = *thumb
		}
	}
	return byID, byTitle, cursor.Err()
}

func (r *MongoProductRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

func (r *MongoProductRepository) find(ctx context.Context, category domain.Category, filter interface{}, opts *options.FindOptions) ([]domain.Product, error) {
	cursor, err := r.db.Collection(category.Collection()).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", category, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", category, err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, normalizeProduct(doc, category))
	}
	return products, nil
}

// fanOut runs fn for every category concurrently and concatenates the
// results in category order
func (r *MongoProductRepository) fanOut(ctx context.Context, categories []domain.Category, fn func(context.Context, domain.Category) ([]domain.Product, error)) ([]domain.Product, error) {
	results := make([][]domain.Product, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range categories {
		g.Go(func() error {
			products, err := fn(gctx, c)
			if err != nil {
				return err
			}
			results[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]domain.Product, 0)
	for _, products := range results {
		merged = append(merged, products...)
	}
	return merged, nil
}
