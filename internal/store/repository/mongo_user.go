package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tair/hiking-store/internal/store/domain"
)

const usersCollection = "users"

// userDocument is the projection of a user the store reads
type userDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	Role           string             `bson:"role"`
	FavoriteStores []interface{}      `bson:"favoriteStores"`
}

// MongoUserRepository implements UserRepository on the shared users collection
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a new MongoDB user repository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

// FindByID retrieves a user by ID
func (r *MongoUserRepository) FindByID(ctx context.Context, userID string) (_ *domain.User, err error) {
	ctx, span := startSpan(ctx, "repository.FindUser", "mongodb", attribute.String("user.id", userID))
	defer func() { endSpan(span, err) }()

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	opts := options.FindOne().SetProjection(bson.M{"role": 1, "favoriteStores": 1})

	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user := &domain.User{
		ID:             doc.ID.Hex(),
		Role:           doc.Role,
		FavoriteStores: make([]string, 0, len(doc.FavoriteStores)),
	}
	for _, fav := range doc.FavoriteStores {
		if id := idString(fav); id != "" {
			user.FavoriteStores = append(user.FavoriteStores, id)
		}
	}
	return user, nil
}

// AddFavorite adds productID to the favorite set; repeated adds are no-ops
func (r *MongoUserRepository) AddFavorite(ctx context.Context, userID, productID string) (err error) {
	ctx, span := startSpan(ctx, "repository.AddFavorite", "mongodb",
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
	)
	defer func() { endSpan(span, err) }()

	return r.updateFavorites(ctx, userID, productID, "$addToSet")
}

// RemoveFavorite removes productID from the favorite set
func (r *MongoUserRepository) RemoveFavorite(ctx context.Context, userID, productID string) (err error) {
	ctx, span := startSpan(ctx, "repository.RemoveFavorite", "mongodb",
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
	)
	defer func() { endSpan(span, err) }()

	return r.updateFavorites(ctx, userID, productID, "$pull")
}

func (r *MongoUserRepository) updateFavorites(ctx context.Context, userID, productID, operator string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return domain.ErrInvalidProductID
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{operator: bson.M{"favoriteStores": pid}},
	)
	if err != nil {
		return fmt.Errorf("failed to update favorites: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
