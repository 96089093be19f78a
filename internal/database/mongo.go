package database

import (
	"context"
	"fmt"
	"time"

	"shop-api/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names shared by the document store repositories
const (
	UsersCollection         = "users"
	RefreshTokensCollection = "refresh_tokens"
	ProductsCollection      = "products"
	OrdersCollection        = "orders"
	WishlistsCollection     = "wishlists"
)

// ConnectMongo dials the document store and checks the connection with a ping
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, nil
}

// EnsureMongoIndexes creates the unique and lookup indexes the repositories rely on.
// Creating an index that already exists is a no-op.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "google_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		RefreshTokensCollection: {
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ProductsCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "items.product_id", Value: 1}}},
		},
		WishlistsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for collection, models := range indexes {
		names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
		logger.Debug("Ensured mongo indexes", zap.String("collection", collection), zap.Strings("indexes", names))
	}

	return nil
}
