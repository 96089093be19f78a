package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-api/internal/database"
	"shop-api/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoWishlistRepository struct {
	collection *mongo.Collection
}

// NewMongoWishlistRepository creates a MongoDB backed WishlistRepository
func NewMongoWishlistRepository(db *mongo.Database) WishlistRepository {
	return &mongoWishlistRepository{collection: db.Collection(database.WishlistsCollection)}
}

func (r *mongoWishlistRepository) FindByUser(ctx context.Context, userID string) (*domain.Wishlist, error) {
	var wishlist domain.Wishlist
	if err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&wishlist); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWishlistNotFound
		}
		return nil, fmt.Errorf("failed to find wishlist: %w", err)
	}
	return normalizeWishlist(&wishlist), nil
}

func (r *mongoWishlistRepository) AddProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	now := time.Now()
	update := bson.M{
		"$addToSet":    bson.M{"product_ids": productID},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"_id": uuid.New().String(), "created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var wishlist domain.Wishlist
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&wishlist)
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent first add created the document; the retry matches it
		err = r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&wishlist)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add wishlist item: %w", err)
	}

	return normalizeWishlist(&wishlist), nil
}

func (r *mongoWishlistRepository) RemoveProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	update := bson.M{
		"$pull": bson.M{"product_ids": productID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var wishlist domain.Wishlist
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&wishlist); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWishlistNotFound
		}
		return nil, fmt.Errorf("failed to remove wishlist item: %w", err)
	}

	return normalizeWishlist(&wishlist), nil
}

func normalizeWishlist(w *domain.Wishlist) *domain.Wishlist {
	if w.ProductIDs == nil {
		w.ProductIDs = []string{}
	}
	return w
}
