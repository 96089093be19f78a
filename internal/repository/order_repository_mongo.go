package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-api/internal/database"
	"shop-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a MongoDB backed OrderRepository.
// Line items are embedded in the order document.
func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{collection: db.Collection(database.OrdersCollection)}
}

func (r *mongoOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *mongoOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	return &order, nil
}

func (r *mongoOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.list(ctx, bson.M{"user_id": userID})
}

func (r *mongoOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, bson.M{})
}

func (r *mongoOrderRepository) list(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := []*domain.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (r *mongoOrderRepository) UpdatePayment(ctx context.Context, id string, payment domain.Payment, status domain.OrderStatus) error {
	update := bson.M{"$set": bson.M{
		"payment":    payment,
		"status":     status,
		"updated_at": time.Now(),
	}}
	return r.update(ctx, id, update, "payment")
}

func (r *mongoOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}}
	return r.update(ctx, id, update, "status")
}

func (r *mongoOrderRepository) update(ctx context.Context, id string, update bson.M, what string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", what, err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *mongoOrderRepository) ExistsForProduct(ctx context.Context, productID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"items.product_id": productID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check order items: %w", err)
	}
	return count > 0, nil
}
