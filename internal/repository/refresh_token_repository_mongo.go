package repository

import (
	"context"
	"errors"
	"fmt"

	"shop-api/internal/database"
	"shop-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoRefreshTokenRepository struct {
	collection *mongo.Collection
}

// NewMongoRefreshTokenRepository creates a MongoDB backed RefreshTokenRepository
func NewMongoRefreshTokenRepository(db *mongo.Database) RefreshTokenRepository {
	return &mongoRefreshTokenRepository{collection: db.Collection(database.RefreshTokensCollection)}
}

func (r *mongoRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	if _, err := r.collection.InsertOne(ctx, token); err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *mongoRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var refreshToken domain.RefreshToken
	if err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&refreshToken); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	if refreshToken.Revoked {
		return nil, ErrRefreshTokenRevoked
	}
	return &refreshToken, nil
}

func (r *mongoRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"token": token}, bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

func (r *mongoRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return result.ModifiedCount, nil
}
