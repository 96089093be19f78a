package repository

import (
	"database/sql"

	"go.mongodb.org/mongo-driver/mongo"
)

// Store groups the repositories of one storage backend
type Store struct {
	Users         UserRepository
	RefreshTokens RefreshTokenRepository
	Products      ProductRepository
	Orders        OrderRepository
	Wishlists     WishlistRepository
}

// NewPostgresStore builds every repository on a Postgres connection pool
func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Users:         NewUserRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Products:      NewProductRepository(db),
		Orders:        NewOrderRepository(db),
		Wishlists:     NewWishlistRepository(db),
	}
}

// NewMongoStore builds every repository on a MongoDB database
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Users:         NewMongoUserRepository(db),
		RefreshTokens: NewMongoRefreshTokenRepository(db),
		Products:      NewMongoProductRepository(db),
		Orders:        NewMongoOrderRepository(db),
		Wishlists:     NewMongoWishlistRepository(db),
	}
}
