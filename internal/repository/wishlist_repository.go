package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shop-api/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrWishlistNotFound = errors.New("wishlist not found")
)

// WishlistRepository defines the interface for wishlist data access.
// A wishlist holds each product at most once, in the order it was added.
type WishlistRepository interface {
	FindByUser(ctx context.Context, userID string) (*domain.Wishlist, error)
	// AddProduct creates the wishlist on first use and adds productID if absent
	AddProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error)
	// RemoveProduct removes productID if present; ErrWishlistNotFound when the user has none
	RemoveProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error)
}

type wishlistRepository struct {
	db *sql.DB
}

// NewWishlistRepository creates a Postgres backed WishlistRepository
func NewWishlistRepository(db *sql.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) FindByUser(ctx context.Context, userID string) (*domain.Wishlist, error) {
	if !validID(userID) {
		return nil, ErrWishlistNotFound
	}

	wishlist := &domain.Wishlist{ProductIDs: []string{}}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM wishlists WHERE user_id = $1`, userID,
	).Scan(&wishlist.ID, &wishlist.UserID, &wishlist.CreatedAt, &wishlist.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWishlistNotFound
		}
		return nil, fmt.Errorf("failed to find wishlist: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id FROM wishlist_items WHERE wishlist_id = $1 ORDER BY id`, wishlist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		if err := rows.Scan(&productID); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		wishlist.ProductIDs = append(wishlist.ProductIDs, productID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist items: %w", err)
	}

	return wishlist, nil
}

func (r *wishlistRepository) AddProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	if !validID(userID) {
		return nil, ErrWishlistNotFound
	}
	if !validID(productID) {
		return nil, ErrProductNotFound
	}

	now := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var wishlistID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO wishlists (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING id
	`, uuid.New().String(), userID, now).Scan(&wishlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert wishlist: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wishlist_items (wishlist_id, product_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (wishlist_id, product_id) DO NOTHING
	`, wishlistID, productID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to add wishlist item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit wishlist: %w", err)
	}

	return r.FindByUser(ctx, userID)
}

func (r *wishlistRepository) RemoveProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	wishlist, err := r.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !validID(productID) || !wishlist.Contains(productID) {
		return wishlist, nil
	}

	_, err = r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE wishlist_id = $1 AND product_id = $2`, wishlist.ID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove wishlist item: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `UPDATE wishlists SET updated_at = $2 WHERE id = $1`, wishlist.ID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to touch wishlist: %w", err)
	}

	return r.FindByUser(ctx, userID)
}
