package service

import (
	"context"
	"errors"
	"fmt"

	"shop-api/internal/domain"
	"shop-api/internal/repository"
)

// WishlistView is a wishlist with its product references resolved.
// Products deleted from the catalog are skipped.
type WishlistView struct {
	ID       string            `json:"id,omitempty"`
	UserID   string            `json:"userId,omitempty"`
	Products []*domain.Product `json:"products"`
}

// WishlistService defines the saved products operations. None of them fail because a wishlist is missing.
type WishlistService interface {
	GetWishlist(ctx context.Context, userID string) (*WishlistView, error)
	AddToWishlist(ctx context.Context, userID, productID string) (*domain.Wishlist, error)
	RemoveFromWishlist(ctx context.Context, userID, productID string) (*domain.Wishlist, error)
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

func emptyWishlist(userID string) *domain.Wishlist {
	return &domain.Wishlist{UserID: userID, ProductIDs: []string{}}
}

func (s *wishlistService) GetWishlist(ctx context.Context, userID string) (*WishlistView, error) {
	wishlist, err := s.wishlistRepo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrWishlistNotFound) {
			return &WishlistView{UserID: userID, Products: []*domain.Product{}}, nil
		}
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}

	products, err := s.productRepo.FindByIDs(ctx, wishlist.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wishlist products: %w", err)
	}

	view := &WishlistView{
		ID:       wishlist.ID,
		UserID:   wishlist.UserID,
		Products: make([]*domain.Product, 0, len(wishlist.ProductIDs)),
	}
	for _, id := range wishlist.ProductIDs {
		if product, ok := products[id]; ok {
			view.Products = append(view.Products, product)
		}
	}
	return view, nil
}

func (s *wishlistService) AddToWishlist(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", productID, err)
	}

	wishlist, err := s.wishlistRepo.AddProduct(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return wishlist, nil
}

func (s *wishlistService) RemoveFromWishlist(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	wishlist, err := s.wishlistRepo.RemoveProduct(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrWishlistNotFound) {
			return emptyWishlist(userID), nil
		}
		return nil, fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return wishlist, nil
}
