package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"shop-api/internal/domain"
	"shop-api/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrProductInUse = errors.New("product is referenced by existing orders")
)

// ProductInput carries the catalog fields of a new product
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
	Image       string
	Brand       string
	Rating      float64
	NumReviews  int
	Offer       string
}

// ProductUpdate carries the catalog fields an admin may change. Nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Stock       *int
	Image       *string
	Brand       *string
	Rating      *float64
	NumReviews  *int
	Offer       *string
}

// ProductPage is one page of a catalog listing
type ProductPage struct {
	Products   []*domain.Product `json:"products"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

// ProductService defines the catalog operations
type ProductService interface {
	ListProducts(ctx context.Context, query repository.ProductQuery) (*ProductPage, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*domain.Product, error)
	// DeleteProduct refuses to remove a product that order lines still reference
	DeleteProduct(ctx context.Context, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
}

func NewProductService(productRepo repository.ProductRepository, orderRepo repository.OrderRepository) ProductService {
	return &productService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

func (s *productService) ListProducts(ctx context.Context, query repository.ProductQuery) (*ProductPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = 20
	}

	products, total, err := s.productRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}

	return &ProductPage{
		Products:   products,
		Total:      total,
		Page:       query.Page,
		TotalPages: int(math.Ceil(float64(total) / float64(query.PageSize))),
	}, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return product, nil
}

func (s *productService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.productRepo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Category:    strings.TrimSpace(input.Category),
		Stock:       input.Stock,
		Image:       input.Image,
		Brand:       input.Brand,
		Rating:      input.Rating,
		NumReviews:  input.NumReviews,
		Offer:       input.Offer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}

	if update.Name != nil {
		product.Name = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		product.Description = *update.Description
	}
	if update.Price != nil {
		product.Price = *update.Price
	}
	if update.Category != nil {
		product.Category = strings.TrimSpace(*update.Category)
	}
	if update.Stock != nil {
		product.Stock = *update.Stock
	}
	if update.Image != nil {
		product.Image = *update.Image
	}
	if update.Brand != nil {
		product.Brand = *update.Brand
	}
	if update.Rating != nil {
		product.Rating = *update.Rating
	}
	if update.NumReviews != nil {
		product.NumReviews = *update.NumReviews
	}
	if update.Offer != nil {
		product.Offer = *update.Offer
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return fmt.Errorf("failed to get product %s: %w", id, err)
	}

	inUse, err := s.orderRepo.ExistsForProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check product usage: %w", err)
	}
	if inUse {
		return ErrProductInUse
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}
