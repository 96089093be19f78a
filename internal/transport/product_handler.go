package transport

import (
	"net/http"
	"strconv"
	"strings"

	"shop-api/internal/middleware"
	"shop-api/internal/repository"
	"shop-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateProductRequest represents a new catalog entry
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Image       string  `json:"image"`
	Brand       string  `json:"brand"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	NumReviews  int     `json:"numReviews" validate:"gte=0"`
	Offer       string  `json:"offer"`
}

// UpdateProductRequest lists the catalog fields an admin may change
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Category    *string  `json:"category" validate:"omitempty,min=1"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Image       *string  `json:"image"`
	Brand       *string  `json:"brand"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	NumReviews  *int     `json:"numReviews" validate:"omitempty,gte=0"`
	Offer       *string  `json:"offer"`
}

// sortFields maps the public sort names to repository fields
var sortFields = map[string]string{
	"name":      "name",
	"price":     "price",
	"createdAt": "created_at",
	"stock":     "stock",
}

// ProductHandler handles catalog requests
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the catalog routes; writes are admin only
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/categories", h.Categories)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin(h.logger))
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})
}

func parseProductQuery(r *http.Request) repository.ProductQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	query := repository.ProductQuery{
		Category: q.Get("category"),
		Search:   q.Get("q"),
		Page:     page,
		PageSize: limit,
		SortBy:   sortFields[q.Get("sort")],
	}
	switch strings.ToLower(q.Get("order")) {
	case "asc":
		query.SortOrder = repository.SortOrderAsc
	case "desc":
		query.SortOrder = repository.SortOrderDesc
	}
	return query
}

// ListProducts filters, sorts and paginates the catalog
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.productService.ListProducts(r.Context(), parseProductQuery(r))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Categories returns the distinct category names
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productService.Categories(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list categories")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// GetProduct returns one product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get product", zap.String("product_id", id))
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// CreateProduct adds a product to the catalog
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Image:       req.Image,
		Brand:       req.Brand,
		Rating:      req.Rating,
		NumReviews:  req.NumReviews,
		Offer:       req.Offer,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct changes catalog fields of a product
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateProductRequest
	if err := middleware.DecodeStrictAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), id, service.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Image:       req.Image,
		Brand:       req.Brand,
		Rating:      req.Rating,
		NumReviews:  req.NumReviews,
		Offer:       req.Offer,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update product", zap.String("product_id", id))
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product that no order references
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete product", zap.String("product_id", id))
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product removed"})
}
