package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shop-api/internal/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// sortableProductFields whitelists the columns a listing may be ordered by
var sortableProductFields = map[string]bool{
	"name":       true,
	"price":      true,
	"created_at": true,
	"stock":      true,
}

// ProductQuery filters, sorts and paginates a product listing
type ProductQuery struct {
	Category  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder SortOrder
}

func (q ProductQuery) normalized() ProductQuery {
	if !sortableProductFields[q.SortBy] {
		q.SortBy = "created_at"
	}
	if q.SortOrder != SortOrderAsc && q.SortOrder != SortOrderDesc {
		q.SortOrder = SortOrderDesc
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// FindByIDs returns the products that exist, keyed by id
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	List(ctx context.Context, query ProductQuery) ([]*domain.Product, int, error)
	Categories(ctx context.Context) ([]string, error)
	// DecrementStock removes qty units only if at least qty are available.
	// It returns ErrInsufficientStock when the guard fails.
	DecrementStock(ctx context.Context, id string, qty int) error
	IncrementStock(ctx context.Context, id string, qty int) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a Postgres backed ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, price, category, stock, image, brand,
	rating, num_reviews, offer, created_at, updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Category,
		&product.Stock,
		&product.Image,
		&product.Brand,
		&product.Rating,
		&product.NumReviews,
		&product.Offer,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	return product, err
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		product.Stock,
		product.Image,
		product.Brand,
		product.Rating,
		product.NumReviews,
		product.Offer,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	if !validID(product.ID) {
		return ErrProductNotFound
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, category = $5, stock = $6, image = $7,
		    brand = $8, rating = $9, num_reviews = $10, offer = $11, updated_at = $12
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		product.Stock,
		product.Image,
		product.Brand,
		product.Rating,
		product.NumReviews,
		product.Offer,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return requireAffected(result, ErrProductNotFound)
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrProductNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return requireAffected(result, ErrProductNotFound)
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if !validID(id) {
		return nil, ErrProductNotFound
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	products := make(map[string]*domain.Product)

	ids = validIDs(ids)
	if len(ids) == 0 {
		return products, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1::uuid[])`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[product.ID] = product
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// List retrieves products with optional category and text filtering, pagination, and sorting
func (r *productRepository) List(ctx context.Context, q ProductQuery) ([]*domain.Product, int, error) {
	q = q.normalized()

	var (
		conditions []string
		args       []any
	)

	if q.Category != "" {
		args = append(args, q.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM products " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	// sort column and direction come from the whitelist, never from raw input
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, q.SortBy, q.SortOrder, len(args)+1, len(args)+2)

	args = append(args, q.PageSize, pageOffset(q.Page, q.PageSize))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	if !validID(id) {
		return ErrProductNotFound
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`, id, qty)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product: %w", err)
		}
		if !exists {
			return ErrProductNotFound
		}
		return ErrInsufficientStock
	}

	return nil
}

func (r *productRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	if !validID(id) {
		return ErrProductNotFound
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`, id, qty)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}

	return requireAffected(result, ErrProductNotFound)
}
