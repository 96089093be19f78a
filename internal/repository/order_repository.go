package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shop-api/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// ListByUser returns the user's orders, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	// List returns every order, newest first
	List(ctx context.Context) ([]*domain.Order, error)
	// UpdatePayment replaces the payment record and sets the order status in one write
	UpdatePayment(ctx context.Context, id string, payment domain.Payment, status domain.OrderStatus) error
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	// ExistsForProduct reports whether any order line references the product
	ExistsForProduct(ctx context.Context, productID string) (bool, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a Postgres backed OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, total_amount, shipping_address, status, payment_status,
	payment_transaction_id, payment_timestamp, payment_method, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order            domain.Order
		shippingAddress  []byte
		paymentTimestamp sql.NullTime
	)

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.TotalAmount,
		&shippingAddress,
		&order.Status,
		&order.Payment.Status,
		&order.Payment.TransactionID,
		&paymentTimestamp,
		&order.PaymentMethod,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(shippingAddress) > 0 {
		if err := json.Unmarshal(shippingAddress, &order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("failed to decode shipping address: %w", err)
		}
	}
	if paymentTimestamp.Valid {
		ts := paymentTimestamp.Time
		order.Payment.Timestamp = &ts
	}
	order.Items = []domain.OrderItem{}

	return &order, nil
}

// Create writes the order and its line items in a single transaction
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	shippingAddress, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to encode shipping address: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		order.ID,
		order.UserID,
		order.TotalAmount,
		shippingAddress,
		order.Status,
		order.Payment.Status,
		order.Payment.TransactionID,
		order.Payment.Timestamp,
		order.PaymentMethod,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, item := range order.Items {
		if _, err := tx.ExecContext(ctx, itemQuery, order.ID, i, item.ProductID, item.Quantity, item.Price); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	if !validID(id) {
		return nil, ErrOrderNotFound
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	if !validID(userID) {
		return []*domain.Order{}, nil
	}
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, ``)
}

func (r *orderRepository) list(ctx context.Context, where string, args ...any) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ` + where + ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachItems loads the line items of all given orders with one query
func (r *orderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
		ids = append(ids, order.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			item    domain.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func (r *orderRepository) UpdatePayment(ctx context.Context, id string, payment domain.Payment, status domain.OrderStatus) error {
	if !validID(id) {
		return ErrOrderNotFound
	}

	query := `
		UPDATE orders
		SET payment_status = $2, payment_transaction_id = $3, payment_timestamp = $4, status = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		id, payment.Status, payment.TransactionID, payment.Timestamp, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update order payment: %w", err)
	}

	return requireAffected(result, ErrOrderNotFound)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if !validID(id) {
		return ErrOrderNotFound
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return requireAffected(result, ErrOrderNotFound)
}

func (r *orderRepository) ExistsForProduct(ctx context.Context, productID string) (bool, error) {
	if !validID(productID) {
		return false, nil
	}

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM order_items WHERE product_id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check order items: %w", err)
	}

	return exists, nil
}
