package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop-api/internal/domain"
	"shop-api/internal/payment"
	"shop-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyOrder           = errors.New("order must contain at least one item")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInvalidPrice         = errors.New("price must not be negative")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidOrderStatus   = errors.New("invalid order status")
	ErrPaymentSetupFailed   = errors.New("payment setup failed")
)

// ItemError reports which line item stopped an order from being placed.
// It unwraps to repository.ErrProductNotFound or repository.ErrInsufficientStock.
type ItemError struct {
	ProductID   string
	ProductName string
	Err         error
}

func (e *ItemError) Error() string {
	if errors.Is(e.Err, repository.ErrInsufficientStock) {
		name := e.ProductName
		if name == "" {
			name = e.ProductID
		}
		return fmt.Sprintf("insufficient stock for %s", name)
	}
	if errors.Is(e.Err, repository.ErrProductNotFound) {
		return fmt.Sprintf("product %s not found", e.ProductID)
	}
	return fmt.Sprintf("product %s: %v", e.ProductID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// OrderLine is a requested line item with the client supplied unit price
type OrderLine struct {
	ProductID string
	Quantity  int
	Price     float64
}

// PlaceOrderInput carries a checkout request
type PlaceOrderInput struct {
	Items           []OrderLine
	ShippingAddress domain.Address
	PaymentMethod   domain.PaymentMethod
	PaymentIntentID string
	// PaymentStatus is the raw status reported by the client; empty means pending
	PaymentStatus string
}

// PaymentSimulation is the result of a simulated charge
type PaymentSimulation struct {
	Success       bool                 `json:"success"`
	TransactionID string               `json:"transactionId"`
	Amount        float64              `json:"amount"`
	Status        domain.PaymentStatus `json:"status"`
	Timestamp     time.Time            `json:"timestamp"`
}

// OrderService runs the checkout workflow and the order lifecycle
type OrderService interface {
	// PlaceOrder decrements stock for every line and persists the order.
	// When a line fails, decrements already applied are restored and no order is written.
	PlaceOrder(ctx context.Context, caller Caller, input PlaceOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, caller Caller, orderID string) (*domain.OrderView, error)
	ListMyOrders(ctx context.Context, caller Caller) ([]*domain.OrderView, error)
	ListAllOrders(ctx context.Context, caller Caller) ([]*domain.OrderView, error)
	// RecordPayment marks the order paid and moves it to processing without consulting the processor
	RecordPayment(ctx context.Context, caller Caller, orderID string) (*domain.OrderView, error)
	SetOrderStatus(ctx context.Context, caller Caller, orderID string, status domain.OrderStatus) (*domain.OrderView, error)

	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (string, error)
	SimulatePayment(ctx context.Context, amount float64) *PaymentSimulation
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	gateway     payment.Gateway
	logger      *zap.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	gateway payment.Gateway,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		logger:      logger,
	}
}

// orderTotal sums price x quantity in decimal and rounds to cents
func orderTotal(lines []OrderLine) float64 {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total.Round(2).InexactFloat64()
}

func validateLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return ErrEmptyOrder
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if line.Price < 0 {
			return ErrInvalidPrice
		}
	}
	return nil
}

func (s *orderService) PlaceOrder(ctx context.Context, caller Caller, input PlaceOrderInput) (*domain.Order, error) {
	if err := validateLines(input.Items); err != nil {
		return nil, err
	}

	paymentStatus, ok := domain.ParsePaymentStatus(input.PaymentStatus)
	if !ok {
		return nil, ErrInvalidPaymentStatus
	}

	method := input.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodOnline
	}
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	reserved := make([]OrderLine, 0, len(input.Items))
	for _, line := range input.Items {
		if err := s.reserve(ctx, line); err != nil {
			s.release(ctx, reserved)
			return nil, err
		}
		reserved = append(reserved, line)
	}

	now := time.Now()
	record := domain.Payment{
		Status:        paymentStatus,
		TransactionID: input.PaymentIntentID,
	}
	if paymentStatus == domain.PaymentStatusCompleted {
		record.Timestamp = &now
	}

	items := make([]domain.OrderItem, len(input.Items))
	for i, line := range input.Items {
		items[i] = domain.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		}
	}

	order := &domain.Order{
		ID:              uuid.New().String(),
		UserID:          caller.ID,
		Items:           items,
		TotalAmount:     orderTotal(input.Items),
		ShippingAddress: input.ShippingAddress,
		Status:          domain.OrderStatusPending,
		Payment:         record,
		PaymentMethod:   method,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.release(ctx, reserved)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", caller.ID),
		zap.Int("items", order.TotalItems()),
		zap.Float64("total", order.TotalAmount),
	)

	return order, nil
}

// reserve checks and atomically decrements stock for one line
func (s *orderService) reserve(ctx context.Context, line OrderLine) error {
	product, err := s.productRepo.FindByID(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return &ItemError{ProductID: line.ProductID, Err: repository.ErrProductNotFound}
		}
		return fmt.Errorf("failed to load product %s: %w", line.ProductID, err)
	}

	if product.Stock < line.Quantity {
		return &ItemError{ProductID: product.ID, ProductName: product.Name, Err: repository.ErrInsufficientStock}
	}

	// The guarded decrement catches a concurrent order that drained stock after the read above
	if err := s.productRepo.DecrementStock(ctx, product.ID, line.Quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) || errors.Is(err, repository.ErrProductNotFound) {
			return &ItemError{ProductID: product.ID, ProductName: product.Name, Err: unwrapSentinel(err)}
		}
		return fmt.Errorf("failed to update stock for %s: %w", product.ID, err)
	}

	return nil
}

func unwrapSentinel(err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return repository.ErrProductNotFound
	}
	return repository.ErrInsufficientStock
}

// release restores stock taken by a failed order. Failures are logged; the caller already has an error to report.
func (s *orderService) release(ctx context.Context, lines []OrderLine) {
	ctx = context.WithoutCancel(ctx)
	for _, line := range lines {
		if err := s.productRepo.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.logger.Error("Failed to restore stock",
				zap.String("product_id", line.ProductID),
				zap.Int("quantity", line.Quantity),
				zap.Error(err),
			)
		}
	}
}

func (s *orderService) authorizedOrder(ctx context.Context, caller Caller, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	if !caller.canAccess(order) {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, caller Caller, orderID string) (*domain.OrderView, error) {
	order, err := s.authorizedOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, order)
}

func (s *orderService) ListMyOrders(ctx context.Context, caller Caller) ([]*domain.OrderView, error) {
	orders, err := s.orderRepo.ListByUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return s.views(ctx, orders)
}

func (s *orderService) ListAllOrders(ctx context.Context, caller Caller) ([]*domain.OrderView, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return s.views(ctx, orders)
}

// newTransactionID mimics a processor reference: TXN_ followed by nine random characters
func newTransactionID() string {
	return "TXN_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:9])
}

func (s *orderService) RecordPayment(ctx context.Context, caller Caller, orderID string) (*domain.OrderView, error) {
	order, err := s.authorizedOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order.Payment = domain.Payment{
		Status:        domain.PaymentStatusCompleted,
		TransactionID: newTransactionID(),
		Timestamp:     &now,
	}
	order.Status = domain.OrderStatusProcessing
	order.UpdatedAt = now

	if err := s.orderRepo.UpdatePayment(ctx, order.ID, order.Payment, order.Status); err != nil {
		return nil, fmt.Errorf("failed to record payment for %s: %w", order.ID, err)
	}

	s.logger.Info("Payment recorded",
		zap.String("order_id", order.ID),
		zap.String("transaction_id", order.Payment.TransactionID),
	)

	return s.view(ctx, order)
}

func (s *orderService) SetOrderStatus(ctx context.Context, caller Caller, orderID string, status domain.OrderStatus) (*domain.OrderView, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}
	order.Status = status
	order.UpdatedAt = time.Now()

	return s.view(ctx, order)
}

func (s *orderService) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (string, error) {
	secret, err := s.gateway.CreateIntent(ctx, amount)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidAmount) {
			return "", err
		}
		s.logger.Error("Failed to create payment intent",
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return "", ErrPaymentSetupFailed
	}
	return secret, nil
}

func (s *orderService) SimulatePayment(_ context.Context, amount float64) *PaymentSimulation {
	return &PaymentSimulation{
		Success:       true,
		TransactionID: newTransactionID(),
		Amount:        amount,
		Status:        domain.PaymentStatusCompleted,
		Timestamp:     time.Now().UTC(),
	}
}

func (s *orderService) view(ctx context.Context, order *domain.Order) (*domain.OrderView, error) {
	views, err := s.views(ctx, []*domain.Order{order})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// views resolves user and product references in two batched lookups.
// References to deleted records render as nil.
func (s *orderService) views(ctx context.Context, orders []*domain.Order) ([]*domain.OrderView, error) {
	views := make([]*domain.OrderView, 0, len(orders))
	if len(orders) == 0 {
		return views, nil
	}

	userIDs := make([]string, 0, len(orders))
	var productIDs []string
	for _, order := range orders {
		userIDs = append(userIDs, order.UserID)
		for _, item := range order.Items {
			productIDs = append(productIDs, item.ProductID)
		}
	}

	users, err := s.userRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve order users: %w", err)
	}
	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve order products: %w", err)
	}

	for _, order := range orders {
		view := &domain.OrderView{
			ID:              order.ID,
			UserID:          order.UserID,
			Items:           make([]domain.OrderItemView, len(order.Items)),
			TotalAmount:     order.TotalAmount,
			TotalItems:      order.TotalItems(),
			ShippingAddress: order.ShippingAddress,
			Status:          order.Status,
			Payment:         order.Payment,
			PaymentMethod:   order.PaymentMethod,
			CreatedAt:       order.CreatedAt,
			UpdatedAt:       order.UpdatedAt,
		}
		if user, ok := users[order.UserID]; ok {
			view.User = user.Summary()
		}
		for i, item := range order.Items {
			line := domain.OrderItemView{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			}
			if product, ok := products[item.ProductID]; ok {
				line.Product = product.Summary()
			}
			view.Items[i] = line
		}
		views = append(views, view)
	}

	return views, nil
}
