package domain

import (
	"time"
)

// OrderStatus is the fulfilment stage of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of an order's payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"

	// processorSucceeded is the status payment processors report for a settled intent
	processorSucceeded = "succeeded"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// ParsePaymentStatus normalises a client supplied payment status.
// An empty value means pending and the processor's "succeeded" maps to completed.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch raw {
	case "":
		return PaymentStatusPending, true
	case processorSucceeded:
		return PaymentStatusCompleted, true
	}
	s := PaymentStatus(raw)
	return s, s.Valid()
}

// PaymentMethod is how the customer pays for an order
type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "Online"
	PaymentMethodCOD    PaymentMethod = "COD"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodOnline || m == PaymentMethodCOD
}

// Payment is the payment record embedded in an order
type Payment struct {
	Status        PaymentStatus `json:"status" bson:"status"`
	TransactionID string        `json:"transactionId,omitempty" bson:"transaction_id,omitempty"`
	Timestamp     *time.Time    `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
}

// OrderItem is a line item: product reference, quantity and the unit price captured at purchase
type OrderItem struct {
	ProductID string  `json:"product" bson:"product_id"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

// Order represents a placed order
type Order struct {
	ID              string        `json:"id" bson:"_id"`
	UserID          string        `json:"user" bson:"user_id"`
	Items           []OrderItem   `json:"items" bson:"items"`
	TotalAmount     float64       `json:"totalAmount" bson:"total_amount"`
	ShippingAddress Address       `json:"shippingAddress" bson:"shipping_address"`
	Status          OrderStatus   `json:"status" bson:"status"`
	Payment         Payment       `json:"payment" bson:"payment"`
	PaymentMethod   PaymentMethod `json:"paymentMethod" bson:"payment_method"`
	CreatedAt       time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time     `json:"updatedAt" bson:"updated_at"`
}

// TotalItems is the number of units across all line items
func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// IsOwnedBy reports whether userID placed the order
func (o *Order) IsOwnedBy(userID string) bool {
	return o.UserID == userID
}

// OrderItemView is a line item with its product reference resolved
type OrderItemView struct {
	Product   *ProductSummary `json:"product"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     float64         `json:"price"`
}

// OrderView is the denormalized representation of an order used for display.
// User and Product are nil when the referenced record no longer exists.
type OrderView struct {
	ID              string          `json:"id"`
	User            *UserSummary    `json:"user"`
	UserID          string          `json:"userId"`
	Items           []OrderItemView `json:"items"`
	TotalAmount     float64         `json:"totalAmount"`
	TotalItems      int             `json:"totalItems"`
	ShippingAddress Address         `json:"shippingAddress"`
	Status          OrderStatus     `json:"status"`
	Payment         Payment         `json:"payment"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
