package transport

import (
	"net/http"

	"shop-api/internal/domain"
	"shop-api/internal/middleware"
	"shop-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderItemRequest is one requested line. Clients may send the product id as "product" or "_id".
type OrderItemRequest struct {
	Product  string  `json:"product" validate:"required_without=LegacyID"`
	LegacyID string  `json:"_id"`
	Quantity int     `json:"quantity" validate:"gte=1"`
	Price    float64 `json:"price" validate:"gte=0"`
}

func (item OrderItemRequest) productID() string {
	if item.Product != "" {
		return item.Product
	}
	return item.LegacyID
}

// PlaceOrderRequest represents a checkout
type PlaceOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress domain.Address     `json:"shippingAddress"`
	PaymentIntentID string             `json:"paymentIntentId"`
	PaymentStatus   string             `json:"paymentStatus" validate:"omitempty,payment_status"`
	PaymentMethod   string             `json:"paymentMethod" validate:"omitempty,payment_method"`
}

// UpdateStatusRequest sets an order's fulfilment stage
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
}

// PaymentAmountRequest carries the amount to charge
type PaymentAmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PaymentIntentResponse is handed to the client to complete payment with the processor
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// OrderHandler handles checkout, order lifecycle and payment requests
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers the order and payment routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/api/simulate-payment", h.SimulatePayment)

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/create-payment-intent", h.CreatePaymentIntent)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.PlaceOrder)
			r.Get("/my-orders", h.ListMyOrders)
			r.Get("/{id}", h.GetOrder)
			r.Post("/{id}/payment", h.RecordPayment)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(h.logger))
				r.Get("/", h.ListAllOrders)
				r.Put("/{id}/status", h.SetOrderStatus)
			})
		})
	})
}

// PlaceOrder reserves stock for every line and creates the order
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	lines := make([]service.OrderLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = service.OrderLine{
			ProductID: item.productID(),
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	order, err := h.orderService.PlaceOrder(r.Context(), caller, service.PlaceOrderInput{
		Items:           lines,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		PaymentIntentID: req.PaymentIntentID,
		PaymentStatus:   req.PaymentStatus,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to place order", zap.String("user_id", caller.ID))
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// ListMyOrders returns the caller's orders, newest first
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.orderService.ListMyOrders(r.Context(), caller)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list orders", zap.String("user_id", caller.ID))
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// ListAllOrders returns every order
func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.orderService.ListAllOrders(r.Context(), caller)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order to its owner or an admin
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	order, err := h.orderService.GetOrder(r.Context(), caller, id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get order", zap.String("order_id", id))
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// RecordPayment marks the order paid
func (h *OrderHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	order, err := h.orderService.RecordPayment(r.Context(), caller, id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to record payment", zap.String("order_id", id))
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// SetOrderStatus overwrites the order's fulfilment stage
func (h *OrderHandler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	order, err := h.orderService.SetOrderStatus(r.Context(), caller, id, domain.OrderStatus(req.Status))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update order status", zap.String("order_id", id))
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", id),
		zap.String("status", req.Status),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// CreatePaymentIntent asks the payment processor for a client secret
func (h *OrderHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req PaymentAmountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	secret, err := h.orderService.CreatePaymentIntent(r.Context(), req.Amount)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "payment setup failed")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, PaymentIntentResponse{ClientSecret: secret})
}

// SimulatePayment returns a successful charge without contacting a processor
func (h *OrderHandler) SimulatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentAmountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	amount := req.Amount.InexactFloat64()
	middleware.RespondWithJSON(w, http.StatusOK, h.orderService.SimulatePayment(r.Context(), amount))
}
