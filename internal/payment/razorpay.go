package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

// orderCreator is the subset of the Razorpay orders resource the gateway uses
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway creates Razorpay orders. The order id plays the role of the
// client secret: the checkout widget is opened with it.
type RazorpayGateway struct {
	orders   orderCreator
	currency string
}

func NewRazorpayGateway(keyID, keySecret, currency string) *RazorpayGateway {
	return &RazorpayGateway{
		orders:   razorpay.NewClient(keyID, keySecret).Order,
		currency: currency,
	}
}

func (g *RazorpayGateway) CreateIntent(ctx context.Context, amount decimal.Decimal) (string, error) {
	minor, err := ToMinorUnits(amount)
	if err != nil {
		return "", err
	}

	data := map[string]interface{}{
		"amount":   minor,
		"currency": g.currency,
		"receipt":  "receipt_" + uuid.New().String()[:8],
	}

	order, err := g.orders.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay: failed to create order: %w", err)
	}

	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay: order response has no id")
	}

	return id, nil
}
