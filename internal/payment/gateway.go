// Package payment creates payment intents with an external processor.
package payment

import (
	"context"
	"errors"
	"fmt"

	"shop-api/internal/config"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("amount must be greater than zero")

// Gateway creates a processor-side payment intent and returns the secret the
// client uses to complete the payment
type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal) (clientSecret string, err error)
}

// ToMinorUnits converts a major-unit amount (rupees, dollars) into the smallest
// currency unit, rounding half away from zero
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Shift(2).Round(0)
	if !minor.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// NewGateway builds the gateway selected by cfg.Provider
func NewGateway(cfg config.PaymentConfig) (Gateway, error) {
	switch cfg.Provider {
	case config.PaymentProviderStripe:
		return NewStripeGateway(cfg.StripeSecretKey, cfg.Currency, nil), nil
	case config.PaymentProviderRazorpay:
		return NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.Currency), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}
