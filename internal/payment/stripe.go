package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway creates card PaymentIntents
type StripeGateway struct {
	api      *client.API
	currency string
}

// NewStripeGateway creates a gateway for the given secret key.
// backends may be nil to use Stripe's default endpoints.
func NewStripeGateway(secretKey, currency string, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{
		api:      client.New(secretKey, backends),
		currency: currency,
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount decimal.Decimal) (string, error) {
	minor, err := ToMinorUnits(amount)
	if err != nil {
		return "", err
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(minor),
		Currency:           stripe.String(g.currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	return intent.ClientSecret, nil
}
