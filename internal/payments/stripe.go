package payments

import (
	"context"
	"math"
	"sync"

	"campuspool/internal/domain/fault"
	"campuspool/internal/ports"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// StripeGateway implements escrow on manual-capture PaymentIntents: Hold
// authorizes, Release captures the non-refunded portion, and Refund either
// cancels the intent (full refund) or records the fraction to withhold at
// capture time.
type StripeGateway struct {
	currency string

	mu        sync.Mutex
	refunded  map[string]float64 // intent ID -> refunded fraction
}

var _ ports.PaymentGateway = (*StripeGateway)(nil)

// NewStripeGateway initializes the stripe client with the given API key.
func NewStripeGateway(apiKey, currency string) *StripeGateway {
	stripe.Key = apiKey
	if currency == "" {
		currency = "usd"
	}
	return &StripeGateway{
		currency: currency,
		refunded: make(map[string]float64),
	}
}

// Hold creates a PaymentIntent with capture_method=manual to hold funds.
// It returns the PaymentIntent ID as the escrow token.
func (g *StripeGateway) Hold(ctx context.Context, amount float64) (string, error) {
	if amount <= 0 {
		return "", fault.New(fault.KindPayment, "hold amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(amount)),
		Currency: stripe.String(g.currency),
	}
	params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fault.Wrap(fault.KindPayment, "create payment intent", err)
	}
	return pi.ID, nil
}

// Release captures the held intent for its non-refunded portion. Stripe
// automatically returns the uncaptured remainder to the passenger.
func (g *StripeGateway) Release(ctx context.Context, token string) error {
	pi, err := paymentintent.Get(token, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return fault.Wrap(fault.KindPayment, "fetch payment intent", err)
	}
	if pi.Status == stripe.PaymentIntentStatusSucceeded || pi.Status == stripe.PaymentIntentStatusCanceled {
		return nil // already settled; retry is safe
	}

	g.mu.Lock()
	fraction := g.refunded[token]
	g.mu.Unlock()

	params := &stripe.PaymentIntentCaptureParams{
		Params: stripe.Params{Context: ctx},
	}
	if fraction > 0 {
		capture := pi.Amount - int64(math.Round(float64(pi.Amount)*fraction))
		params.AmountToCapture = stripe.Int64(capture)
	}

	if _, err := paymentintent.Capture(token, params); err != nil {
		return fault.Wrap(fault.KindPayment, "capture payment intent", err)
	}
	return nil
}

// Refund cancels the intent for a full refund, or records the fraction so the
// later Release captures only the driver's share.
func (g *StripeGateway) Refund(ctx context.Context, token string, fraction float64) error {
	if fraction <= 0 || fraction > 1 {
		return fault.New(fault.KindPayment, "refund fraction must be in (0, 1]")
	}

	if fraction >= 1 {
		_, err := paymentintent.Cancel(token, &stripe.PaymentIntentCancelParams{
			Params: stripe.Params{Context: ctx},
		})
		if err != nil {
			if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState {
				return nil // already cancelled; retry is safe
			}
			return fault.Wrap(fault.KindPayment, "cancel payment intent", err)
		}
		return nil
	}

	g.mu.Lock()
	g.refunded[token] = fraction
	g.mu.Unlock()
	return nil
}

// toMinorUnits converts a decimal amount to the currency's minor units.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
