package payments

import (
	"context"
	"os"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// StripeClient wraps stripe-go for the cost-share hold flow: when an owner
// accepts a join request we hold the rider's estimated fuel share, capture it
// when the ride completes, and release it if the pool is cancelled.
type StripeClient struct{}

// NewStripeClient initializes the stripe client with the STRIPE_API_KEY env var.
func NewStripeClient() *StripeClient {
	stripe.Key = os.Getenv("STRIPE_API_KEY")
	return &StripeClient{}
}

// Enabled reports whether a stripe key is configured. Without one the join
// flow simply skips the hold.
func (s *StripeClient) Enabled() bool {
	return stripe.Key != ""
}

// HoldShare creates a PaymentIntent with capture_method=manual to hold the
// rider's cost share. It returns the PaymentIntent ID on success.
func (s *StripeClient) HoldShare(ctx context.Context, amountCents int64, currency, customerID string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

// CaptureShare finalizes a previously-held cost share.
func (s *StripeClient) CaptureShare(ctx context.Context, paymentIntentID string) error {
	_, err := paymentintent.Capture(paymentIntentID, nil)
	return err
}

// ReleaseShare releases the hold without charging the rider.
func (s *StripeClient) ReleaseShare(ctx context.Context, paymentIntentID string) error {
	_, err := paymentintent.Cancel(paymentIntentID, nil)
	return err
}
