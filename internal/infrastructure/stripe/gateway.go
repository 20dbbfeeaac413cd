package stripe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/couple-registry/internal/config"
	"github.com/couple-registry/internal/domain"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Gateway mediates charges through Stripe Checkout. Its only contract with
// the core: hand back a session handle, and later report completion with the
// couple id and purpose carried through metadata.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, coupleID, purpose, productName string, amountCents int64) (*domain.CheckoutSession, error)
	ParseCompletion(payload []byte, signature string) (*domain.ChargeCompletion, error)
}

type gateway struct {
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewGateway(cfg *config.Config) Gateway {
	stripe.Key = cfg.StripeSecretKey
	return &gateway{
		webhookSecret: cfg.StripeWebhookSecret,
		successURL:    cfg.StripeSuccessURL,
		cancelURL:     cfg.StripeCancelURL,
	}
}

func (g *gateway) CreateCheckoutSession(ctx context.Context, coupleID, purpose, productName string, amountCents int64) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("couple_id", coupleID)
	params.AddMetadata("purpose", purpose)

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", domain.ErrUnavailable)
	}
	return &domain.CheckoutSession{SessionID: s.ID, RedirectURL: s.URL}, nil
}

// ParseCompletion verifies the webhook signature and extracts the completion
// metadata from a checkout.session.completed event. Events of any other type
// return ErrNotFound so the handler can acknowledge and skip them.
func (g *gateway) ParseCompletion(payload []byte, signature string) (*domain.ChargeCompletion, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", domain.ErrUnauthorized)
	}
	if event.Type != "checkout.session.completed" {
		return nil, fmt.Errorf("event %s not handled: %w", event.Type, domain.ErrNotFound)
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	completion := &domain.ChargeCompletion{
		SessionID: cs.ID,
		CoupleID:  cs.Metadata["couple_id"],
		Purpose:   cs.Metadata["purpose"],
	}
	if completion.CoupleID == "" || completion.Purpose == "" {
		return nil, fmt.Errorf("completion missing metadata: %w", domain.ErrBadRequest)
	}
	return completion, nil
}
