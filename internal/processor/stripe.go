package processor

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// CheckoutParams carries everything needed to build one destination-charge
// checkout session. AmountMinor is the full charge to the donor (donation
// plus tip); ApplicationFee is the platform's retained portion including the
// tip; the remainder transfers to DestinationAccount.
type CheckoutParams struct {
	CampaignTitle      string
	AmountMinor        int64
	Currency           string
	ApplicationFee     int64
	DestinationAccount string
	CustomerEmail      string
	SuccessURL         string
	CancelURL          string
	ClientReferenceID  string
	Metadata           map[string]string
}

// AccountStatus is the subset of connected-account capabilities the ledger
// cares about.
type AccountStatus struct {
	AccountRef       string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

// CanReceiveTransfers reports whether the account may be used as a
// destination for new charges.
func (a AccountStatus) CanReceiveTransfers() bool {
	return a.ChargesEnabled && a.PayoutsEnabled
}

// StripeClient wraps the stripe-go API client.
type StripeClient struct {
	api *client.API
}

func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

// CreateCheckoutSession creates a single-line-item session with a
// destination transfer and returns the hosted checkout URL.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(p.ClientReferenceID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.CampaignTitle),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(p.ApplicationFee),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(p.DestinationAccount),
			},
		},
	}
	params.Context = ctx
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// Account fetches the connected account's capability flags.
func (c *StripeClient) Account(ctx context.Context, accountRef string) (*AccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := c.api.Accounts.GetByID(accountRef, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve account %s: %w", accountRef, err)
	}
	return &AccountStatus{
		AccountRef:       acct.ID,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}, nil
}
