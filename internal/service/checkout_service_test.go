package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"

	"funding-core/internal/model"
	"funding-core/internal/processor"
	"funding-core/pkg/errno"
)

// fakeProcessor captures the checkout parameters it was called with.
type fakeProcessor struct {
	calls  []processor.CheckoutParams
	url    string
	err    error
	status *processor.AccountStatus
}

func (f *fakeProcessor) CreateCheckoutSession(ctx context.Context, p processor.CheckoutParams) (string, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func (f *fakeProcessor) Account(ctx context.Context, accountRef string) (*processor.AccountStatus, error) {
	return f.status, nil
}

type fakeLimiter struct {
	allowed bool
	keys    []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allowed, nil
}

func checkoutFixture(t *testing.T) (*fakeLedgerStore, *fakeProcessor, *fakeLimiter, *CheckoutService) {
	t.Helper()
	store := newFakeLedgerStore()
	seedCampaign(store)
	proc := &fakeProcessor{url: "https://checkout.example.com/cs_1"}
	limiter := &fakeLimiter{allowed: true}
	svc := NewCheckoutService(store, proc, limiter, CheckoutConfig{
		PlatformFeeBps:   800,
		MinDonationMinor: 100,
	})
	return store, proc, limiter, svc
}

func validRequest() *CheckoutRequest {
	return &CheckoutRequest{
		CampaignID:  10,
		AmountMinor: 2500,
		TipMinor:    300,
		DonorName:   "Ada",
		DonorEmail:  "ada@example.com",
		SuccessURL:  "https://example.com/thanks",
		CancelURL:   "https://example.com/cancel",
	}
}

func TestCreateCheckoutBuildsSession(t *testing.T) {
	_, proc, _, svc := checkoutFixture(t)

	url, err := svc.CreateCheckout(context.Background(), validRequest(), "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/cs_1", url)

	require.Len(t, proc.calls, 1)
	p := proc.calls[0]
	assert.Equal(t, int64(2800), p.AmountMinor)   // donor is charged donation + tip
	assert.Equal(t, int64(500), p.ApplicationFee) // 2500*800/10000 + 300 tip
	assert.Equal(t, "acct_123", p.DestinationAccount)
	assert.Equal(t, "usd", p.Currency)
	assert.NotEmpty(t, p.ClientReferenceID)
	assert.Equal(t, "10", p.Metadata["campaign_id"])
	assert.Equal(t, "500", p.Metadata["application_fee_amount"])
	assert.Equal(t, "300", p.Metadata["tip_amount"])
	assert.Equal(t, "ada@example.com", p.Metadata["donor_email"])
}

func TestCreateCheckoutFeeIsDeterministic(t *testing.T) {
	_, proc, _, svc := checkoutFixture(t)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateCheckout(context.Background(), validRequest(), "203.0.113.7")
		require.NoError(t, err)
	}
	for _, p := range proc.calls {
		assert.Equal(t, int64(500), p.ApplicationFee)
	}
}

func TestCreateCheckoutBelowMinimum(t *testing.T) {
	_, proc, _, svc := checkoutFixture(t)

	req := validRequest()
	req.AmountMinor = 99
	_, err := svc.CreateCheckout(context.Background(), req, "203.0.113.7")
	assert.ErrorIs(t, err, errno.ErrAmountBelowMinimum)
	assert.Empty(t, proc.calls)

	// Exactly the minimum is accepted.
	req.AmountMinor = 100
	_, err = svc.CreateCheckout(context.Background(), req, "203.0.113.7")
	assert.NoError(t, err)
}

func TestCreateCheckoutNegativeTip(t *testing.T) {
	_, proc, _, svc := checkoutFixture(t)

	req := validRequest()
	req.TipMinor = -1
	_, err := svc.CreateCheckout(context.Background(), req, "203.0.113.7")
	require.Error(t, err)
	assert.Empty(t, proc.calls)
}

func TestCreateCheckoutRateLimited(t *testing.T) {
	_, proc, limiter, svc := checkoutFixture(t)
	limiter.allowed = false

	_, err := svc.CreateCheckout(context.Background(), validRequest(), "203.0.113.7")
	assert.ErrorIs(t, err, errno.ErrRateLimited)
	// No processor call burns through the window.
	assert.Empty(t, proc.calls)
	assert.Equal(t, []string{"203.0.113.7"}, limiter.keys)
}

func TestCreateCheckoutInactiveCampaign(t *testing.T) {
	store, proc, _, svc := checkoutFixture(t)
	store.campaigns[10].Status = model.CampaignStatusClosed

	_, err := svc.CreateCheckout(context.Background(), validRequest(), "203.0.113.7")
	assert.ErrorIs(t, err, errno.ErrCampaignNotActive)
	assert.Empty(t, proc.calls)
}

func TestCreateCheckoutOrganizerNotOnboarded(t *testing.T) {
	store, proc, _, svc := checkoutFixture(t)
	store.organizers[1].OnboardingComplete = false

	_, err := svc.CreateCheckout(context.Background(), validRequest(), "203.0.113.7")
	assert.ErrorIs(t, err, errno.ErrOrganizerNotOnboarded)
	assert.Empty(t, proc.calls)
}

func TestCreateCheckoutProcessorError(t *testing.T) {
	_, proc, _, svc := checkoutFixture(t)
	proc.err = assert.AnError

	_, err := svc.CreateCheckout(context.Background(), validRequest(), "203.0.113.7")
	assert.ErrorIs(t, err, errno.ErrProcessor)
}

func TestTipDoesNotReduceCampaignTotal(t *testing.T) {
	store, proc, _, svc := checkoutFixture(t)

	// 2500 donation with a 300 tip.
	_, err := svc.CreateCheckout(context.Background(), validRequest(), "203.0.113.7")
	require.NoError(t, err)
	p := proc.calls[0]

	// Replay the resulting session through the ledger: the tip rides on the
	// gross and the fee, never on the organizer's share.
	ledger := NewLedgerService(store, &fakeNotifier{}, 800)
	sess := &stripe.CheckoutSession{
		ID:            "cs_tip",
		AmountTotal:   p.AmountMinor,
		Currency:      stripe.CurrencyUSD,
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_tip"},
		Metadata:      p.Metadata,
	}
	require.NoError(t, ledger.HandleCheckoutCompleted(context.Background(), sess))

	d, err := store.DonationByPaymentRef(context.Background(), "pi_tip")
	require.NoError(t, err)
	assert.Equal(t, int64(2800), d.GrossAmount)
	assert.Equal(t, int64(500), d.PlatformFee)
	assert.Equal(t, int64(2300), d.NetAmount)
	// Identical to what a tipless 2500 donation raises.
	assert.Equal(t, int64(2300), store.campaigns[10].RaisedAmount)
}

func TestCreateCheckoutRewardTierInMetadata(t *testing.T) {
	_, proc, _, svc := checkoutFixture(t)

	tier := uint64(7)
	req := validRequest()
	req.RewardTierID = &tier
	_, err := svc.CreateCheckout(context.Background(), req, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, "7", proc.calls[0].Metadata["reward_tier_id"])
}
