package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"funding-core/internal/event"
	"funding-core/internal/model"
	"funding-core/internal/processor"
	"funding-core/pkg/errno"
	"funding-core/pkg/logger"
	"funding-core/pkg/monitor"
	"funding-core/pkg/ratelimit"
)

// CheckoutRequest is the donor-facing checkout input after HTTP binding.
type CheckoutRequest struct {
	CampaignID   uint64
	AmountMinor  int64
	TipMinor     int64
	RewardTierID *uint64
	DonorName    string
	DonorEmail   string
	Anonymous    bool
	Message      string
	SuccessURL   string
	CancelURL    string
}

// CheckoutConfig holds the fee and floor constants.
type CheckoutConfig struct {
	PlatformFeeBps   int64
	MinDonationMinor int64
}

// CheckoutService builds processor checkout sessions with the fee split and
// destination transfer for a campaign's organizer.
type CheckoutService struct {
	store     LedgerStore
	processor ProcessorClient
	limiter   ratelimit.Limiter
	cfg       CheckoutConfig
}

func NewCheckoutService(store LedgerStore, pc ProcessorClient, limiter ratelimit.Limiter, cfg CheckoutConfig) *CheckoutService {
	return &CheckoutService{
		store:     store,
		processor: pc,
		limiter:   limiter,
		cfg:       cfg,
	}
}

// CreateCheckout validates the request, applies the per-IP rate limit and
// creates the checkout session. On rate-limit exhaustion no processor call
// is made.
func (s *CheckoutService) CreateCheckout(ctx context.Context, req *CheckoutRequest, clientIP string) (string, error) {
	if req.AmountMinor < s.cfg.MinDonationMinor {
		monitor.Business.CheckoutAttemptsTotal.WithLabelValues("below_minimum").Inc()
		return "", errno.ErrAmountBelowMinimum
	}
	if req.TipMinor < 0 {
		return "", errno.ErrBind.WithMessage("tip must not be negative")
	}

	allowed, err := s.limiter.Allow(ctx, clientIP)
	if err != nil {
		return "", err
	}
	if !allowed {
		monitor.Business.CheckoutAttemptsTotal.WithLabelValues("rate_limited").Inc()
		return "", errno.ErrRateLimited
	}

	campaign, err := s.store.CampaignByID(ctx, req.CampaignID)
	if err != nil {
		return "", err
	}
	if campaign.Status != model.CampaignStatusActive {
		monitor.Business.CheckoutAttemptsTotal.WithLabelValues("campaign_inactive").Inc()
		return "", errno.ErrCampaignNotActive
	}

	organizer, err := s.store.OrganizerByID(ctx, campaign.OrganizerID)
	if err != nil {
		return "", err
	}
	if !organizer.OnboardingComplete {
		monitor.Business.CheckoutAttemptsTotal.WithLabelValues("not_onboarded").Inc()
		return "", errno.ErrOrganizerNotOnboarded
	}

	fee := ApplicationFee(req.AmountMinor, s.cfg.PlatformFeeBps, req.TipMinor)

	// The webhook reconstructs the donation entirely from this metadata;
	// it must never need a second campaign lookup at the processor.
	meta := map[string]string{
		event.MetaCampaignID:  strconv.FormatUint(campaign.ID, 10),
		event.MetaOrganizerID: strconv.FormatUint(organizer.ID, 10),
		event.MetaFeeAmount:   strconv.FormatInt(fee, 10),
		event.MetaTipAmount:   strconv.FormatInt(req.TipMinor, 10),
		event.MetaDonorName:   req.DonorName,
		event.MetaDonorEmail:  req.DonorEmail,
		event.MetaAnonymous:   strconv.FormatBool(req.Anonymous),
		event.MetaMessage:     req.Message,
	}
	if req.RewardTierID != nil {
		meta[event.MetaRewardTierID] = strconv.FormatUint(*req.RewardTierID, 10)
	}

	// The donor is charged amount + tip. The fee keeps the whole tip plus
	// the platform's cut of the donation, so the destination transfer stays
	// amount - floor(amount*bps/10000): the organizer never funds the tip.
	url, err := s.processor.CreateCheckoutSession(ctx, processor.CheckoutParams{
		CampaignTitle:      campaign.Title,
		AmountMinor:        req.AmountMinor + req.TipMinor,
		Currency:           campaign.Currency,
		ApplicationFee:     fee,
		DestinationAccount: organizer.ProcessorAccountRef,
		CustomerEmail:      req.DonorEmail,
		SuccessURL:         req.SuccessURL,
		CancelURL:          req.CancelURL,
		ClientReferenceID:  uuid.NewString(),
		Metadata:           meta,
	})
	if err != nil {
		monitor.Business.CheckoutAttemptsTotal.WithLabelValues("processor_error").Inc()
		logger.Error("checkout session creation failed",
			zap.Uint64("campaign_id", campaign.ID),
			zap.Error(err))
		return "", errno.ErrProcessor
	}

	monitor.Business.CheckoutAttemptsTotal.WithLabelValues("created").Inc()
	return url, nil
}
