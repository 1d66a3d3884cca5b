package handler

import (
	"github.com/gin-gonic/gin"

	"funding-core/internal/handler/request"
	"funding-core/internal/handler/response"
	"funding-core/internal/service"
	"funding-core/pkg/errno"
	"funding-core/pkg/validator"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
}

func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// CreateCheckout starts a donation checkout session
// @Summary Create a donation checkout session
// @Description Validates the donation request and returns the hosted checkout URL
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body request.CreateCheckoutRequest true "Checkout request"
// @Success 200 {object} response.Response
// @Router /api/v1/checkout [post]
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	var req request.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}

	url, err := h.checkout.CreateCheckout(c.Request.Context(), &service.CheckoutRequest{
		CampaignID:   req.CampaignID,
		AmountMinor:  req.AmountMinor,
		TipMinor:     req.TipMinor,
		RewardTierID: req.RewardTierID,
		DonorName:    req.DonorName,
		DonorEmail:   req.DonorEmail,
		Anonymous:    req.Anonymous,
		Message:      req.Message,
		SuccessURL:   req.SuccessURL,
		CancelURL:    req.CancelURL,
	}, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"checkout_url": url})
}
