package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"funding-core/internal/handler"
	"funding-core/pkg/config"
	"funding-core/pkg/monitor"
)

// NewRouter assembles the HTTP surface: the donor-facing JSON API, the
// processor webhook endpoint, and the operational endpoints.
func NewRouter(checkoutHandler *handler.CheckoutHandler, webhookHandler *handler.WebhookHandler) *gin.Engine {
	if config.Global.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(monitor.PrometheusMiddleware())

	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Webhook deliveries bypass the JSON envelope: status codes are the
	// contract with the processor.
	r.POST("/webhooks/processor", webhookHandler.Handle)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/checkout", checkoutHandler.CreateCheckout)
	}

	return r
}
