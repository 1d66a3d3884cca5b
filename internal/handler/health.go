package handler

import (
	"github.com/gin-gonic/gin"

	"funding-core/internal/handler/response"
)

// HealthCheck godoc
// @Summary Check system health
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"service": "funding-server",
	})
}
