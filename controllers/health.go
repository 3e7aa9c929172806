package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iiskills/backend-access/helpers"
)

// HealthCheck is a health check endpoint for kubernetes
func (h *Handler) HealthCheck(c *gin.Context) {
	// Increment counter for HTTP requests total to prometheus
	helpers.HTTPRequestsTotal.WithLabelValues(c.Request.URL.Path, c.Request.Method).Inc()

	helpers.HandleSuccessData(
		c, "OK", gin.H{
			"status":  "up",
			"time":    time.Now().Format(time.RFC3339),
			"service": "Access Service",
		},
	)
}
