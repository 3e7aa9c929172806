package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
)

// Timeout bounds request handling. OTP dispatch waits on external providers,
// so a stuck provider must not hold the connection open indefinitely.
func Timeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithHandler(func(c *gin.Context) {
			c.Next()
		}),
		timeout.WithResponse(func(c *gin.Context) {
			c.SecureJSON(http.StatusRequestTimeout, gin.H{
				"success": false,
				"message": "Request timed out",
			})
		}),
	)
}
