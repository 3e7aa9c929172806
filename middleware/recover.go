package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/iiskills/backend-access/helpers"
)

// Recover recovers from panics and returns a 500 Internal Server Error response.
func Recover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logrus.WithFields(logrus.Fields{"error": err, "path": c.FullPath()}).Error("Recovered from panic")
				helpers.HTTPRequestErrors.WithLabelValues(c.FullPath(), c.Request.Method).Inc()

				// Try to write header only if not already written
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"success": false,
						"message": "Internal server error",
					})
				} else {
					c.AbortWithStatus(http.StatusInternalServerError)
				}
			}
		}()
		c.Next()
	}
}
