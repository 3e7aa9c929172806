package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iiskills/backend-access/helpers"
)

// OTPStatus reports whether a live code already exists for the email and app
// pair, so callers can skip a redundant re-dispatch.
func (h *Handler) OTPStatus(c *gin.Context) {
	email := c.Query("email")
	appID := c.Query("app_id")
	if email == "" || appID == "" {
		helpers.HandleError(c, http.StatusBadRequest, "email and app_id are required", nil)
		return
	}

	ok, err := h.OTP.HasValidOTP(c.Request.Context(), email, appID)
	if err != nil {
		helpers.HandleError(c, http.StatusInternalServerError, "Failed to check OTP status", err)
		return
	}
	helpers.HandleSuccessData(c, "OTP status", gin.H{"has_valid_otp": ok})
}

// OTPStats summarizes the recent records of a pair for support tooling.
func (h *Handler) OTPStats(c *gin.Context) {
	email := c.Query("email")
	appID := c.Query("app_id")
	if email == "" || appID == "" {
		helpers.HandleError(c, http.StatusBadRequest, "email and app_id are required", nil)
		return
	}

	stats, err := h.OTP.Stats(c.Request.Context(), email, appID)
	if err != nil {
		helpers.HandleError(c, http.StatusInternalServerError, "Failed to load OTP stats", err)
		return
	}
	helpers.HandleSuccessData(c, "OTP stats", stats)
}
