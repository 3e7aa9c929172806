package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iiskills/backend-access/helpers"
)

type checkOTPRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
	AppID string `json:"app_id" binding:"required"`
}

// CheckOTP redeems a code. Expected rejections (wrong code, wrong app,
// expired, too many attempts) come back as structured failures, never as
// server errors.
func (h *Handler) CheckOTP(c *gin.Context) {
	var body checkOTPRequest

	if err := c.ShouldBindJSON(&body); err != nil {
		helpers.HandleError(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	res := h.OTP.Verify(c.Request.Context(), body.Email, body.Code, body.AppID)
	if !res.Success {
		helpers.OTPVerifiedTotal.WithLabelValues(body.AppID, "failure").Inc()
		status := http.StatusForbidden
		if res.Error == "Failed to verify OTP" {
			status = http.StatusInternalServerError
		}
		helpers.HandleError(c, status, res.Error, nil)
		return
	}

	helpers.OTPVerifiedTotal.WithLabelValues(body.AppID, "success").Inc()
	go h.Events.PublishOTPVerified(res)
	helpers.HandleSuccessData(c, res.Message, res)
}
