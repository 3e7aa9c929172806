package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iiskills/backend-access/helpers"
	"github.com/iiskills/backend-access/otp"
)

type newOTPRequest struct {
	Email                string `json:"email" binding:"required"`
	Phone                string `json:"phone"`
	AppID                string `json:"app_id" binding:"required"`
	AppName              string `json:"app_name" binding:"required"`
	UserID               string `json:"user_id"`
	PaymentTransactionID string `json:"payment_transaction_id"`
	Reason               string `json:"reason"`
	AdminGenerated       bool   `json:"admin_generated"`
}

// NewOTP issues and dispatches a fresh code for one app. The response never
// carries the code.
func (h *Handler) NewOTP(c *gin.Context) {
	var body newOTPRequest

	if err := c.ShouldBindJSON(&body); err != nil {
		helpers.HandleError(c, http.StatusBadRequest, "Invalid data or bad request", err)
		return
	}

	if err := h.Limiter.CanRequest(c.Request.Context(), body.Email, body.AppID); err != nil {
		helpers.HandleError(c, http.StatusTooManyRequests, err.Error(), nil)
		return
	}

	res, err := h.OTP.GenerateAndDispatch(c.Request.Context(), otp.GenerateInput{
		Email:                body.Email,
		Phone:                body.Phone,
		AppID:                body.AppID,
		AppName:              body.AppName,
		UserID:               body.UserID,
		PaymentTransactionID: body.PaymentTransactionID,
		Reason:               body.Reason,
		AdminGenerated:       body.AdminGenerated,
	})
	if err != nil {
		if otp.IsValidationError(err) {
			helpers.HandleError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		helpers.HandleError(c, http.StatusInternalServerError, "Failed to create OTP", err)
		return
	}

	helpers.OTPGeneratedTotal.WithLabelValues(res.AppID, res.DeliveryChannel).Inc()
	helpers.HandleSuccessData(c, res.Message, res)
}
