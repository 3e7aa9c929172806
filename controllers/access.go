package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iiskills/backend-access/access"
	"github.com/iiskills/backend-access/helpers"
)

type checkAccessRequest struct {
	UserID string `json:"user_id"`
	AppID  string `json:"app_id" binding:"required"`
}

// CheckAccess reports whether a user (possibly anonymous) may use an app.
func (h *Handler) CheckAccess(c *gin.Context) {
	var body checkAccessRequest

	if err := c.ShouldBindJSON(&body); err != nil {
		helpers.HandleError(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	user, err := h.loadUser(c, body.UserID)
	if err != nil {
		helpers.HandleError(c, http.StatusInternalServerError, "Failed to load entitlements", err)
		return
	}

	helpers.HandleSuccessData(c, "Access check", gin.H{
		"app_id":     body.AppID,
		"has_access": h.Access.UserHasAccess(user, body.AppID),
		"via_bundle": h.Access.HasAccessViaBundle(user, body.AppID),
	})
}

// AccessStatus returns the full accessible set of a user, derived fresh from
// the entitlement rows on every call.
func (h *Handler) AccessStatus(c *gin.Context) {
	userID := c.Param("user_id")
	user, err := h.loadUser(c, userID)
	if err != nil {
		helpers.HandleError(c, http.StatusInternalServerError, "Failed to load entitlements", err)
		return
	}
	helpers.HandleSuccessData(c, "Access status", h.Access.AccessStatus(user))
}

type grantAccessRequest struct {
	UserID               string     `json:"user_id" binding:"required"`
	AppID                string     `json:"app_id" binding:"required"`
	PaymentTransactionID string     `json:"payment_transaction_id"`
	ExpiresAt            *time.Time `json:"expires_at"`
}

// GrantAccess is the internal endpoint the payment-completion flow calls
// after a verified purchase. It resolves the full unlock set (bundle mates
// included) and writes one entitlement row per app.
func (h *Handler) GrantAccess(c *gin.Context) {
	var body grantAccessRequest

	if err := c.ShouldBindJSON(&body); err != nil {
		helpers.HandleError(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if !h.Registry.RequiresPayment(body.AppID) {
		helpers.HandleError(c, http.StatusBadRequest, "App does not require a purchase", nil)
		return
	}
	if h.Registry.App(body.AppID) == nil {
		helpers.HandleError(c, http.StatusBadRequest, "Unknown app", nil)
		return
	}

	unlock := h.Registry.AppsToUnlock(body.AppID)
	err := h.Writer.GrantForPurchase(c.Request.Context(), body.UserID, body.AppID, unlock, body.ExpiresAt, body.PaymentTransactionID)
	if err != nil {
		helpers.HandleError(c, http.StatusInternalServerError, "Failed to grant access", err)
		return
	}

	helpers.HandleSuccessData(c, "Access granted", gin.H{
		"user_id":       body.UserID,
		"unlocked_apps": unlock,
	})
}

// loadUser builds the access snapshot for a user id. An empty id is an
// anonymous visitor.
func (h *Handler) loadUser(c *gin.Context, userID string) (*access.User, error) {
	if userID == "" {
		return nil, nil
	}
	ents, err := h.Entitlements.ForUser(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}
	return &access.User{ID: userID, Entitlements: ents}, nil
}
