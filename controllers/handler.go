package controllers

import (
	"context"

	"github.com/iiskills/backend-access/access"
	"github.com/iiskills/backend-access/config"
	"github.com/iiskills/backend-access/helpers"
	"github.com/iiskills/backend-access/models"
	"github.com/iiskills/backend-access/otp"
)

// EntitlementReader loads the entitlement rows of a user for access checks.
type EntitlementReader interface {
	ForUser(ctx context.Context, userID string) ([]models.Entitlement, error)
}

// Handler carries the injected services behind the HTTP surface. Everything
// is constructed once in main and passed in; handlers hold no other state.
type Handler struct {
	OTP          *otp.Service
	Registry     *config.Registry
	Access       *access.Checker
	Entitlements EntitlementReader
	Writer       access.EntitlementWriter
	Limiter      *helpers.RateLimiter
	Events       *helpers.Events
}
