package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iiskills/backend-access/access"
	"github.com/iiskills/backend-access/config"
	"github.com/iiskills/backend-access/models"
	"github.com/iiskills/backend-access/otp"
)

type memStore struct {
	recs   []*models.OTP
	nextID uint
}

func (m *memStore) Insert(_ context.Context, rec *models.OTP) error {
	m.nextID++
	rec.ID = m.nextID
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memStore) LatestUnverified(_ context.Context, email, appID string) (*models.OTP, error) {
	var out *models.OTP
	for _, r := range m.recs {
		if r.Email == email && r.AppID == appID && r.VerifiedAt == nil {
			if out == nil || r.CreatedAt.After(out.CreatedAt) {
				out = r
			}
		}
	}
	return out, nil
}

func (m *memStore) IncrementAttempts(_ context.Context, id uint) error {
	for _, r := range m.recs {
		if r.ID == id {
			r.VerificationAttempts++
		}
	}
	return nil
}

func (m *memStore) MarkVerified(_ context.Context, id uint) (bool, error) {
	for _, r := range m.recs {
		if r.ID == id && r.VerifiedAt == nil && r.VerificationAttempts < models.MaxVerificationAttempts {
			now := time.Now()
			r.VerifiedAt = &now
			r.VerificationAttempts++
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) HasLive(_ context.Context, email, appID string) (bool, error) {
	now := time.Now()
	for _, r := range m.recs {
		if r.Email == email && r.AppID == appID && r.VerifiedAt == nil && r.ExpiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Recent(_ context.Context, email, appID string, limit int) ([]models.OTP, error) {
	var out []models.OTP
	for _, r := range m.recs {
		if r.Email == email && r.AppID == appID && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

type okSender struct{}

func (okSender) SendOTP(_ context.Context, _, _, _, _ string) bool { return true }

type memEntitlements struct {
	ents []models.Entitlement
}

func (m *memEntitlements) ForUser(_ context.Context, userID string) ([]models.Entitlement, error) {
	var out []models.Entitlement
	for _, e := range m.ents {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEntitlements) GrantForPurchase(_ context.Context, userID, purchasedAppID string, unlockAppIDs []string, expiresAt *time.Time, txnID string) error {
	for _, appID := range unlockAppIDs {
		via := models.GrantedViaBundle
		if appID == purchasedAppID {
			via = models.GrantedViaPayment
		}
		m.ents = append(m.ents, models.Entitlement{
			UserID: userID, AppID: appID, IsActive: true, ExpiresAt: expiresAt,
			GrantedVia: via, PaymentTransactionID: txnID,
		})
	}
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memStore, *memEntitlements) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memStore{}
	ents := &memEntitlements{}
	registry := config.Default()
	h := &Handler{
		OTP:          otp.NewService(store, okSender{}, okSender{}),
		Registry:     registry,
		Access:       access.NewChecker(registry),
		Entitlements: ents,
		Writer:       ents,
	}

	r := gin.New()
	v1 := r.Group("/v1/api")
	v1.GET("/health", h.HealthCheck)
	v1.POST("/otp/new", h.NewOTP)
	v1.POST("/otp/verify", h.CheckOTP)
	v1.GET("/otp/status", h.OTPStatus)
	v1.GET("/otp/stats", h.OTPStats)
	v1.POST("/access/check", h.CheckAccess)
	v1.GET("/access/status/:user_id", h.AccessStatus)
	v1.POST("/access/grant", h.GrantAccess)
	return r, store, ents
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewOTPEndpoint(t *testing.T) {
	r, store, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/api/otp/new", gin.H{
		"email":    "a@b.com",
		"app_id":   "learn-ai",
		"app_name": "Learn AI",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.recs, 1)

	// The response must never contain the issued code.
	assert.NotContains(t, w.Body.String(), store.recs[0].Code)
	assert.Contains(t, w.Body.String(), `"email_sent":true`)
	assert.Contains(t, w.Body.String(), `"sms_sent":false`)
}

func TestNewOTPEndpointRejectsBadInput(t *testing.T) {
	r, store, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/api/otp/new", gin.H{"email": "a@b.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/api/otp/new", gin.H{
		"email": "not-an-email", "app_id": "learn-ai", "app_name": "Learn AI",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.recs)
}

func TestCheckOTPEndpoint(t *testing.T) {
	r, store, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/api/otp/new", gin.H{
		"email": "a@b.com", "app_id": "learn-ai", "app_name": "Learn AI", "user_id": "user-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	code := store.recs[0].Code

	// Wrong app is rejected without revealing anything about the pair.
	w = doJSON(t, r, http.MethodPost, "/v1/api/otp/verify", gin.H{
		"email": "a@b.com", "code": code, "app_id": "learn-pr",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid OTP or OTP not found for this app")

	w = doJSON(t, r, http.MethodPost, "/v1/api/otp/verify", gin.H{
		"email": "a@b.com", "code": code, "app_id": "learn-ai",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)

	// A verified code cannot be redeemed twice.
	w = doJSON(t, r, http.MethodPost, "/v1/api/otp/verify", gin.H{
		"email": "a@b.com", "code": code, "app_id": "learn-ai",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOTPStatusEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/v1/api/otp/status?email=a@b.com&app_id=learn-ai", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_valid_otp":false`)

	doJSON(t, r, http.MethodPost, "/v1/api/otp/new", gin.H{
		"email": "a@b.com", "app_id": "learn-ai", "app_name": "Learn AI",
	})
	w = doJSON(t, r, http.MethodGet, "/v1/api/otp/status?email=a@b.com&app_id=learn-ai", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_valid_otp":true`)

	w = doJSON(t, r, http.MethodGet, "/v1/api/otp/status", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckAccessEndpoint(t *testing.T) {
	r, _, ents := newTestRouter(t)

	// Free app, anonymous visitor.
	w := doJSON(t, r, http.MethodPost, "/v1/api/access/check", gin.H{"app_id": "learn-physics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_access":true`)

	// Paid app, no entitlement.
	w = doJSON(t, r, http.MethodPost, "/v1/api/access/check", gin.H{"app_id": "learn-ai", "user_id": "user-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_access":false`)

	ents.ents = append(ents.ents, models.Entitlement{
		UserID: "user-1", AppID: "learn-ai", IsActive: true, GrantedVia: models.GrantedViaPayment,
	})
	w = doJSON(t, r, http.MethodPost, "/v1/api/access/check", gin.H{"app_id": "learn-ai", "user_id": "user-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_access":true`)
}

func TestGrantAccessEndpointUnlocksBundle(t *testing.T) {
	r, _, ents := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/api/access/grant", gin.H{
		"user_id": "user-1", "app_id": "learn-ai", "payment_transaction_id": "txn-42",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ents.ents, 3)

	byApp := make(map[string]models.Entitlement)
	for _, e := range ents.ents {
		byApp[e.AppID] = e
	}
	assert.Equal(t, models.GrantedViaPayment, byApp["learn-ai"].GrantedVia)
	assert.Equal(t, models.GrantedViaBundle, byApp["learn-pr"].GrantedVia)
	assert.Equal(t, models.GrantedViaBundle, byApp["learn-datascience"].GrantedVia)

	// The bundle purchase now shows in the access status.
	w = doJSON(t, r, http.MethodGet, "/v1/api/access/status/user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"purchased_app_id":"learn-ai"`)
}

func TestGrantAccessRejectsFreeAndUnknownApps(t *testing.T) {
	r, _, ents := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/api/access/grant", gin.H{
		"user_id": "user-1", "app_id": "learn-physics",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/api/access/grant", gin.H{
		"user_id": "user-1", "app_id": "no-such-app",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ents.ents)
}
