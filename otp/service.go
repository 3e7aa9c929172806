// Package otp issues and verifies app-scoped one-time passwords. A code is
// bound to exactly one app: a code issued for one app never verifies against
// another, even with the same email and digits.
package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iiskills/backend-access/delivery"
	"github.com/iiskills/backend-access/models"
)

const (
	// DefaultTTL is the validity window of a fresh code.
	DefaultTTL = 10 * time.Minute

	// DefaultReason is recorded when the caller gives no reason.
	DefaultReason = "payment_verification"
)

// User-facing verification outcomes. Invalid code and unknown email/app pairs
// share one message so the response never confirms whether any OTP history
// exists for the pair.
const (
	msgRequiredFields = "required fields missing"
	msgInvalidEmail   = "invalid email"
	msgNotFound       = "Invalid OTP or OTP not found for this app"
	msgExpired        = "OTP has expired"
	msgTooMany        = "Too many verification attempts"
	msgStoreFailure   = "Failed to verify OTP"
)

// Store is the persistence surface the service needs from the otps table.
type Store interface {
	Insert(ctx context.Context, rec *models.OTP) error
	LatestUnverified(ctx context.Context, email, appID string) (*models.OTP, error)
	IncrementAttempts(ctx context.Context, id uint) error
	MarkVerified(ctx context.Context, id uint) (bool, error)
	HasLive(ctx context.Context, email, appID string) (bool, error)
	Recent(ctx context.Context, email, appID string, limit int) ([]models.OTP, error)
}

// Service orchestrates generation, dispatch, persistence and verification.
// All collaborators are injected at startup.
type Service struct {
	store Store
	email delivery.EmailSender
	sms   delivery.SMSSender
	ttl   time.Duration
	now   func() time.Time
}

// NewService returns a service with the default 10-minute validity window.
func NewService(store Store, email delivery.EmailSender, sms delivery.SMSSender) *Service {
	return &Service{
		store: store,
		email: email,
		sms:   sms,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
}

// GenerateInput carries the fields of one issuance request. Email, AppID and
// AppName are required; Phone upgrades delivery to both channels.
type GenerateInput struct {
	Email                string
	Phone                string
	AppID                string
	AppName              string
	UserID               string
	PaymentTransactionID string
	Reason               string
	AdminGenerated       bool
}

// GenerateResult reports the outcome of an issuance. It never carries the
// code itself.
type GenerateResult struct {
	Success         bool      `json:"success"`
	DeliveryChannel string    `json:"delivery_channel"`
	EmailSent       bool      `json:"email_sent"`
	SMSSent         bool      `json:"sms_sent"`
	ExpiresAt       time.Time `json:"expires_at"`
	AppID           string    `json:"app_id"`
	Message         string    `json:"message"`
}

// GenerateAndDispatch creates a fresh code for (email, app), attempts
// delivery on every configured channel, and persists the record regardless of
// delivery outcome so the code stays auditable and redeemable even when a
// provider was down. Earlier live codes for the pair are not invalidated.
//
// Malformed input returns a ValidationError; a store failure returns a plain
// error. A delivery failure is soft: the result reports Success=false only
// when every attempted channel failed.
func (s *Service) GenerateAndDispatch(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	if in.Email == "" || in.AppID == "" || in.AppName == "" {
		return nil, &ValidationError{Message: "missing required field"}
	}
	if !validEmail(in.Email) {
		return nil, &ValidationError{Message: "invalid email"}
	}
	if in.Phone != "" && !validPhone(in.Phone) {
		return nil, &ValidationError{Message: "invalid phone"}
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp code: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	channel := delivery.ChannelEmail
	if in.Phone != "" {
		channel = delivery.ChannelBoth
	}

	// Email and SMS attempts run concurrently and independently; neither
	// outcome aborts the other or the persistence below.
	var emailSent, smsSent bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emailSent = s.email.SendOTP(gctx, in.Email, code, in.AppID, in.AppName)
		return nil
	})
	if in.Phone != "" {
		g.Go(func() error {
			smsSent = s.sms.SendOTP(gctx, in.Phone, code, in.AppID, in.AppName)
			return nil
		})
	}
	_ = g.Wait()

	reason := in.Reason
	if reason == "" {
		reason = DefaultReason
	}

	rec := &models.OTP{
		UserID:               in.UserID,
		Email:                in.Email,
		Phone:                in.Phone,
		AppID:                in.AppID,
		Code:                 code,
		ExpiresAt:            expiresAt,
		DeliveryChannel:      string(channel),
		EmailSent:            emailSent,
		SMSSent:              smsSent,
		Reason:               reason,
		PaymentTransactionID: in.PaymentTransactionID,
		AdminGenerated:       in.AdminGenerated,
		CreatedAt:            now,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist otp: %w", err)
	}

	res := &GenerateResult{
		Success:         true,
		DeliveryChannel: string(channel),
		EmailSent:       emailSent,
		SMSSent:         smsSent,
		ExpiresAt:       expiresAt,
		AppID:           in.AppID,
		Message:         fmt.Sprintf("OTP sent for %s. It expires in %d minutes.", in.AppName, int(s.ttl.Minutes())),
	}
	if !emailSent && !smsSent {
		res.Success = false
		res.Message = "OTP generated but delivery failed on all channels"
		logrus.WithFields(logrus.Fields{"app_id": in.AppID}).Error("All OTP delivery channels failed")
	}
	return res, nil
}

// VerifyResult is the structured outcome of a verification attempt.
// Expected failures are reported through Error, never raised.
type VerifyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	AppID   string `json:"app_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Verify redeems a code against the most recent unverified record for the
// email and app pair. A wrong code counts against that record's attempt
// cap; an expired record is left untouched. The final state flip is one
// conditional update, so concurrent attempts cannot both succeed.
func (s *Service) Verify(ctx context.Context, email, code, appID string) *VerifyResult {
	if email == "" || code == "" || appID == "" {
		return &VerifyResult{Error: msgRequiredFields}
	}
	if !validEmail(email) {
		return &VerifyResult{Error: msgInvalidEmail}
	}

	rec, err := s.store.LatestUnverified(ctx, email, appID)
	if err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "app_id": appID}).Error("OTP lookup failed")
		return &VerifyResult{Error: msgStoreFailure}
	}
	if rec == nil {
		return &VerifyResult{Error: msgNotFound}
	}
	if rec.IsExpired(s.now()) {
		return &VerifyResult{Error: msgExpired}
	}
	if rec.IsLocked() {
		return &VerifyResult{Error: msgTooMany}
	}
	if rec.Code != code {
		if err := s.store.IncrementAttempts(ctx, rec.ID); err != nil {
			logrus.WithFields(logrus.Fields{"error": err}).Error("Failed to record OTP attempt")
		}
		return &VerifyResult{Error: msgNotFound}
	}

	ok, err := s.store.MarkVerified(ctx, rec.ID)
	if err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "app_id": appID}).Error("OTP update failed")
		return &VerifyResult{Error: msgStoreFailure}
	}
	if !ok {
		// Lost the conditional update: another attempt verified or locked the
		// record between our read and write.
		return &VerifyResult{Error: msgTooMany}
	}

	return &VerifyResult{
		Success: true,
		Message: "OTP verified successfully",
		AppID:   appID,
		UserID:  rec.UserID,
		Email:   email,
	}
}

// HasValidOTP reports whether a live code already exists for the pair.
// Callers use it to skip redundant re-dispatch; nothing is enforced here.
func (s *Service) HasValidOTP(ctx context.Context, email, appID string) (bool, error) {
	return s.store.HasLive(ctx, email, appID)
}

// Stats summarizes the most recent records of a pair for support tooling.
type Stats struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Expired  int `json:"expired"`
	Pending  int `json:"pending"`
}

// Stats classifies the ten most recent records for the pair. Not part of the
// security boundary.
func (s *Service) Stats(ctx context.Context, email, appID string) (*Stats, error) {
	recs, err := s.store.Recent(ctx, email, appID, 10)
	if err != nil {
		return nil, err
	}
	now := s.now()
	st := &Stats{Total: len(recs)}
	for i := range recs {
		switch {
		case recs[i].IsVerified():
			st.Verified++
		case recs[i].IsExpired(now):
			st.Expired++
		default:
			st.Pending++
		}
	}
	return st, nil
}
