package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// MaxVerificationAttempts caps how often a single OTP record may be checked.
// Once reached the record can no longer succeed.
const MaxVerificationAttempts = 5

// OTP is one issued one-time password, scoped to exactly one app. Records are
// never deleted by this service; retention is an external policy.
type OTP struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	UserID               string     `json:"user_id" gorm:"type:varchar(100)"`
	Email                string     `json:"email" gorm:"type:varchar(255);not null;index:idx_otps_email_app"`
	Phone                string     `json:"phone" gorm:"type:varchar(20)"`
	AppID                string     `json:"app_id" gorm:"type:varchar(100);not null;index:idx_otps_email_app"`
	Code                 string     `json:"-" gorm:"column:otp_code;type:varchar(6);not null"`
	ExpiresAt            time.Time  `json:"expires_at"`
	DeliveryChannel      string     `json:"delivery_channel" gorm:"type:varchar(10)"`
	EmailSent            bool       `json:"email_sent"`
	SMSSent              bool       `json:"sms_sent" gorm:"column:sms_sent"`
	Reason               string     `json:"reason" gorm:"type:varchar(100)"`
	PaymentTransactionID string     `json:"payment_transaction_id" gorm:"type:varchar(100)"`
	AdminGenerated       bool       `json:"admin_generated"`
	VerifiedAt           *time.Time `json:"verified_at"`
	VerificationAttempts int        `json:"verification_attempts"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableName sets the table name for the OTP model
func (OTP) TableName() string {
	return "otps"
}

// IsVerified reports whether the record reached its terminal verified state.
func (o *OTP) IsVerified() bool {
	return o.VerifiedAt != nil
}

// IsExpired reports whether the record is past its validity window. Expiry is
// evaluated lazily; expired rows are never rewritten.
func (o *OTP) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// IsLocked reports whether the record exhausted its verification attempts.
func (o *OTP) IsLocked() bool {
	return o.VerificationAttempts >= MaxVerificationAttempts
}

// IsLive reports whether the record is still eligible for verification.
func (o *OTP) IsLive(now time.Time) bool {
	return !o.IsVerified() && !o.IsExpired(now) && !o.IsLocked()
}

// OTPStore runs the otps table queries against an injected database handle.
type OTPStore struct {
	db *gorm.DB
}

// NewOTPStore returns a store bound to db.
func NewOTPStore(db *gorm.DB) *OTPStore {
	return &OTPStore{db: db}
}

// Insert persists a freshly issued OTP record. Earlier records for the same
// email and app are left untouched.
func (s *OTPStore) Insert(ctx context.Context, rec *OTP) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// LatestUnverified returns the most recent unverified record for the email
// and app pair, or nil when none exists.
func (s *OTPStore) LatestUnverified(ctx context.Context, email, appID string) (*OTP, error) {
	var rec OTP
	err := s.db.WithContext(ctx).
		Where("email = ? AND app_id = ? AND verified_at IS NULL", email, appID).
		Order("created_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// IncrementAttempts records one failed check against the record.
func (s *OTPStore) IncrementAttempts(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&OTP{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"verification_attempts": gorm.Expr("verification_attempts + 1"),
			"updated_at":            time.Now(),
		}).Error
}

// MarkVerified flips the record to its verified state with a single
// conditional update, so two concurrent verifications cannot both succeed.
// It reports false when the record was already verified or locked.
func (s *OTPStore) MarkVerified(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&OTP{}).
		Where("id = ? AND verified_at IS NULL AND verification_attempts < ?", id, MaxVerificationAttempts).
		Updates(map[string]interface{}{
			"verified_at":           time.Now(),
			"verification_attempts": gorm.Expr("verification_attempts + 1"),
			"updated_at":            time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// HasLive reports whether at least one unverified, unexpired record exists
// for the email and app pair.
func (s *OTPStore) HasLive(ctx context.Context, email, appID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&OTP{}).
		Where("email = ? AND app_id = ? AND verified_at IS NULL AND expires_at > ?", email, appID, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Recent returns up to limit records for the pair, newest first.
func (s *OTPStore) Recent(ctx context.Context, email, appID string, limit int) ([]OTP, error) {
	var recs []OTP
	err := s.db.WithContext(ctx).
		Where("email = ? AND app_id = ?", email, appID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
