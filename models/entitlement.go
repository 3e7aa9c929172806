package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// How an entitlement was granted.
const (
	GrantedViaPayment = "payment"
	GrantedViaBundle  = "bundle"
)

// Entitlement grants a user ongoing access to one paid app. A nil ExpiresAt
// means the grant is perpetual.
type Entitlement struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	UserID               string     `json:"user_id" gorm:"type:varchar(100);not null;index:idx_entitlements_user"`
	AppID                string     `json:"app_id" gorm:"type:varchar(100);not null"`
	IsActive             bool       `json:"is_active"`
	ExpiresAt            *time.Time `json:"expires_at"`
	GrantedVia           string     `json:"granted_via" gorm:"type:varchar(10)"`
	PaymentTransactionID string     `json:"payment_transaction_id" gorm:"type:varchar(100)"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableName sets the table name for the Entitlement model
func (Entitlement) TableName() string {
	return "entitlements"
}

// IsLive reports whether the entitlement currently grants access.
func (e *Entitlement) IsLive(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	return e.ExpiresAt == nil || !now.After(*e.ExpiresAt)
}

// EntitlementStore reads and writes entitlement rows.
type EntitlementStore struct {
	db *gorm.DB
}

// NewEntitlementStore returns a store bound to db.
func NewEntitlementStore(db *gorm.DB) *EntitlementStore {
	return &EntitlementStore{db: db}
}

// ForUser returns every entitlement row of a user, live or not. Access
// decisions are recomputed from these rows on each call.
func (s *EntitlementStore) ForUser(ctx context.Context, userID string) ([]Entitlement, error) {
	var ents []Entitlement
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&ents).Error
	if err != nil {
		return nil, err
	}
	return ents, nil
}

// GrantForPurchase writes one entitlement row per unlocked app after a
// completed purchase: the purchased app via payment, bundle mates via bundle.
// All rows are written in one transaction.
func (s *EntitlementStore) GrantForPurchase(ctx context.Context, userID, purchasedAppID string, unlockAppIDs []string, expiresAt *time.Time, paymentTransactionID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, appID := range unlockAppIDs {
			via := GrantedViaBundle
			if appID == purchasedAppID {
				via = GrantedViaPayment
			}
			ent := Entitlement{
				UserID:               userID,
				AppID:                appID,
				IsActive:             true,
				ExpiresAt:            expiresAt,
				GrantedVia:           via,
				PaymentTransactionID: paymentTransactionID,
			}
			if err := tx.Create(&ent).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
